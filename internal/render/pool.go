package render

import (
	"fmt"
	"runtime"

	"github.com/lbliii/bengal/internal/contentmodel"
	"github.com/sourcegraph/conc/pool"
)

// Result is one page's rendered output, paired back up with its page for
// the caller to write to disk and record in the dependency graph.
type Result struct {
	Page *contentmodel.Page
	HTML []byte
}

// RenderAll renders every page in pages concurrently through fn (typically
// r.RenderPage), using a bounded conc pool so a dev-server rebuild of a
// small changed set does not spin up more goroutines than pages. Pages
// already known to be urgent (the watcher's changed_sources) should be
// ordered first in pages — conc's pool starts goroutines in submission
// order up to its concurrency limit, so an urgent-first ordering is
// rendered first under contention.
func RenderAll(pages []*contentmodel.Page, workers int, fn func(*contentmodel.Page) ([]byte, error)) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(pages) == 0 {
		return nil, nil
	}
	if workers > len(pages) {
		workers = len(pages)
	}

	p := pool.NewWithResults[Result]().WithErrors().WithMaxGoroutines(workers)
	for _, page := range pages {
		page := page
		p.Go(func() (Result, error) {
			html, err := fn(page)
			if err != nil {
				return Result{}, fmt.Errorf("rendering %s: %w", page.SourcePath, err)
			}
			return Result{Page: page, HTML: html}, nil
		})
	}
	return p.Wait()
}
