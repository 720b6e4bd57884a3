package build

import (
	"fmt"
	"runtime"

	"github.com/lbliii/bengal/internal/contentmodel"
	"github.com/sourcegraph/conc/pool"
)

// renderParallel processes pages concurrently using a bounded conc
// worker pool. The fn callback is invoked for each page; a panic inside fn
// is converted to an error by conc rather than crashing the build, and the
// pool is cancelled (remaining pages skipped) as soon as the first error or
// panic is observed.
func renderParallel(pages []*contentmodel.Page, workers int, fn func(*contentmodel.Page) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(pages) == 0 {
		return nil
	}
	if workers > len(pages) {
		workers = len(pages)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for _, page := range pages {
		page := page
		p.Go(func() error {
			if err := fn(page); err != nil {
				return fmt.Errorf("processing page %s: %w", page.SourcePath, err)
			}
			return nil
		})
	}
	return p.Wait()
}

// setSectionNavigation sets PrevInSection and NextInSection links for pages
// within the same section. Pages should already be sorted (newest first).
// This is section-scoped navigation only; Site.linkChronological (run as
// part of contentmodel.BuildSite) sets the site-wide Prev/Next chain.
func setSectionNavigation(pages []*contentmodel.Page) {
	// Group pages by section.
	sections := make(map[string][]*contentmodel.Page)
	for _, p := range pages {
		if p.Type == contentmodel.PageTypeSingle {
			sections[p.Section] = append(sections[p.Section], p)
		}
	}

	// Set prev/next within each section.
	for _, sectionPages := range sections {
		for i, p := range sectionPages {
			if i > 0 {
				p.NextInSection = sectionPages[i-1] // newer page
			}
			if i < len(sectionPages)-1 {
				p.PrevInSection = sectionPages[i+1] // older page
			}
		}
	}
}

// buildProjectPostMap groups blog posts by their "project" front matter
// field, sorted newest first within each group, so a project's page can
// list every post written about it.
func buildProjectPostMap(pages []*contentmodel.Page) map[string][]*contentmodel.Page {
	m := make(map[string][]*contentmodel.Page)
	for _, p := range pages {
		if p.Project == "" {
			continue
		}
		m[p.Project] = append(m[p.Project], p)
	}
	for project := range m {
		contentmodel.SortByDate(m[project], false)
	}
	return m
}

// buildProjectPageIndex indexes single pages in the "projects" section by
// slug, so buildProjectPostMap's groups can be looked up by project page.
func buildProjectPageIndex(pages []*contentmodel.Page) map[string]*contentmodel.Page {
	m := make(map[string]*contentmodel.Page)
	for _, p := range pages {
		if p.Type != contentmodel.PageTypeSingle || p.Section != "projects" || p.Slug == "" {
			continue
		}
		m[p.Slug] = p
	}
	return m
}

// buildTaxonomyMaps builds maps from taxonomy term to pages.
// Returns maps for tags and categories.
func buildTaxonomyMaps(pages []*contentmodel.Page) (tags map[string][]*contentmodel.Page, categories map[string][]*contentmodel.Page) {
	tags = make(map[string][]*contentmodel.Page)
	categories = make(map[string][]*contentmodel.Page)

	for _, p := range pages {
		for _, tag := range p.Tags {
			tags[tag] = append(tags[tag], p)
		}
		for _, cat := range p.Categories {
			categories[cat] = append(categories[cat], p)
		}
	}
	return tags, categories
}
