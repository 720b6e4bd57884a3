package devloop

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lbliii/bengal/internal/cache"
)

// ReloadKind describes what a browser should do in response to a rebuild.
type ReloadKind int

const (
	// ReloadNone means nothing the browser has open changed.
	ReloadNone ReloadKind = iota
	// ReloadCSS means only stylesheet output changed; the hub can push a
	// CSS-only reload that swaps <link> hrefs instead of reloading the page.
	ReloadCSS
	// ReloadFull means HTML, script, or other output changed and the page
	// should be reloaded outright.
	ReloadFull
)

// ReloadDecision is the result of diffing two output snapshots.
type ReloadDecision struct {
	Kind    ReloadKind
	Changed []string // output-relative paths that changed, for diagnostics
}

// OutputCollector walks a build's output directory and fingerprints every
// file it finds, the same way internal/cache fingerprints source files. A
// Collect call after each rebuild produces a snapshot that ReloadController
// diffs against the previous one, so the dev server can decide what kind of
// reload a change actually warrants instead of always reloading the whole
// page.
type OutputCollector struct {
	OutputDir string
}

// Snapshot maps an output-relative path to a content hash.
type Snapshot map[string]uint64

// Collect walks c.OutputDir and returns a Snapshot of every regular file's
// xxhash. Missing directories produce an empty snapshot rather than an
// error, since a collector may run before the first build has happened.
func (c *OutputCollector) Collect() Snapshot {
	snap := Snapshot{}
	entries, err := cache.WalkFiles(c.OutputDir)
	if err != nil {
		return snap
	}
	for _, rel := range entries {
		full := filepath.Join(c.OutputDir, rel)
		fp, err := cache.FingerprintFile(full)
		if err != nil {
			continue
		}
		snap[filepath.ToSlash(rel)] = fp.Hash
	}
	return snap
}

// diff compares two snapshots and classifies the result.
func diff(prev, next Snapshot) ReloadDecision {
	var changed []string
	for path, hash := range next {
		if prevHash, ok := prev[path]; !ok || prevHash != hash {
			changed = append(changed, path)
		}
	}
	for path := range prev {
		if _, ok := next[path]; !ok {
			changed = append(changed, path)
		}
	}
	if len(changed) == 0 {
		return ReloadDecision{Kind: ReloadNone}
	}
	if allCSS(changed) {
		return ReloadDecision{Kind: ReloadCSS, Changed: changed}
	}
	return ReloadDecision{Kind: ReloadFull, Changed: changed}
}

func allCSS(paths []string) bool {
	for _, p := range paths {
		if !strings.HasSuffix(p, ".css") {
			return false
		}
	}
	return true
}

// ReloadController throttles and classifies reload notifications. Rebuilds
// that complete within the same 200ms window collapse into a single
// decision computed against the snapshot from before the window started,
// so a burst of filesystem events from one save doesn't fire a reload per
// rebuilt file.
type ReloadController struct {
	collector *OutputCollector
	throttle  time.Duration

	mu       sync.Mutex
	last     Snapshot
	pending  bool
	timer    *time.Timer
	onReload func(ReloadDecision)
}

// NewReloadController creates a controller that collects output snapshots
// from collector and calls onReload with the classified decision no more
// often than once per throttle window.
func NewReloadController(collector *OutputCollector, throttle time.Duration, onReload func(ReloadDecision)) *ReloadController {
	return &ReloadController{
		collector: collector,
		throttle:  throttle,
		onReload:  onReload,
	}
}

// NotifyRebuild is called after each rebuild completes. It collapses calls
// arriving within the throttle window into a single diff taken once the
// window elapses.
func (r *ReloadController) NotifyRebuild() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last == nil {
		r.last = r.collector.Collect()
	}
	if r.pending {
		return
	}
	r.pending = true
	r.timer = time.AfterFunc(r.throttle, r.flush)
}

func (r *ReloadController) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.collector.Collect()
	decision := diff(r.last, next)
	r.last = next
	r.pending = false
	if decision.Kind != ReloadNone {
		r.onReload(decision)
	}
}
