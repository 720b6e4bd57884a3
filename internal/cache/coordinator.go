package cache

import "sync"

// InvalidationEvent is one entry in the Coordinator's bounded event log,
// surfaced through --explain and through the dev-server diagnostic stream.
type InvalidationEvent struct {
	PageKey string
	Reason  RebuildReason
	Via     string
}

const maxEventLog = 10000

// Coordinator is the sole gateway for cache invalidation. Every code path
// that decides a page, template, data file, or taxonomy needs to be
// recomputed calls into Coordinator rather than touching the Cache or
// DependencyGraph directly, so invalidation of the three cache layers
// (parsed_content, rendered_output, file_fingerprints) stays atomic under
// one mutex and the event log stays consistent.
type Coordinator struct {
	mu    sync.Mutex
	cache *Cache
	graph *DependencyGraph
	log   []InvalidationEvent
}

// NewCoordinator wraps a Cache and DependencyGraph pair for the duration of
// one build (or one dev-server session spanning many incremental rebuilds).
func NewCoordinator(cache *Cache, graph *DependencyGraph) *Coordinator {
	return &Coordinator{cache: cache, graph: graph}
}

// InvalidatePage clears all three of a page's cache layers — parsed
// content, rendered output, and file fingerprint — plus its dependency
// edges, in one locked section. The three deletes either all apply or the
// page was never cached in the first place; there is no path that clears
// one layer but leaves a stale entry in another.
func (co *Coordinator) InvalidatePage(pageKey string, reason RebuildReason, via string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	_ = co.cache.DeleteParsedContent(pageKey)
	_ = co.cache.DeleteRenderedOutput(pageKey)
	_ = co.cache.DeleteFileFingerprint(pageKey)
	co.graph.Clear(pageKey)
	co.appendLocked(InvalidationEvent{PageKey: pageKey, Reason: reason, Via: via})
}

// RecordFingerprint fingerprints a page's source against the cache under
// the coordinator's lock, without invalidating anything else. Used by the
// classifier's provenance scan once a page is confirmed unchanged.
func (co *Coordinator) RecordFingerprint(pageKey string, fp Fingerprint) {
	co.mu.Lock()
	defer co.mu.Unlock()
	_ = co.cache.SetFileFingerprint(pageKey, fp)
}

// InvalidateForTemplate invalidates every page the graph records as
// depending on templateName.
func (co *Coordinator) InvalidateForTemplate(templateName string) []string {
	affected := co.graph.Dependents(templateName)
	for _, pk := range affected {
		co.InvalidatePage(pk, ReasonTemplateDependency, templateName)
	}
	return affected
}

// InvalidateForDataFile invalidates every page the graph records as
// depending on a data file.
func (co *Coordinator) InvalidateForDataFile(dataPath string) []string {
	affected := co.graph.Dependents(dataPath)
	for _, pk := range affected {
		co.InvalidatePage(pk, ReasonDataDependency, dataPath)
	}
	return affected
}

// InvalidateTaxonomyCascade invalidates every generated taxonomy page for a
// term plus every page the graph records as a member of it, used when a
// page's tag/category set changes between builds.
func (co *Coordinator) InvalidateTaxonomyCascade(taxonomyKey string) []string {
	affected := co.graph.Dependents(taxonomyKey)
	for _, pk := range affected {
		co.InvalidatePage(pk, ReasonTaxonomyMembership, taxonomyKey)
	}
	return affected
}

// InvalidateAll clears every cache layer; used on structural_change and
// config_changed, where the provenance filter does not apply and the next
// build must be a full build.
func (co *Coordinator) InvalidateAll() {
	co.mu.Lock()
	defer co.mu.Unlock()

	for pk := range co.graph.forward {
		_ = co.cache.DeleteParsedContent(pk)
	}
	co.graph.Load(nil)
	co.appendLocked(InvalidationEvent{Reason: ReasonStructural})
}

func (co *Coordinator) appendLocked(ev InvalidationEvent) {
	co.log = append(co.log, ev)
	if len(co.log) > maxEventLog {
		co.log = co.log[len(co.log)-maxEventLog:]
	}
}

// Events returns a copy of the current invalidation event log, newest last.
func (co *Coordinator) Events() []InvalidationEvent {
	co.mu.Lock()
	defer co.mu.Unlock()

	out := make([]InvalidationEvent, len(co.log))
	copy(out, co.log)
	return out
}
