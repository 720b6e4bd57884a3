package cache

import "sync"

// DependencyGraph tracks, for every page, the set of inputs that its
// rendered output depends on: templates, data files, other pages (via
// cross-references), assets, and siblings across a version boundary. It
// maintains both the forward edges (page -> inputs) and a reverse index
// (input -> pages) so the classifier can answer "which pages does this
// changed file affect" in O(1) instead of scanning every page.
//
// All mutation goes through one mutex; readers (Dependents, Dependencies)
// take the same lock for a consistent snapshot.
type DependencyGraph struct {
	mu      sync.Mutex
	forward map[string]map[string]bool // page key -> set of input keys
	reverse map[string]map[string]bool // input key -> set of page keys
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		forward: make(map[string]map[string]bool),
		reverse: make(map[string]map[string]bool),
	}
}

// SetDependencies replaces the full dependency set for a page. Called once
// per page at the end of its render, after every input it touched (template
// names, data file paths, cross-referenced page keys, asset paths) has been
// collected.
func (g *DependencyGraph) SetDependencies(pageKey string, inputs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clearLocked(pageKey)

	set := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		set[in] = true
		if g.reverse[in] == nil {
			g.reverse[in] = make(map[string]bool)
		}
		g.reverse[in][pageKey] = true
	}
	g.forward[pageKey] = set
}

func (g *DependencyGraph) clearLocked(pageKey string) {
	for in := range g.forward[pageKey] {
		delete(g.reverse[in], pageKey)
		if len(g.reverse[in]) == 0 {
			delete(g.reverse, in)
		}
	}
	delete(g.forward, pageKey)
}

// Clear removes all edges for a page, e.g. when the page itself is deleted.
func (g *DependencyGraph) Clear(pageKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked(pageKey)
}

// Dependents returns every page key whose forward edges include input.
func (g *DependencyGraph) Dependents(input string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := g.reverse[input]
	out := make([]string, 0, len(deps))
	for k := range deps {
		out = append(out, k)
	}
	return out
}

// Dependencies returns every input a page key currently depends on.
func (g *DependencyGraph) Dependencies(pageKey string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ins := g.forward[pageKey]
	out := make([]string, 0, len(ins))
	for k := range ins {
		out = append(out, k)
	}
	return out
}

// Snapshot returns a deep copy of the forward edge map, for persistence to
// the BuildCache's dependency_graph table.
func (g *DependencyGraph) Snapshot() map[string][]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string][]string, len(g.forward))
	for k, set := range g.forward {
		ins := make([]string, 0, len(set))
		for in := range set {
			ins = append(ins, in)
		}
		out[k] = ins
	}
	return out
}

// Load rebuilds the graph (forward and reverse) from a persisted snapshot,
// e.g. when restoring a BuildCache from disk at the start of a build.
func (g *DependencyGraph) Load(snapshot map[string][]string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.forward = make(map[string]map[string]bool, len(snapshot))
	g.reverse = make(map[string]map[string]bool)
	for pageKey, inputs := range snapshot {
		set := make(map[string]bool, len(inputs))
		for _, in := range inputs {
			set[in] = true
			if g.reverse[in] == nil {
				g.reverse[in] = make(map[string]bool)
			}
			g.reverse[in][pageKey] = true
		}
		g.forward[pageKey] = set
	}
}
