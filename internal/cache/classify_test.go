package cache

import "testing"

func TestClassifierExpandDirectContentChange(t *testing.T) {
	graph := NewDependencyGraph()
	c := NewClassifier(graph)

	entries := c.Expand([]Change{{Key: "blog/post.md", Kind: ContentChanged}})
	if len(entries) != 1 || entries[0].PageKey != "blog/post.md" || entries[0].Reason != ReasonDirect {
		t.Fatalf("expected direct rebuild entry, got %+v", entries)
	}
}

func TestClassifierExpandTemplateDependency(t *testing.T) {
	graph := NewDependencyGraph()
	graph.SetDependencies("blog/post.md", []string{"_default/single.html"})
	graph.SetDependencies("blog/other.md", []string{"_default/single.html"})

	c := NewClassifier(graph)
	entries := c.Expand([]Change{{Key: "_default/single.html", Kind: TemplateChanged}})

	if len(entries) != 2 {
		t.Fatalf("expected 2 dependent pages, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Reason != ReasonTemplateDependency {
			t.Errorf("expected ReasonTemplateDependency, got %v", e.Reason)
		}
		if e.Via != "_default/single.html" {
			t.Errorf("expected via template name, got %q", e.Via)
		}
	}
}

func TestClassifierDeduplicatesAcrossChanges(t *testing.T) {
	graph := NewDependencyGraph()
	graph.SetDependencies("blog/post.md", []string{"_default/single.html", "data/authors.yaml"})

	c := NewClassifier(graph)
	entries := c.Expand([]Change{
		{Key: "_default/single.html", Kind: TemplateChanged},
		{Key: "data/authors.yaml", Kind: DataFileChanged},
	})

	if len(entries) != 1 {
		t.Fatalf("expected page to be deduplicated to one entry, got %d", len(entries))
	}
}

func TestDependencyGraphClearRemovesReverseEdges(t *testing.T) {
	graph := NewDependencyGraph()
	graph.SetDependencies("blog/post.md", []string{"_default/single.html"})
	graph.Clear("blog/post.md")

	if deps := graph.Dependents("_default/single.html"); len(deps) != 0 {
		t.Errorf("expected no dependents after Clear, got %v", deps)
	}
}

func TestDependencyGraphSnapshotRoundTrip(t *testing.T) {
	graph := NewDependencyGraph()
	graph.SetDependencies("blog/post.md", []string{"_default/single.html", "data/authors.yaml"})

	snap := graph.Snapshot()

	restored := NewDependencyGraph()
	restored.Load(snap)

	deps := restored.Dependencies("blog/post.md")
	if len(deps) != 2 {
		t.Fatalf("expected 2 restored dependencies, got %d", len(deps))
	}
}
