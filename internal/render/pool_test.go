package render

import (
	"errors"
	"testing"

	"github.com/lbliii/bengal/internal/contentmodel"
)

func TestRenderAllReturnsResultPerPage(t *testing.T) {
	pages := []*contentmodel.Page{
		{SourcePath: "a.md"},
		{SourcePath: "b.md"},
		{SourcePath: "c.md"},
	}

	results, err := RenderAll(pages, 2, func(p *contentmodel.Page) ([]byte, error) {
		return []byte(p.SourcePath), nil
	})
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestRenderAllPropagatesError(t *testing.T) {
	pages := []*contentmodel.Page{{SourcePath: "broken.md"}}

	_, err := RenderAll(pages, 1, func(p *contentmodel.Page) ([]byte, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestRenderAllEmptyInput(t *testing.T) {
	results, err := RenderAll(nil, 4, func(p *contentmodel.Page) ([]byte, error) {
		return nil, nil
	})
	if err != nil || results != nil {
		t.Errorf("expected (nil, nil) for empty input, got (%v, %v)", results, err)
	}
}
