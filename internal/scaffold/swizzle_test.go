package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func themeFixture(content string) fstest.MapFS {
	return fstest.MapFS{
		"themes/default/layouts/single.html": &fstest.MapFile{Data: []byte(content)},
	}
}

func TestSwizzleTemplateRecordsMatchingChecksums(t *testing.T) {
	siteRoot := t.TempDir()
	theme := themeFixture("<html>original</html>")

	if err := SwizzleTemplate(siteRoot, theme, "default", "themes/default/layouts/single.html", "themes/default/layouts/single.html"); err != nil {
		t.Fatalf("SwizzleTemplate: %v", err)
	}

	statuses, err := ListSwizzled(siteRoot, theme)
	if err != nil {
		t.Fatalf("ListSwizzled: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 swizzle record, got %d", len(statuses))
	}
	if statuses[0].LocallyModified || statuses[0].UpstreamChanged {
		t.Errorf("expected fresh swizzle to show no drift, got %+v", statuses[0])
	}
}

func TestSwizzleUpdateSkipsLocallyModifiedTarget(t *testing.T) {
	siteRoot := t.TempDir()
	theme := themeFixture("<html>v1</html>")

	target := "themes/default/layouts/single.html"
	if err := SwizzleTemplate(siteRoot, theme, "default", target, target); err != nil {
		t.Fatalf("SwizzleTemplate: %v", err)
	}

	// User edits the local copy.
	if err := os.WriteFile(filepath.Join(siteRoot, target), []byte("<html>user edit</html>"), 0o644); err != nil {
		t.Fatalf("writing user edit: %v", err)
	}

	newTheme := themeFixture("<html>v2</html>")
	updated, skipped, err := SwizzleUpdate(siteRoot, newTheme)
	if err != nil {
		t.Fatalf("SwizzleUpdate: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no updates for a locally modified target, got %v", updated)
	}
	if len(skipped) != 1 {
		t.Errorf("expected 1 skipped target, got %v", skipped)
	}

	got, _ := os.ReadFile(filepath.Join(siteRoot, target))
	if string(got) != "<html>user edit</html>" {
		t.Errorf("expected user edit to survive, got %q", got)
	}
}

func TestSwizzleUpdateRefreshesUntouchedTarget(t *testing.T) {
	siteRoot := t.TempDir()
	theme := themeFixture("<html>v1</html>")

	target := "themes/default/layouts/single.html"
	if err := SwizzleTemplate(siteRoot, theme, "default", target, target); err != nil {
		t.Fatalf("SwizzleTemplate: %v", err)
	}

	newTheme := themeFixture("<html>v2</html>")
	updated, skipped, err := SwizzleUpdate(siteRoot, newTheme)
	if err != nil {
		t.Fatalf("SwizzleUpdate: %v", err)
	}
	if len(updated) != 1 || len(skipped) != 0 {
		t.Fatalf("expected the untouched target to update, got updated=%v skipped=%v", updated, skipped)
	}

	got, _ := os.ReadFile(filepath.Join(siteRoot, target))
	if string(got) != "<html>v2</html>" {
		t.Errorf("expected target to be refreshed to v2, got %q", got)
	}
}
