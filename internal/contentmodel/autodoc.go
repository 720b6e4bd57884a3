package contentmodel

import (
	"fmt"
	"sort"
)

// AutodocSource generates Page values from something other than a Markdown
// file under the content directory: a Python docstring extractor, an OpenAPI
// document, a CLI's own flag/command tree, or any other external
// collaborator that can produce structured content. Generate is handed the
// project root so a source can locate whatever it introspects (a Python
// package, an OpenAPI spec file, the running binary's own cobra tree).
//
// Bengal ships the interface and the registry below; it does not ship any
// concrete extractor. A project wires one in by calling RegisterAutodocSource
// from its own build tooling before running bengal autodoc.
type AutodocSource interface {
	// Name identifies the source for the `bengal autodoc <name>` subcommand.
	Name() string
	// Generate returns the pages this source produces, each with Autodoc set
	// and a CanonicalKey of the form "autodoc:<name>:<slug>".
	Generate(root string) ([]*Page, error)
}

var autodocSources = map[string]AutodocSource{}

// RegisterAutodocSource adds a source to the registry consulted by
// `bengal autodoc <name>`. Call it from an init() in whatever package
// implements the source; registering two sources under the same name panics
// since it almost always indicates a duplicate import.
func RegisterAutodocSource(src AutodocSource) {
	name := src.Name()
	if _, exists := autodocSources[name]; exists {
		panic(fmt.Sprintf("contentmodel: autodoc source %q already registered", name))
	}
	autodocSources[name] = src
}

// AutodocSourceNames returns the names of every registered source, sorted
// for stable --help output.
func AutodocSourceNames() []string {
	names := make([]string, 0, len(autodocSources))
	for name := range autodocSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAutodocSource looks up a registered source by name and runs it against
// root. It returns an error naming the source if none is registered, rather
// than silently producing zero pages.
func RunAutodocSource(name, root string) ([]*Page, error) {
	src, ok := autodocSources[name]
	if !ok {
		return nil, fmt.Errorf("contentmodel: no autodoc source registered under %q (registered: %v)", name, AutodocSourceNames())
	}
	pages, err := src.Generate(root)
	if err != nil {
		return nil, fmt.Errorf("autodoc source %q: %w", name, err)
	}
	for _, p := range pages {
		p.Autodoc = true
		if p.CanonicalKey == "" {
			p.CanonicalKey = fmt.Sprintf("autodoc:%s:%s", name, p.Slug)
		}
	}
	return pages, nil
}
