package contentmodel

import (
	"sort"
	"strings"

	"github.com/lbliii/bengal/internal/config"
)

// Section is a node in the content tree. Every page belongs to exactly one
// Section, determined by its directory under the content root. The root
// section (Path == "") always exists, even for sites with no subdirectories.
type Section struct {
	Name      string // directory name, e.g. "posts"
	Path      string // slash path from content root, e.g. "blog/2024"
	Title     string
	Parent    *Section
	Children  []*Section
	Pages     []*Page // regular pages directly in this section (not descendants)
	IndexPage *Page   // the _index.md page for this section, nil if absent
	Cascade   map[string]any
	Weight    int
}

// Ancestors returns the chain of sections from the immediate parent up to
// (but not including) the root.
func (s *Section) Ancestors() []*Section {
	var out []*Section
	for p := s.Parent; p != nil && p.Parent != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// AllPages returns every regular page in this section and its descendants.
func (s *Section) AllPages() []*Page {
	var out []*Page
	out = append(out, s.Pages...)
	for _, c := range s.Children {
		out = append(out, c.AllPages()...)
	}
	return out
}

// Asset represents a static file tracked through the build: theme/site
// static files as well as page-bundle co-located files. AssetType mirrors
// the coarse classification the incremental classifier needs (image, css,
// js, other) without depending on the render package.
type Asset struct {
	SourcePath     string // path relative to its root (static dir or bundle dir)
	OutputPath     string // path relative to the output directory
	Type           string // "image", "css", "js", "other"
	Hash           string // content hash, filled in by the cache subsystem
	Fingerprinted  string // output path with a content-hash suffix, if enabled
	FromTheme      bool
	FromPageBundle string // canonical key of the owning page, if any
}

// MenuItem is a single entry in a site navigation menu. Entries may come
// from config (site.Menus) or be declared in a page's front matter under a
// "menu" key; both sources merge into Site.Menus.
type MenuItem struct {
	Name     string
	URL      string
	Weight   int
	Parent   string
	Children []*MenuItem
}

// Site is the root aggregate of the content model: the section tree plus the
// indexes needed to answer "all pages", "all pages in taxonomy X", "resolve
// canonical key Y" without re-walking the tree on every call.
type Site struct {
	Config *config.SiteConfig
	Root   *Section

	Menus      map[string][]*MenuItem
	Taxonomies map[string]map[string][]*Page // taxonomy name -> term -> pages
	Data       map[string]any
	Assets     []*Asset

	byKey    map[string]*Page
	sections map[string]*Section

	regularCache   []*Page
	generatedCache []*Page
	cacheValid     bool
}

// NewSite creates an empty Site with a root section ready to receive pages.
func NewSite(cfg *config.SiteConfig) *Site {
	root := &Section{Path: "", Name: ""}
	return &Site{
		Config:     cfg,
		Root:       root,
		Menus:      make(map[string][]*MenuItem),
		Taxonomies: make(map[string]map[string][]*Page),
		Data:       make(map[string]any),
		byKey:      make(map[string]*Page),
		sections:   map[string]*Section{"": root},
	}
}

// BuildSite organizes a flat slice of discovered pages (as produced by
// Discover) into a Site: a section tree keyed by directory path, with
// cascade metadata merged root-downward and every page indexed by its
// canonical key.
func BuildSite(pages []*Page, cfg *config.SiteConfig) *Site {
	site := NewSite(cfg)

	for _, p := range pages {
		dirPath := p.SourceDir
		sec := site.getOrCreateSection(dirPath)
		p.section = sec

		switch p.Type {
		case PageTypeHome:
			site.Root.IndexPage = p
			p.section = site.Root
			p.CanonicalKey = "/"
		case PageTypeList:
			sec.IndexPage = p
			p.CanonicalKey = dirPath + "/_index"
		default:
			sec.Pages = append(sec.Pages, p)
			p.CanonicalKey = p.SourcePath
		}
		site.byKey[p.CanonicalKey] = p
	}

	site.applyCascade(site.Root, nil)
	site.linkChronological()
	site.invalidateCaches()
	return site
}

// getOrCreateSection returns the Section for a slash-separated directory
// path, creating any missing intermediate sections along the way.
func (s *Site) getOrCreateSection(dirPath string) *Section {
	if dirPath == "" {
		return s.Root
	}
	if sec, ok := s.sections[dirPath]; ok {
		return sec
	}

	parentPath := ""
	if i := strings.LastIndex(dirPath, "/"); i >= 0 {
		parentPath = dirPath[:i]
	}
	parent := s.getOrCreateSection(parentPath)

	name := dirPath
	if i := strings.LastIndex(dirPath, "/"); i >= 0 {
		name = dirPath[i+1:]
	}

	sec := &Section{Name: name, Path: dirPath, Parent: parent, Title: titleFromName(name)}
	parent.Children = append(parent.Children, sec)
	s.sections[dirPath] = sec
	return sec
}

func titleFromName(name string) string {
	if name == "" {
		return ""
	}
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// applyCascade merges a section's own cascade (declared on its index page's
// front matter, under a "cascade" params key) with the cascade inherited
// from its parent, then propagates the merged result to every page and
// child section. Keys set directly on a page's own front matter always win
// over an inherited cascade value; among multiple root-level cascades
// declared at the same level, ties resolve by lexicographic source-path
// order (first path alphabetically wins).
func (s *Site) applyCascade(sec *Section, inherited map[string]any) {
	merged := mergeCascade(inherited, sectionCascade(sec))
	sec.Cascade = merged

	for _, p := range sec.Pages {
		applyCascadeToPage(p, merged)
	}
	if sec.IndexPage != nil {
		applyCascadeToPage(sec.IndexPage, merged)
	}

	sort.Slice(sec.Children, func(i, j int) bool { return sec.Children[i].Path < sec.Children[j].Path })
	for _, child := range sec.Children {
		s.applyCascade(child, merged)
	}
}

// sectionCascade collects every cascade block declared directly in this
// section (its index page plus any regular page in the section that sets
// a "cascade" params key — a project may cascade from more than one
// top-level page) and merges them. Declarers are visited in lexicographic
// source-path order, and a key already set by an earlier declarer is never
// overwritten, so ties between multiple cascade-declaring pages at the
// same level resolve to the alphabetically-first source path.
func sectionCascade(sec *Section) map[string]any {
	declarers := make([]*Page, 0, len(sec.Pages)+1)
	if sec.IndexPage != nil {
		declarers = append(declarers, sec.IndexPage)
	}
	declarers = append(declarers, sec.Pages...)
	sort.Slice(declarers, func(i, j int) bool { return declarers[i].SourcePath < declarers[j].SourcePath })

	var merged map[string]any
	for _, p := range declarers {
		if p.Params == nil {
			continue
		}
		raw, ok := p.Params["cascade"]
		if !ok {
			continue
		}
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(m))
		}
		for k, v := range m {
			if _, already := merged[k]; already {
				continue // alphabetically-earlier source path already declared this key
			}
			merged[k] = v
		}
	}
	return merged
}

func mergeCascade(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func applyCascadeToPage(p *Page, cascade map[string]any) {
	if len(cascade) == 0 {
		return
	}
	if p.Params == nil {
		p.Params = make(map[string]any)
	}
	for k, v := range cascade {
		if _, set := p.Params[k]; set {
			continue // page's own front matter wins
		}
		p.Params[k] = v
	}
}

// linkChronological sets the site-wide Next/Prev chain across every
// regular, non-draft single page, ordered newest to oldest, independent of
// section boundaries. It complements PrevInSection/NextInSection, which
// only ever link within one section.
func (s *Site) linkChronological() {
	var chron []*Page
	var walk func(sec *Section)
	walk = func(sec *Section) {
		for _, p := range sec.Pages {
			if p.Type == PageTypeSingle {
				chron = append(chron, p)
			}
		}
		for _, c := range sec.Children {
			walk(c)
		}
	}
	walk(s.Root)

	sort.SliceStable(chron, func(i, j int) bool { return chron[i].Date.After(chron[j].Date) })
	for i, p := range chron {
		if i > 0 {
			p.Next = chron[i-1] // newer page
		}
		if i < len(chron)-1 {
			p.Prev = chron[i+1] // older page
		}
	}
}

// invalidateCaches forces RegularPages/GeneratedPages to recompute on next
// access. Called after any structural mutation (adding generated pages,
// rebuilding a subtree after an incremental rebuild).
func (s *Site) invalidateCaches() {
	s.cacheValid = false
}

// RegularPages returns every non-generated page in the site, in tree order.
func (s *Site) RegularPages() []*Page {
	s.ensureCache()
	return s.regularCache
}

// GeneratedPages returns every virtual page (taxonomy, pagination, redirect
// alias) currently attached to the site.
func (s *Site) GeneratedPages() []*Page {
	s.ensureCache()
	return s.generatedCache
}

// AllPages returns regular and generated pages together.
func (s *Site) AllPages() []*Page {
	s.ensureCache()
	out := make([]*Page, 0, len(s.regularCache)+len(s.generatedCache))
	out = append(out, s.regularCache...)
	out = append(out, s.generatedCache...)
	return out
}

func (s *Site) ensureCache() {
	if s.cacheValid {
		return
	}
	s.regularCache = s.Root.AllPages()
	if s.Root.IndexPage != nil {
		s.regularCache = append([]*Page{s.Root.IndexPage}, s.regularCache...)
	}
	s.regularCache = append(s.regularCache, s.indexPages()...)
	s.cacheValid = true
}

func (s *Site) indexPages() []*Page {
	var out []*Page
	var walk func(sec *Section)
	walk = func(sec *Section) {
		for _, c := range sec.Children {
			if c.IndexPage != nil {
				out = append(out, c.IndexPage)
			}
			walk(c)
		}
	}
	walk(s.Root)
	return out
}

// AddGenerated registers a virtual page (taxonomy term, pagination page,
// alias redirect) produced outside of discovery. Generated pages are
// disposable: they are recomputed on every build and are never persisted to
// the cache's parsed_content table.
func (s *Site) AddGenerated(p *Page) {
	p.Generated = true
	if p.section == nil {
		p.section = s.Root
	}
	s.generatedCache = append(s.generatedCache, p)
	s.byKey[p.CanonicalKey] = p
	s.invalidateCaches()
}

// Lookup resolves a canonical key (a content-relative source path for real
// pages, or a "virtual:" prefixed key for generated pages) to its Page.
func (s *Site) Lookup(key string) (*Page, bool) {
	p, ok := s.byKey[key]
	return p, ok
}

// Section looks up a section by its slash-separated directory path.
func (s *Site) Section(path string) (*Section, bool) {
	sec, ok := s.sections[path]
	return sec, ok
}

// ResolveXRef resolves a [[target]] cross-reference key to a page's URL
// and title. target may be a canonical key (source path) or a bare slug;
// a bare slug matches any indexed page whose Slug equals it.
func (s *Site) ResolveXRef(target string) (url, title string, ok bool) {
	if p, found := s.Lookup(target); found {
		return p.URL, p.Title, true
	}
	for _, p := range s.byKey {
		if p.Slug == target {
			return p.URL, p.Title, true
		}
	}
	return "", "", false
}
