// Package build orchestrates the full static site generation pipeline.
// It coordinates content discovery, markdown rendering, template execution,
// and file output to produce a complete static site.
package build

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lbliii/bengal/internal/cache"
	"github.com/lbliii/bengal/internal/config"
	"github.com/lbliii/bengal/internal/contentmodel"
	"github.com/lbliii/bengal/internal/feed"
	"github.com/lbliii/bengal/internal/render"
	"github.com/lbliii/bengal/internal/search"
	"github.com/lbliii/bengal/internal/seo"
	tmpl "github.com/lbliii/bengal/internal/template"
)

// BuildOptions controls the behaviour of the build pipeline.
type BuildOptions struct {
	IncludeDrafts  bool
	IncludeFuture  bool
	IncludeExpired bool
	OutputDir      string
	Verbose        bool
	Minify         bool
	BaseURL        string
	ProjectRoot    string

	// Incremental enables the cache-backed incremental build path. When
	// false, every page is parsed and rendered regardless of what changed
	// since the last build.
	Incremental bool
	// Explain, when set alongside Incremental, records a RebuildManifest
	// on the returned BuildResult describing which pages were rebuilt
	// and why.
	Explain bool

	// Strict turns non-fatal per-item warnings (CrossReferenceBroken
	// today) into a failed build: the output tree is still written in
	// full, but Build returns a non-nil error so the caller exits
	// non-zero.
	Strict bool
}

// BuildResult contains statistics about the completed build.
type BuildResult struct {
	PagesRendered  int
	FilesWritten   int
	FilesCopied    int
	StaticFiles    int
	Duration       time.Duration
	OutputSize     int64
	Pages          []string // URL paths of all rendered pages
	Phases         []PhaseStats
	Manifest       *cache.Manifest // nil unless BuildOptions.Explain was set

	// Warnings collects the non-fatal, per-item diagnostics produced
	// during the build (broken cross-references today; the same list a
	// future asset-processing warning would append to), per the error
	// taxonomy's "per-item errors collected in a typed list" policy.
	Warnings []Warning
}

// Warning is one non-fatal diagnostic raised during a build: a broken
// cross-reference, an asset that fell back to an unprocessed copy, or
// similar. Kind matches one of the error taxonomy's non-fatal classes
// (e.g. "CrossReferenceBroken", "AssetProcessingError").
type Warning struct {
	Kind    string
	PageKey string
	Message string
}

// PhaseStats records the wall-clock duration of one named build phase, used
// by --verbose and by the dev server's diagnostic stream.
type PhaseStats struct {
	Name     string
	Duration time.Duration
}

// Builder coordinates the full static site generation pipeline.
type Builder struct {
	config  *config.SiteConfig
	options BuildOptions

	cache       *cache.Cache
	graph       *cache.DependencyGraph
	coordinator *cache.Coordinator
	site        *contentmodel.Site
	phases      []PhaseStats
}

// NewBuilder creates a new Builder with the given site configuration and options.
func NewBuilder(cfg *config.SiteConfig, opts BuildOptions) *Builder {
	return &Builder{
		config:  cfg,
		options: opts,
	}
}

// phase times a build phase and records it on b.phases. Mirrors the
// teacher's step-numbered comments with an actual measurement the caller
// can act on (--verbose output, BuildResult.Phases).
func (b *Builder) phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	b.phases = append(b.phases, PhaseStats{Name: name, Duration: time.Since(start)})
	return err
}

// cachePath returns the location of the persisted BuildCache under the
// project's .bengal directory.
func cachePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".bengal", "cache", "buildcache.db")
}

// Build executes the full build pipeline and returns a BuildResult summarizing
// what was generated. The pipeline steps are:
//  1. Clean or create the output directory
//  2. Discover content files
//  3. Filter pages (drafts, future, expired)
//  4. Render markdown in parallel
//  5. Build taxonomy maps
//  6. Sort pages and set navigation links
//  7. Create template engine
//  8. Render pages to HTML in parallel
//  9. Write HTML files
//  10. Copy static files
//  11. Build Tailwind CSS
//  12. Copy page bundle assets
func (b *Builder) Build() (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}

	projectRoot := b.options.ProjectRoot
	if projectRoot == "" {
		var err error
		projectRoot, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining project root: %w", err)
		}
	}

	// Determine output directory.
	outputDir := b.options.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(projectRoot, "public")
	}
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(projectRoot, outputDir)
	}

	// Determine content directory.
	contentDir := filepath.Join(projectRoot, "content")

	// Determine base URL.
	baseURL := b.options.BaseURL
	if baseURL == "" {
		baseURL = b.config.BaseURL
	}

	// Open the incremental build cache. A missing or unreadable cache
	// degrades silently to an empty one (cache.Open never errors), which
	// makes this build a full build regardless of b.options.Incremental.
	buildCache, err := cache.Open(cachePath(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("opening build cache: %w", err)
	}
	defer buildCache.Close()
	b.cache = buildCache
	b.graph = cache.NewDependencyGraph()
	if snap, err := buildCache.LoadDependencyGraph(); err == nil {
		b.graph.Load(snap)
	}
	b.coordinator = cache.NewCoordinator(buildCache, b.graph)

	// Step 1: Clean output directory. Incremental builds never clean —
	// clearing the output tree would defeat the point of skipping work.
	if !b.options.Incremental {
		if err := b.phase("clean", func() error { return CleanDir(outputDir) }); err != nil {
			return nil, fmt.Errorf("cleaning output directory: %w", err)
		}
	}

	// Step 2: Discover contentmodel.
	var pages []*contentmodel.Page
	err = b.phase("discover", func() error {
		var derr error
		pages, derr = contentmodel.Discover(contentDir, b.config)
		return derr
	})
	if err != nil {
		return nil, fmt.Errorf("discovering content: %w", err)
	}

	// Set absolute permalinks.
	for _, p := range pages {
		p.Permalink = strings.TrimRight(baseURL, "/") + p.URL
	}

	// Load data files from data/ directory.
	dataDir := filepath.Join(projectRoot, "data")
	dataFiles, err := contentmodel.LoadDataFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading data files: %w", err)
	}

	// Step 3: Filter pages based on options.
	if !b.options.IncludeDrafts {
		pages = contentmodel.FilterDrafts(pages)
	}
	if !b.options.IncludeFuture {
		pages = contentmodel.FilterFuture(pages)
	}
	if !b.options.IncludeExpired {
		pages = contentmodel.FilterExpired(pages)
	}

	// Inject a virtual home page if none was discovered (i.e., no content/_index.md).
	// This ensures public/index.html is always generated.
	if !hasHomePage(pages) {
		pages = append(pages, &contentmodel.Page{
			Type:      contentmodel.PageTypeHome,
			URL:       "/",
			Generated: true,
		})
	}

	// Organize the flat discovered pages into a section tree: assigns each
	// page its canonical cache key, merges front-matter cascades
	// root-downward, and links the site-wide chronological Prev/Next
	// chain. The rest of the pipeline still iterates the flat pages
	// slice (appending taxonomy/alias pages as it generates them), but
	// every page's Parent/Ancestors/Kind and cascade-derived Params flow
	// from this Site for the remainder of the build.
	site := contentmodel.BuildSite(pages, b.config)
	b.site = site

	// Step 3b: Classify changes and compute the incremental rebuild set.
	// A cold cache, a non-incremental build, or a detected template/data
	// change all fall back to treating every page as changed.
	rebuildSet, manifestEntries, forcedFull, forcedReason := b.classifyChanges(pages, contentDir, projectRoot, outputDir)

	// Step 4: Render markdown in parallel, reusing the cached parse for any
	// page whose source is unchanged and absent from rebuildSet.
	mdRenderer := contentmodel.NewMarkdownRenderer()
	numWorkers := runtime.NumCPU()

	err = b.phase("parse", func() error {
		return renderParallel(pages, numWorkers, func(p *contentmodel.Page) error {
			sourceHash := fmt.Sprintf("%x", cache.HashBytes([]byte(p.RawContent)))

			if b.options.Incremental && !rebuildSet[p.CanonicalKey] && !p.Generated {
				if cached, ok := b.cache.ParsedContent(p.CanonicalKey); ok && cached.SourceHash == sourceHash {
					p.Content = cached.HTML
					p.TableOfContents = cached.TOC
					return nil
				}
			}

			htmlContent, tocHTML, err := mdRenderer.RenderWithTOC([]byte(p.RawContent))
			if err != nil {
				return fmt.Errorf("rendering markdown for %s: %w", p.SourcePath, err)
			}
			p.Content = string(htmlContent)
			p.TableOfContents = string(tocHTML)

			if !p.Generated {
				_ = b.cache.SetParsedContent(p.CanonicalKey, cache.ParsedContent{
					HTML:       p.Content,
					TOC:        p.TableOfContents,
					SourceHash: sourceHash,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	if b.options.Explain {
		if forcedFull {
			result.Manifest = cache.NewFullManifest(forcedReason)
		} else {
			result.Manifest = cache.NewManifest(manifestEntries)
		}
	}

	// Step 4b: Generate summaries, word counts, and reading times.
	for _, p := range pages {
		// Calculate word count and reading time from plain text contentmodel.
		plainText := contentmodel.StripHTMLTags(p.Content)
		p.WordCount = contentmodel.CalculateWordCount(plainText)
		p.ReadingTime = contentmodel.CalculateReadingTime(plainText)

		// Generate summary if not already set from frontmatter.
		if p.Summary == "" {
			p.Summary = contentmodel.GenerateSummary(p.RawContent, p.Content, 300)
		}
	}

	// Step 5: Build taxonomy maps.
	tags, categories := buildTaxonomyMaps(pages)

	// Attach each project page's associated posts so templates can render
	// a "posts about this project" list without re-scanning all pages.
	projectPosts := buildProjectPostMap(pages)
	for slug, page := range buildProjectPageIndex(pages) {
		if posts, ok := projectPosts[slug]; ok {
			if page.Params == nil {
				page.Params = make(map[string]any)
			}
			page.Params["posts"] = posts
		}
	}

	// Step 5b: Generate taxonomy virtual pages.
	if b.config.Taxonomies != nil {
		taxonomies := contentmodel.BuildTaxonomies(pages, b.config.Taxonomies)
		taxPages := contentmodel.GenerateTaxonomyPages(taxonomies)
		// Set permalinks on taxonomy pages and register them with the site
		// so they're reachable through Site.Lookup/ResolveXRef like any
		// discovered page.
		for _, tp := range taxPages {
			tp.Permalink = strings.TrimRight(baseURL, "/") + tp.URL
			b.site.AddGenerated(tp)
		}
		pages = append(pages, taxPages...)
	}

	// Step 6: Sort pages by date (newest first) and set prev/next links.
	contentmodel.SortByDate(pages, false)
	setSectionNavigation(pages)

	// Step 7: Create template engine.
	themeName := b.config.Theme
	if themeName == "" {
		themeName = "default"
	}
	themePath := filepath.Join(projectRoot, "themes", themeName)
	userLayoutPath := filepath.Join(projectRoot, "layouts")

	engine, err := tmpl.NewEngine(themePath, userLayoutPath)
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	// Build site context for templates.
	siteCtx := b.buildSiteContext(pages, tags, categories, baseURL, dataFiles)

	// Build page contexts for all pages.
	pageContextMap := b.buildPageContexts(pages, siteCtx)

	// Step 8 & 9: Render pages to HTML in parallel, postprocess (resolve
	// [[cross-references]], inject the content-hash meta tag the dev-server
	// reload controller reads back) and collect results.
	type renderResult struct {
		key  string
		url  string
		data []byte
	}
	var mu sync.Mutex
	var results []renderResult
	var warnings []Warning

	xrefResolve := render.XRefResolver(func(key string) (string, string, bool) {
		return b.site.ResolveXRef(key)
	})

	err = renderParallel(pages, numWorkers, func(p *contentmodel.Page) error {
		ctx := pageContextMap[p]
		if ctx == nil {
			return fmt.Errorf("no context for page %s", p.SourcePath)
		}

		// Resolve template.
		templateName := engine.Resolve(p.Type.String(), p.Section, p.Layout)
		if templateName == "" {
			// Use a fallback: wrap content in baseof if available, or output raw contentmodel.
			templateName = engine.Resolve("single", "_default", "")
			if templateName == "" {
				// No template found at all, use raw rendered contentmodel.
				mu.Lock()
				results = append(results, renderResult{key: p.CanonicalKey, url: p.URL, data: []byte(p.Content)})
				mu.Unlock()
				return nil
			}
		}

		rendered, err := engine.Execute(templateName, ctx)
		if err != nil {
			return fmt.Errorf("executing template %s for %s: %w", templateName, p.SourcePath, err)
		}

		rendered, _, broken := render.ResolveCrossReferences(rendered, xrefResolve)
		rendered = render.InjectContentHash(rendered)

		mu.Lock()
		results = append(results, renderResult{key: p.CanonicalKey, url: p.URL, data: rendered})
		for _, target := range broken {
			warnings = append(warnings, Warning{
				Kind:    "CrossReferenceBroken",
				PageKey: p.CanonicalKey,
				Message: fmt.Sprintf("broken cross-reference [[%s]] in %s", target, p.SourcePath),
			})
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rendering pages: %w", err)
	}
	result.Warnings = warnings

	// Step 10: Write HTML files.
	for _, r := range results {
		if err := WriteFile(outputDir, r.url, r.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", r.url, err)
		}
		result.FilesWritten++
		result.Pages = append(result.Pages, r.url)
		if r.key != "" {
			_, hash := render.ContentHashMetaTag(r.data)
			_ = b.cache.SetRenderedOutput(r.key, r.url, hash)
		}
	}
	result.PagesRendered = len(results)

	// Step 10b: Generate 404.html using theme template if available.
	notFoundTemplate := engine.Resolve("404", "", "")
	if notFoundTemplate != "" {
		notFoundCtx := &tmpl.PageContext{
			Title: "Page Not Found",
			Site:  siteCtx,
		}
		rendered404, err := engine.Execute(notFoundTemplate, notFoundCtx)
		if err != nil {
			return nil, fmt.Errorf("rendering 404 page: %w", err)
		}
		if err := WriteFile(outputDir, "/404.html", rendered404); err != nil {
			return nil, fmt.Errorf("writing 404.html: %w", err)
		}
		result.FilesWritten++
	}

	// Step 11: Copy static files from theme and site static directories.
	themeStaticDir := filepath.Join(themePath, "static")
	siteStaticDir := filepath.Join(projectRoot, "static")

	if info, err := os.Stat(themeStaticDir); err == nil && info.IsDir() {
		copied, err := copyDirCounting(themeStaticDir, outputDir)
		if err != nil {
			return nil, fmt.Errorf("copying theme static files: %w", err)
		}
		result.FilesCopied += copied
	}

	if info, err := os.Stat(siteStaticDir); err == nil && info.IsDir() {
		copied, err := copyDirCounting(siteStaticDir, outputDir)
		if err != nil {
			return nil, fmt.Errorf("copying site static files: %w", err)
		}
		result.FilesCopied += copied
	}

	// Step 11: Build Tailwind CSS.
	cssInput := filepath.Join(themePath, "static", "css", "globals.css")
	if _, err := os.Stat(cssInput); err == nil {
		cssOutput := filepath.Join(outputDir, "css", "style.css")
		contentPaths := []string{
			filepath.Join(themePath, "layouts", "**", "*.html"),
			filepath.Join(projectRoot, "layouts", "**", "*.html"),
			filepath.Join(contentDir, "**", "*.md"),
		}
		tb := &TailwindBuilder{}
		twConfig := filepath.Join(themePath, "tailwind.config.js")
		if _, err := os.Stat(twConfig); err == nil {
			tb.ConfigPath = twConfig
		}
		if _, binErr := tb.EnsureBinary(TailwindVersion); binErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not download Tailwind CSS binary: %v (skipping CSS compilation)\n", binErr)
		} else {
			if err := os.MkdirAll(filepath.Dir(cssOutput), 0o755); err != nil {
				return nil, fmt.Errorf("creating CSS output directory: %w", err)
			}
			if err := tb.Build(cssInput, cssOutput, contentPaths); err != nil {
				return nil, fmt.Errorf("building Tailwind CSS: %w", err)
			}
			result.StaticFiles++
		}
	}

	// Step 12: Copy page bundle assets.
	for _, p := range pages {
		if !p.IsBundle || len(p.BundleFiles) == 0 {
			continue
		}
		// Determine output directory for this page's assets.
		pageOutputDir := filepath.Join(outputDir, strings.TrimPrefix(p.URL, "/"))
		for _, assetName := range p.BundleFiles {
			src := filepath.Join(p.BundleDir, assetName)
			dst := filepath.Join(pageOutputDir, assetName)
			if err := CopyFile(src, dst); err != nil {
				return nil, fmt.Errorf("copying bundle asset %s: %w", src, err)
			}
			result.FilesCopied++
		}
	}

	// Step 13: Generate ancillary files (sitemap, robots, feeds, search index, aliases).

	// Collect non-draft pages for sitemap and search.
	var nonDraftPages []*contentmodel.Page
	for _, p := range pages {
		if !p.Draft {
			nonDraftPages = append(nonDraftPages, p)
		}
	}

	// Generate sitemap.xml.
	sitemapEntries := make([]seo.SitemapEntry, 0, len(nonDraftPages))
	for _, p := range nonDraftPages {
		sitemapEntries = append(sitemapEntries, seo.SitemapEntry{
			URL:     p.Permalink,
			Lastmod: p.Lastmod,
		})
	}
	sitemapData, err := seo.GenerateSitemap(sitemapEntries)
	if err != nil {
		return nil, fmt.Errorf("generating sitemap: %w", err)
	}
	if err := writeDirectFile(outputDir, "sitemap.xml", sitemapData); err != nil {
		return nil, fmt.Errorf("writing sitemap.xml: %w", err)
	}
	result.StaticFiles++

	// Generate robots.txt.
	sitemapURL := strings.TrimRight(baseURL, "/") + "/sitemap.xml"
	robotsData := seo.GenerateRobotsTxt(sitemapURL)
	if err := writeDirectFile(outputDir, "robots.txt", robotsData); err != nil {
		return nil, fmt.Errorf("writing robots.txt: %w", err)
	}
	result.StaticFiles++

	// Collect blog posts for feeds (non-draft, section == "blog" or configured sections, sorted by date desc).
	feedSections := b.config.Feeds.Sections
	if len(feedSections) == 0 {
		feedSections = []string{"blog"}
	}
	var feedPages []*contentmodel.Page
	for _, p := range nonDraftPages {
		if slices.Contains(feedSections, p.Section) {
			feedPages = append(feedPages, p)
		}
	}
	sort.SliceStable(feedPages, func(i, j int) bool {
		return feedPages[i].Date.After(feedPages[j].Date)
	})

	// Convert pages to FeedItems.
	feedItems := make([]feed.FeedItem, 0, len(feedPages))
	for _, p := range feedPages {
		feedItems = append(feedItems, feed.FeedItem{
			Title:       p.Title,
			Link:        p.Permalink,
			Description: p.Summary,
			Content:     p.Content,
			Author:      p.Author,
			PubDate:     p.Date,
			GUID:        p.Permalink,
			Categories:  append(p.Tags, p.Categories...),
		})
	}

	feedOpts := feed.FeedOptions{
		Title:       b.config.Title,
		Description: b.config.Description,
		Link:        strings.TrimRight(baseURL, "/"),
		Language:    b.config.Language,
		Author:      b.config.Author.Name,
		MaxItems:    b.config.Feeds.Limit,
		FullContent: b.config.Feeds.FullContent,
	}

	// Generate RSS feed (index.xml).
	if b.config.Feeds.RSS {
		feedOpts.FeedLink = strings.TrimRight(baseURL, "/") + "/index.xml"
		rssData, err := feed.GenerateRSS(feedItems, feedOpts)
		if err != nil {
			return nil, fmt.Errorf("generating RSS feed: %w", err)
		}
		if err := writeDirectFile(outputDir, "index.xml", rssData); err != nil {
			return nil, fmt.Errorf("writing index.xml: %w", err)
		}
		result.StaticFiles++
	}

	// Generate Atom feed (atom.xml).
	if b.config.Feeds.Atom {
		feedOpts.FeedLink = strings.TrimRight(baseURL, "/") + "/atom.xml"
		atomData, err := feed.GenerateAtom(feedItems, feedOpts)
		if err != nil {
			return nil, fmt.Errorf("generating Atom feed: %w", err)
		}
		if err := writeDirectFile(outputDir, "atom.xml", atomData); err != nil {
			return nil, fmt.Errorf("writing atom.xml: %w", err)
		}
		result.StaticFiles++
	}

	// Generate search index (search-index.json).
	if b.config.Search.Enabled {
		maxContentLen := b.config.Search.ContentLength
		if maxContentLen <= 0 {
			maxContentLen = 5000
		}
		indexEntries := make([]search.IndexEntry, 0, len(nonDraftPages))
		for _, p := range nonDraftPages {
			strippedContent := search.StripHTML(p.Content)
			indexEntries = append(indexEntries, search.IndexEntry{
				Title:      p.Title,
				URL:        p.URL,
				Tags:       p.Tags,
				Categories: p.Categories,
				Summary:    contentmodel.StripHTMLTags(p.Summary),
				Content:    strippedContent,
			})
		}
		searchData, err := search.GenerateIndex(indexEntries, maxContentLen)
		if err != nil {
			return nil, fmt.Errorf("generating search index: %w", err)
		}
		if err := writeDirectFile(outputDir, "search-index.json", searchData); err != nil {
			return nil, fmt.Errorf("writing search-index.json: %w", err)
		}
		result.StaticFiles++
	}

	// Generate alias redirect pages.
	var aliases []AliasPage
	for _, p := range pages {
		for _, alias := range p.Aliases {
			aliases = append(aliases, AliasPage{
				AliasURL:     alias,
				CanonicalURL: p.URL,
			})
		}
	}
	if len(aliases) > 0 {
		aliasFiles := GenerateAliasPages(aliases)
		for filePath, htmlData := range aliasFiles {
			fullPath := filepath.Join(outputDir, filePath)
			dir := filepath.Dir(fullPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating alias directory %s: %w", dir, err)
			}
			if err := os.WriteFile(fullPath, htmlData, 0o644); err != nil {
				return nil, fmt.Errorf("writing alias file %s: %w", fullPath, err)
			}
			result.StaticFiles++
		}
	}

	// Calculate output size.
	size, err := DirSize(outputDir)
	if err != nil {
		return nil, fmt.Errorf("calculating output size: %w", err)
	}
	result.OutputSize = size
	result.Duration = time.Since(start)
	result.Phases = b.phases

	// Persist the dependency graph for the next incremental build. Every
	// regular page depends on the template/data sentinel keys so that a
	// future template or data-file change correctly pulls it back in.
	for _, p := range pages {
		if p.Generated {
			continue
		}
		b.graph.SetDependencies(p.CanonicalKey, []string{"__templates__", "__data__"})
	}
	if err := b.cache.SaveDependencyGraph(b.graph.Snapshot()); err != nil {
		return nil, fmt.Errorf("saving dependency graph: %w", err)
	}

	if b.options.Strict && len(result.Warnings) > 0 {
		return result, fmt.Errorf("strict mode: %d warning(s) during build (first: %s)",
			len(result.Warnings), result.Warnings[0].Message)
	}

	return result, nil
}

// classifyChanges fingerprints every regular page's source file against the
// cache, expands the changed set through the dependency graph, and decides
// whether the build can proceed incrementally or must fall back to a full
// rebuild (cold cache, non-incremental build, or a changed template/data
// file, which the provenance filter cannot narrow down without per-template
// tracking). It returns the set of page keys that must be reparsed, the
// manifest entries backing --explain, and the forced-full-build reason (if
// any).
func (b *Builder) classifyChanges(pages []*contentmodel.Page, contentDir, projectRoot, outputDir string) (map[string]bool, []cache.RebuildEntry, bool, string) {
	rebuild := make(map[string]bool)

	if !b.options.Incremental {
		b.coordinator.InvalidateAll()
		for _, p := range pages {
			rebuild[p.CanonicalKey] = true
		}
		return rebuild, nil, true, "incremental_disabled"
	}

	templatesHash, dataHash := directoryHash(filepath.Join(projectRoot, "layouts")), directoryHash(filepath.Join(projectRoot, "data"))
	prevTemplates, haveTemplates := b.cache.FileFingerprint("__templates__")
	prevData, haveData := b.cache.FileFingerprint("__data__")

	_ = b.cache.SetFileFingerprint("__templates__", cache.Fingerprint{Hash: templatesHash})
	_ = b.cache.SetFileFingerprint("__data__", cache.Fingerprint{Hash: dataHash})

	if !haveTemplates || !haveData || prevTemplates.Hash != templatesHash || prevData.Hash != dataHash {
		b.coordinator.InvalidateAll()
		for _, p := range pages {
			rebuild[p.CanonicalKey] = true
		}
		return rebuild, nil, true, "template_or_data_changed"
	}

	// classifyChanges never pokes the cache layers directly: every
	// fingerprint delta and every rebuild decision it makes is applied
	// through b.coordinator, so InvalidatePage's atomic three-layer clear
	// (parsed_content, rendered_output, file_fingerprints) is the only way
	// a page's cached state changes between builds.
	var changes []cache.Change
	for _, p := range pages {
		if p.Generated || p.SourcePath == "" {
			continue
		}
		sourceFile := filepath.Join(contentDir, filepath.FromSlash(p.SourcePath))
		fp, err := cache.FingerprintFile(sourceFile)
		if err != nil {
			rebuild[p.CanonicalKey] = true
			b.coordinator.InvalidatePage(p.CanonicalKey, cache.ReasonDirect, "")
			continue
		}
		prev, ok := b.cache.FileFingerprint(p.CanonicalKey)
		changed := !ok || prev.Changed(fp)
		if changed {
			changes = append(changes, cache.Change{Key: p.CanonicalKey, Kind: cache.ContentChanged})
			b.coordinator.InvalidatePage(p.CanonicalKey, cache.ReasonDirect, "")
		}
		b.coordinator.RecordFingerprint(p.CanonicalKey, fp)

		// Property 7: a page whose rendered output was recorded but whose
		// output file is now missing must be rebuilt even if its source
		// fingerprint is unchanged (e.g. the public/ dir was partially
		// cleaned out from under an incremental build).
		if !changed {
			if outPath, _, ok := b.cache.RenderedOutput(p.CanonicalKey); ok {
				if _, statErr := os.Stat(filepath.Join(outputDir, filepath.FromSlash(outPath))); os.IsNotExist(statErr) {
					rebuild[p.CanonicalKey] = true
					b.coordinator.InvalidatePage(p.CanonicalKey, cache.ReasonOutputMissing, "")
				}
			}
		}
	}

	entries := cache.NewClassifier(b.graph).Expand(changes)
	for _, e := range entries {
		rebuild[e.PageKey] = true
		if e.Reason != cache.ReasonDirect {
			b.coordinator.InvalidatePage(e.PageKey, e.Reason, e.Via)
		}
	}
	// Generated pages (taxonomy/pagination/aliases) are always recomputed.
	for _, p := range pages {
		if p.Generated {
			rebuild[p.CanonicalKey] = true
		}
	}
	return rebuild, entries, false, ""
}

// directoryHash returns a content hash over every file under dir, used as a
// cheap all-or-nothing change signal for templates and data files until
// they get their own per-file dependency tracking.
func directoryHash(dir string) uint64 {
	h := uint64(0)
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		h ^= cache.HashBytes(append([]byte(path), data...))
		return nil
	})
	return h
}

// writeDirectFile writes data to a named file directly in the output directory.
func writeDirectFile(outputDir, filename string, data []byte) error {
	filePath := filepath.Join(outputDir, filename)
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return os.WriteFile(filePath, data, 0o644)
}

// copyDirCounting copies a directory and returns the number of files copied.
func copyDirCounting(src, dst string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(dstPath, 0o755)
		}

		if err := CopyFile(path, dstPath); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// buildSiteContext creates a SiteContext for template rendering.
func (b *Builder) buildSiteContext(
	pages []*contentmodel.Page,
	tags map[string][]*contentmodel.Page,
	categories map[string][]*contentmodel.Page,
	baseURL string,
	dataFiles map[string]any,
) *tmpl.SiteContext {
	// Build menu items.
	menuItems := make([]tmpl.MenuItemContext, len(b.config.Menu.Main))
	for i, item := range b.config.Menu.Main {
		menuItems[i] = tmpl.MenuItemContext{
			Name:   item.Name,
			URL:    item.URL,
			Weight: item.Weight,
		}
	}

	// Build section map.
	sections := make(map[string][]*tmpl.PageContext)

	// Build page contexts for site.
	sitePages := make([]*tmpl.PageContext, 0, len(pages))
	for _, p := range pages {
		pc := pageToContext(p, nil) // site will be set after
		sitePages = append(sitePages, pc)
		if p.Section != "" {
			sections[p.Section] = append(sections[p.Section], pc)
		}
	}

	// Build taxonomy contexts.
	taxonomies := make(map[string]map[string][]*tmpl.PageContext)
	if len(tags) > 0 {
		tagMap := make(map[string][]*tmpl.PageContext)
		for term, tagPages := range tags {
			for _, tp := range tagPages {
				tagMap[term] = append(tagMap[term], pageToContext(tp, nil))
			}
		}
		taxonomies["tags"] = tagMap
	}
	if len(categories) > 0 {
		catMap := make(map[string][]*tmpl.PageContext)
		for term, catPages := range categories {
			for _, cp := range catPages {
				catMap[term] = append(catMap[term], pageToContext(cp, nil))
			}
		}
		taxonomies["categories"] = catMap
	}

	return &tmpl.SiteContext{
		Title:       b.config.Title,
		Description: b.config.Description,
		BaseURL:     baseURL,
		Language:    b.config.Language,
		Author: tmpl.AuthorContext{
			Name:   b.config.Author.Name,
			Email:  b.config.Author.Email,
			Bio:    b.config.Author.Bio,
			Avatar: b.config.Author.Avatar,
			Social: tmpl.SocialContext{
				GitHub:   b.config.Author.Social.GitHub,
				LinkedIn: b.config.Author.Social.LinkedIn,
				Twitter:  b.config.Author.Social.Twitter,
				Mastodon: b.config.Author.Social.Mastodon,
				Email:    b.config.Author.Social.Email,
			},
		},
		Menu:       menuItems,
		Params:     b.config.Params,
		Data:       dataFiles,
		Pages:      sitePages,
		Sections:   sections,
		Taxonomies: taxonomies,
		BuildDate:  time.Now(),
	}
}

// buildPageContexts creates a map from Page to PageContext for all pages.
func (b *Builder) buildPageContexts(pages []*contentmodel.Page, siteCtx *tmpl.SiteContext) map[*contentmodel.Page]*tmpl.PageContext {
	m := make(map[*contentmodel.Page]*tmpl.PageContext, len(pages))
	for _, p := range pages {
		ctx := pageToContext(p, siteCtx)
		m[p] = ctx
	}

	// Wire up section-scoped and site-wide navigation on page contexts.
	for _, p := range pages {
		ctx := m[p]
		if p.PrevInSection != nil {
			if prevCtx, ok := m[p.PrevInSection]; ok {
				ctx.PrevInSection = prevCtx
			}
		}
		if p.NextInSection != nil {
			if nextCtx, ok := m[p.NextInSection]; ok {
				ctx.NextInSection = nextCtx
			}
		}
		if p.Prev != nil {
			if prevCtx, ok := m[p.Prev]; ok {
				ctx.Prev = prevCtx
			}
		}
		if p.Next != nil {
			if nextCtx, ok := m[p.Next]; ok {
				ctx.Next = nextCtx
			}
		}
	}
	return m
}

// hasHomePage reports whether any page in the slice has PageTypeHome.
func hasHomePage(pages []*contentmodel.Page) bool {
	for _, p := range pages {
		if p.Type == contentmodel.PageTypeHome {
			return true
		}
	}
	return false
}

// pageToContext converts a contentmodel.Page to a template.PageContext.
func pageToContext(p *contentmodel.Page, siteCtx *tmpl.SiteContext) *tmpl.PageContext {
	ctx := &tmpl.PageContext{
		Title:           p.Title,
		Description:     p.Description,
		Content:         template.HTML(p.Content),
		Summary:         template.HTML(p.Summary),
		Date:            p.Date,
		Lastmod:         p.Lastmod,
		Draft:           p.Draft,
		Slug:            p.Slug,
		URL:             p.URL,
		Permalink:       p.Permalink,
		ReadingTime:     p.ReadingTime,
		WordCount:       p.WordCount,
		Tags:            p.Tags,
		Categories:      p.Categories,
		Series:          p.Series,
		Params:          p.Params,
		TableOfContents: template.HTML(p.TableOfContents),
		Section:         p.Section,
		Type:            p.Type.String(),
		Kind:            p.Kind(),
		Site:            siteCtx,
	}

	if p.Cover != nil {
		ctx.Cover = &tmpl.CoverImage{
			Image:   p.Cover.Image,
			Alt:     p.Cover.Alt,
			Caption: p.Cover.Caption,
		}
	}

	for _, anc := range p.Ancestors() {
		ctx.Ancestors = append(ctx.Ancestors, tmpl.Breadcrumb{Title: anc.Title, URL: anc.Path})
	}

	return ctx
}
