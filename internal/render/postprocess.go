package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// crossRefRe matches a cross-reference marker like [[posts/hello-world]] or
// [[posts/hello-world|Custom Title]]. The resolver looks the target up by
// canonical key; an unresolved reference is left in place wrapped in a
// "broken-ref" span rather than failing the build, per the non-fatal
// CrossReferenceBroken error class.
var crossRefRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)

// XRefResolver looks up a cross-reference target by canonical key and
// returns its URL and title.
type XRefResolver func(key string) (url, title string, ok bool)

// ResolveCrossReferences rewrites every [[target]] / [[target|label]]
// marker in html into an <a> tag, recording each successfully resolved
// target key so the caller can add it to the page's dependency edges. A
// reference that does not resolve is left as a visible marker,
// <span class="broken-ref">[target]</span>, so broken links are easy to
// spot in preview, and is reported back via the broken slice so the
// caller can emit a CrossReferenceBroken warning (and fail the build in
// --strict mode).
func ResolveCrossReferences(html []byte, resolve XRefResolver) (out []byte, resolved []string, broken []string) {
	out = crossRefRe.ReplaceAllFunc(html, func(match []byte) []byte {
		groups := crossRefRe.FindSubmatch(match)
		key := string(groups[1])
		label := string(groups[2])

		url, title, ok := resolve(key)
		if !ok {
			broken = append(broken, key)
			return []byte(fmt.Sprintf(`<span class="broken-ref">[%s]</span>`, key))
		}
		resolved = append(resolved, key)
		if label == "" {
			label = title
		}
		return []byte(fmt.Sprintf(`<a href="%s">%s</a>`, url, label))
	})
	return out, resolved, broken
}

// ContentHashMetaTag computes a hash of rendered page output and returns an
// HTML meta tag recording it: the dev server reads this tag back out of the
// previous build's output to decide whether a page's visible content
// actually changed.
func ContentHashMetaTag(html []byte) (tag string, hash string) {
	sum := sha256.Sum256(html)
	hash = hex.EncodeToString(sum[:])[:16]
	tag = fmt.Sprintf(`<meta name="bengal:content-hash" content="%s">`, hash)
	return tag, hash
}

// InjectContentHash inserts the content-hash meta tag just before </head>,
// falling back to prepending it when no <head> tag is present (e.g. a
// fragment rendered outside the base layout).
func InjectContentHash(html []byte) []byte {
	tag, _ := ContentHashMetaTag(html)
	marker := []byte("</head>")
	idx := bytes.Index(html, marker)
	if idx == -1 {
		return append([]byte(tag), html...)
	}
	out := make([]byte, 0, len(html)+len(tag))
	out = append(out, html[:idx]...)
	out = append(out, []byte(tag)...)
	out = append(out, html[idx:]...)
	return out
}
