package flow

import (
	"regexp"
	"sort"
	"strings"
)

var (
	wikiImagePattern     = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
)

type imageRef struct {
	start, end int
	raw        string
	target     string
	alt        string
}

func (r imageRef) image() *Image {
	return &Image{Ref: r.raw, Target: r.target, Alt: r.alt}
}

// findImageRefs returns the image references of a line in order of appearance.
func findImageRefs(line string) []imageRef {
	var refs []imageRef
	for _, m := range wikiImagePattern.FindAllStringSubmatchIndex(line, -1) {
		ref := imageRef{start: m[0], end: m[1], raw: line[m[0]:m[1]]}
		ref.target = strings.TrimSpace(line[m[2]:m[3]])
		if m[4] >= 0 {
			ref.alt = strings.TrimSpace(line[m[4]:m[5]])
		}
		refs = append(refs, ref)
	}
	for _, m := range markdownImagePattern.FindAllStringSubmatchIndex(line, -1) {
		refs = append(refs, imageRef{
			start:  m[0],
			end:    m[1],
			raw:    line[m[0]:m[1]],
			alt:    strings.TrimSpace(line[m[2]:m[3]]),
			target: line[m[4]:m[5]],
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].start < refs[j].start })
	return refs
}

// ParseImageRef reports whether s is exactly one image reference.
func ParseImageRef(s string) (*Image, bool) {
	s = strings.TrimSpace(s)
	refs := findImageRefs(s)
	if len(refs) != 1 || refs[0].start != 0 || refs[0].end != len(s) {
		return nil, false
	}
	return refs[0].image(), true
}
