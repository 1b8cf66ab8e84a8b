package detect

import "strings"

// ElementInfo is the part of a DOM element the probe serializes for selector
// construction.
type ElementInfo struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

// BuildRootSelector turns an ancestor chain into a CSS-path locator. chain[0]
// is the matched element, followed by its ancestors up to but excluding the
// document element.
//
// The first element carrying an id terminates the path. Class qualifiers are
// only added to the matched element itself.
func BuildRootSelector(chain []ElementInfo) string {
	if len(chain) == 0 {
		return ""
	}

	el := chain[0]
	selector := tagName(el)
	if el.ID != "" {
		return selector + "#" + cssEscape(el.ID)
	}
	for _, c := range el.Classes {
		if c = strings.TrimSpace(c); c != "" {
			selector += "." + cssEscape(c)
		}
	}

	for _, parent := range chain[1:] {
		if parent.ID != "" {
			return tagName(parent) + "#" + cssEscape(parent.ID) + " > " + selector
		}
		selector = tagName(parent) + " > " + selector
	}
	return selector
}

func tagName(el ElementInfo) string {
	return strings.ToLower(strings.TrimSpace(el.Tag))
}

// cssEscape escapes an identifier for use after # or . in a selector.
// An identifier may not start with a digit, with a hyphen and a digit,
// or be a lone hyphen.
func cssEscape(ident string) string {
	if ident == "-" {
		return `\-`
	}
	var b strings.Builder
	for i, r := range ident {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && ident[0] == '-') {
				b.WriteString(`\3`)
				b.WriteRune(r)
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
