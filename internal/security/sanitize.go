package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizer strips blog HTML down to a fixed set of formatting tags.
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

func NewContentSanitizer() *ContentSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "b", "i", "u", "em", "strong",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "br", "hr", "blockquote", "pre", "code", "span", "div",
	)
	p.AllowAttrs("title", "class", "id").Globally()
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return &ContentSanitizer{policy: p}
}

func (s *ContentSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
