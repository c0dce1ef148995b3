package translator

import "strings"

// StripCodeFence trims the response and, if it is wrapped in a ``` block
// (optionally tagged with a language), returns the block contents.
// Anything else is returned as is.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	body, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(body[:nl]); tag == "" || isLangTag(strings.ToLower(tag)) {
			body = body[nl+1:]
		}
	} else if len(body) > 4 && strings.EqualFold(body[:4], "sql ") {
		body = body[4:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// isLangTag matches info strings such as sql or postgresql.
func isLangTag(s string) bool {
	if s == "select" || s == "with" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
