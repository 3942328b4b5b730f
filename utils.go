package sendfile

import (
	"strings"
)

// containsTag reports whether the comma-separated entity-tag list matches
// etag. "*" matches any existing representation. With weak set, the W/
// prefix is ignored on both sides.
func containsTag(list, etag string, weak bool) bool {
	for _, tok := range parseTokenList(list) {
		if tok == "*" {
			return true
		}
		if etag == "" {
			continue
		}
		if tok == etag {
			return true
		}
		if weak && opaqueTag(tok) == opaqueTag(etag) {
			return true
		}
	}
	return false
}

func opaqueTag(tag string) string {
	return strings.TrimPrefix(tag, "W/")
}

// parseTokenList splits a comma-separated header value, dropping empty
// elements and surrounding whitespace.
func parseTokenList(v string) []string {
	var out []string
	for _, tok := range strings.Split(v, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// noCache reports whether a request Cache-Control value carries the
// no-cache directive.
func noCache(v string) bool {
	if v == "" {
		return false
	}
	for _, tok := range parseTokenList(v) {
		if strings.EqualFold(tok, "no-cache") {
			return true
		}
	}
	return false
}
