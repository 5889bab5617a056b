package ingest

import "strings"

// SlugKey strips every character outside [A-Za-z0-9_] from title. The result
// names both the rendered page file and the index entry. An empty key is
// valid.
func SlugKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	// Bytes of multi-byte UTF-8 sequences are all >= 0x80 and never match.
	for i := 0; i < len(title); i++ {
		c := title[i]
		if isSlugByte(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSlugByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_'
}
