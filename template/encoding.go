package template

import "strings"

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c must be percent-encoded in a path segment
// or query component.
func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}

	switch c {
	case '-', '.', '_', '~', '!', '$', '(', ')', '*', ',', ';', '@':
		return false
	}

	return true
}

// writeEscaped appends s to sb, percent-encoding every byte outside the
// unreserved set with upper-case hex digits.
func writeEscaped(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
			continue
		}
		sb.WriteByte(c)
	}
}

// Escape percent-encodes s for use as a path segment or query component.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	writeEscaped(&sb, s)
	return sb.String()
}
