// Package rewrite contains the shared primitives of the streaming HTML rewriter: the memory limiter
// that bounds every buffer of every stream sharing it, the arena that grows under that limit, and
// the error kinds reported by streams. The tokenizer lives in the html subpackage and the stream
// orchestration in the transform subpackage.
package rewrite // import "github.com/tdewolff/rewrite"

// IsWhitespace returns true for HTML whitespace: space, tab, line feed, form feed and carriage return.
func IsWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

// IsAlpha returns true for ASCII letters.
func IsAlpha(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// Copy returns a copy of the given byte slice.
func Copy(src []byte) (dst []byte) {
	dst = make([]byte, len(src))
	copy(dst, src)
	return
}

// AppendLower appends src to dst with ASCII uppercase letters lowered. Unlike an in-place
// conversion it never touches src, which usually points into a stream buffer.
func AppendLower(dst, src []byte) []byte {
	for _, c := range src {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		dst = append(dst, c)
	}
	return dst
}

// EqualFold returns true when s is equal to targetLower when lowercased, only ASCII letters are folded.
func EqualFold(s, targetLower []byte) bool {
	if len(s) != len(targetLower) {
		return false
	}
	for i, c := range targetLower {
		d := s[i]
		if d != c && (d < 'A' || 'Z' < d || d+('a'-'A') != c) {
			return false
		}
	}
	return true
}

// HasPrefixFold returns true when s starts with targetLower, folding ASCII letters of s.
func HasPrefixFold(s, targetLower []byte) bool {
	return len(targetLower) <= len(s) && EqualFold(s[:len(targetLower)], targetLower)
}
