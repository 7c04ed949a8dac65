package html

import (
	"github.com/tdewolff/rewrite"
)

// newDoctype fills a doctype token from the bytes between "<!doctype" and the closing '>'. A missing
// closing '>' is passed as complete=false and forces quirks mode.
func newDoctype(raw, body []byte, complete bool, enc *Encoding) *Doctype {
	t := &Doctype{base: base{raw: raw, enc: enc}, forceQuirks: !complete}

	i := skipWhitespace(body, 0)
	if i == len(body) {
		t.forceQuirks = true
		return t
	}
	start := i
	for i < len(body) && !rewrite.IsWhitespace(body[i]) {
		i++
	}
	t.name = rewrite.AppendLower(nil, body[start:i])

	i = skipWhitespace(body, i)
	if i == len(body) {
		return t
	}
	rest := body[i:]
	if rewrite.HasPrefixFold(rest, []byte("public")) {
		id, n, ok := doctypeID(rest, len("public"))
		t.publicID, t.hasPublic = id, ok
		if !ok || n == -1 {
			t.forceQuirks = true
			return t
		}
		j := skipWhitespace(rest, n)
		if j == len(rest) {
			return t
		}
		id, n, ok = doctypeID(rest, j)
		t.systemID, t.hasSystem = id, ok
		if !ok || n == -1 {
			t.forceQuirks = true
		}
	} else if rewrite.HasPrefixFold(rest, []byte("system")) {
		id, n, ok := doctypeID(rest, len("system"))
		t.systemID, t.hasSystem = id, ok
		if !ok || n == -1 {
			t.forceQuirks = true
		}
	} else {
		t.forceQuirks = true
	}
	return t
}

// doctypeID reads a quoted identifier after optional whitespace at b[i:]. It returns the offset
// after the closing quote, or -1 when the quote is not closed. When no quote is found ok is false.
func doctypeID(b []byte, i int) (id []byte, n int, ok bool) {
	i = skipWhitespace(b, i)
	if i == len(b) || b[i] != '"' && b[i] != '\'' {
		return nil, 0, false
	}
	quote := b[i]
	for j := i + 1; j < len(b); j++ {
		if b[j] == quote {
			return b[i+1 : j], j + 1, true
		}
	}
	return b[i+1:], -1, true
}

func skipWhitespace(b []byte, i int) int {
	for i < len(b) && rewrite.IsWhitespace(b[i]) {
		i++
	}
	return i
}
