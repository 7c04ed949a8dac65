package html

import (
	"github.com/tdewolff/rewrite"
)

// attrSpan locates an attribute inside the raw bytes of a tag. valStart is -1 for attributes without
// a value.
type attrSpan struct {
	start, nameEnd   int
	valStart, valEnd int
	end              int
	quote            byte
}

type tagState uint8

const (
	beforeAttrNameState tagState = iota
	attrNameState
	afterAttrNameState
	beforeAttrValueState
	attrValueDQState
	attrValueSQState
	attrValueUnquotedState
	afterAttrValueQuotedState
	selfClosingState
)

// tagNameLen returns the length of the tag name at the start of b, which runs up to whitespace, '/'
// or '>'.
func tagNameLen(b []byte) int {
	for i, c := range b {
		if rewrite.IsWhitespace(c) || c == '/' || c == '>' {
			return i
		}
	}
	return len(b)
}

// scanTagBody scans a tag from the end of its name at b[i] to its closing '>'. It returns the
// length of the tag including the '>' and whether it was self-closing. When the tag is not complete
// within b, ok is false. Attributes are appended to spans when it is not nil.
func scanTagBody(b []byte, i int, spans *[]attrSpan) (end int, selfClosing bool, ok bool) {
	state := beforeAttrNameState
	var attr attrSpan
	push := func(end int) {
		if spans != nil {
			attr.end = end
			*spans = append(*spans, attr)
		}
	}
	for ; i < len(b); i++ {
		c := b[i]
		switch state {
		case beforeAttrNameState:
			if c == '/' {
				state = selfClosingState
			} else if c == '>' {
				return i + 1, false, true
			} else if !rewrite.IsWhitespace(c) {
				// '=' starts a name here
				attr = attrSpan{start: i, valStart: -1, valEnd: -1}
				state = attrNameState
			}
		case attrNameState:
			if rewrite.IsWhitespace(c) || c == '/' || c == '>' {
				attr.nameEnd = i
				state = afterAttrNameState
				i--
			} else if c == '=' {
				attr.nameEnd = i
				state = beforeAttrValueState
			}
		case afterAttrNameState:
			if c == '=' {
				state = beforeAttrValueState
			} else if !rewrite.IsWhitespace(c) {
				push(attr.nameEnd)
				state = beforeAttrNameState
				i--
			}
		case beforeAttrValueState:
			if c == '"' {
				attr.quote = c
				attr.valStart = i + 1
				state = attrValueDQState
			} else if c == '\'' {
				attr.quote = c
				attr.valStart = i + 1
				state = attrValueSQState
			} else if c == '>' {
				attr.valStart, attr.valEnd = i, i
				push(i)
				return i + 1, false, true
			} else if !rewrite.IsWhitespace(c) {
				attr.valStart = i
				state = attrValueUnquotedState
			}
		case attrValueDQState, attrValueSQState:
			if c == attr.quote {
				attr.valEnd = i
				push(i + 1)
				state = afterAttrValueQuotedState
			}
		case attrValueUnquotedState:
			if rewrite.IsWhitespace(c) || c == '>' {
				attr.valEnd = i
				push(i)
				state = beforeAttrNameState
				i--
			}
		case afterAttrValueQuotedState:
			state = beforeAttrNameState
			if !rewrite.IsWhitespace(c) {
				i--
			}
		case selfClosingState:
			if c == '>' {
				return i + 1, true, true
			}
			state = beforeAttrNameState
			i--
		}
	}
	return len(b), false, false
}

// attributeSpans returns the attributes of a complete tag.
func attributeSpans(raw []byte, nameEnd int) []attrSpan {
	spans := []attrSpan{}
	scanTagBody(raw, nameEnd, &spans)
	return spans
}
