package html

import (
	"bytes"
	"strings"
)

var (
	singleQuoteEntityBytes = []byte("&#39;")
	doubleQuoteEntityBytes = []byte("&#34;")
)

var (
	dataEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	rcdataEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")
	cdataEscaper  = strings.NewReplacer("]]>", "]]]]><![CDATA[>")
)

// escapeText escapes text so that it is read back unchanged in the given content model. Raw text
// and script data cannot be escaped, content that contains the closing tag will end the element.
func escapeText(s string, tt TextType) string {
	switch tt {
	case Data:
		return dataEscaper.Replace(s)
	case RCData:
		return rcdataEscaper.Replace(s)
	case CDataSection:
		return cdataEscaper.Replace(s)
	}
	return s
}

// appendAttributes appends the attributes of a tag, each preceded by a space. Source attributes are
// written as is, others are quoted with the quote that needs the fewest escapes.
func appendAttributes(b []byte, attrs []Attribute) []byte {
	for _, attr := range attrs {
		b = append(b, ' ')
		if attr.raw != nil {
			b = append(b, attr.raw...)
			continue
		}
		b = append(b, attr.name...)
		b = append(b, '=')
		b = appendAttrVal(b, attr.value)
	}
	return b
}

// appendAttrVal appends a quoted attribute value, the value has its ampersands escaped already.
func appendAttrVal(b, val []byte) []byte {
	singles := bytes.Count(val, []byte{'\''})
	doubles := bytes.Count(val, []byte{'"'})

	quote := byte('"')
	escapedQuote := doubleQuoteEntityBytes
	if doubles > singles {
		quote = '\''
		escapedQuote = singleQuoteEntityBytes
	}

	b = append(b, quote)
	start := 0
	for i, c := range val {
		if c == quote {
			b = append(b, val[start:i]...)
			b = append(b, escapedQuote...)
			start = i + 1
		}
	}
	b = append(b, val[start:]...)
	return append(b, quote)
}
