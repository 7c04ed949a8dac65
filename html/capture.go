package html

import (
	"strings"
)

// CaptureFlags tells the parser which tokens a controller wants delivered. Everything that is not
// captured is passed through as raw bytes without building a token.
type CaptureFlags uint8

// CaptureFlags values.
const (
	// CaptureStartTagContent tokenizes the attributes of delivered start tags during the scan.
	// Without it attributes are only tokenized when the controller asks for them.
	CaptureStartTagContent CaptureFlags = 1 << iota
	// CaptureEndTagContent does the same for the (ignored) attributes of delivered end tags.
	CaptureEndTagContent
	// CaptureNextStartTag delivers the start tag that is being decided on.
	CaptureNextStartTag
	// CaptureNextEndTag delivers the end tag that is being decided on.
	CaptureNextEndTag
	CaptureText
	CaptureComments
	CaptureDoctypes
)

// Named sets of CaptureFlags.
const (
	CaptureNone    CaptureFlags = 0
	CaptureDefault              = CaptureNextStartTag | CaptureNextEndTag
	CaptureAll                  = CaptureStartTagContent | CaptureEndTagContent | CaptureNextStartTag | CaptureNextEndTag | CaptureText | CaptureComments | CaptureDoctypes
)

var captureFlagNames = []string{
	"StartTagContent",
	"EndTagContent",
	"NextStartTag",
	"NextEndTag",
	"Text",
	"Comments",
	"Doctypes",
}

// Has returns true when all flags in g are set.
func (f CaptureFlags) Has(g CaptureFlags) bool {
	return f&g == g
}

// String returns the flag names joined by '|'.
func (f CaptureFlags) String() string {
	if f == CaptureNone {
		return "None"
	} else if f == CaptureAll {
		return "All"
	}
	var sb strings.Builder
	for i, name := range captureFlagNames {
		if f&(1<<i) != 0 {
			if sb.Len() != 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(name)
		}
	}
	return sb.String()
}
