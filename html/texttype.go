package html

import (
	"strconv"

	"golang.org/x/net/html/atom"
)

// TextType is the content model the tokenizer is in. It decides which markup is still recognized.
type TextType uint8

// TextType values.
const (
	Data         TextType = iota // normal markup
	RCData                       // title, textarea: only the matching end tag, character references decode
	RawText                      // style, xmp, iframe, noembed, noframes, noscript: only the matching end tag
	ScriptData                   // script: like RawText with <!-- --> escapes
	PlainText                    // plaintext: never leaves
	CDataSection                 // <![CDATA[ in foreign content, until ]]>
)

// String returns the string representation of a TextType.
func (tt TextType) String() string {
	switch tt {
	case Data:
		return "Data"
	case RCData:
		return "RCData"
	case RawText:
		return "RawText"
	case ScriptData:
		return "ScriptData"
	case PlainText:
		return "PlainText"
	case CDataSection:
		return "CDataSection"
	}
	return "Invalid(" + strconv.Itoa(int(tt)) + ")"
}

// textTypeFor returns the content model of an HTML element's body.
func textTypeFor(a atom.Atom) TextType {
	switch a {
	case atom.Title, atom.Textarea:
		return RCData
	case atom.Style, atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes, atom.Noscript:
		return RawText
	case atom.Script:
		return ScriptData
	case atom.Plaintext:
		return PlainText
	}
	return Data
}

// decodesReferences returns true when character references are interpreted in the text.
func (tt TextType) decodesReferences() bool {
	return tt == Data || tt == RCData
}
