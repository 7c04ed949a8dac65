package html

import (
	"golang.org/x/net/html/atom"
)

// Namespace is the namespace an element is created in.
type Namespace uint8

// Namespace values.
const (
	HTML Namespace = iota
	SVG
	MathML
)

// String returns the string representation of a Namespace.
func (ns Namespace) String() string {
	switch ns {
	case SVG:
		return "SVG"
	case MathML:
		return "MathML"
	}
	return "HTML"
}

// URI returns the namespace URI.
func (ns Namespace) URI() string {
	switch ns {
	case SVG:
		return "http://www.w3.org/2000/svg"
	case MathML:
		return "http://www.w3.org/1998/Math/MathML"
	}
	return "http://www.w3.org/1999/xhtml"
}

////////////////////////////////////////////////////////////////

// MaxForeignDepth bounds the number of open elements tracked inside foreign content. Deeper elements
// are not tracked.
var MaxForeignDepth = 256

type openElement struct {
	name string
	ns   Namespace
}

// namespaceStack tracks the open elements from the outermost svg or math element inward, which is
// all the tree construction a tokenizer needs to know whether it is in foreign content. It is empty
// in plain HTML.
type namespaceStack struct {
	open []openElement
}

func (s *namespaceStack) top() (openElement, bool) {
	if len(s.open) == 0 {
		return openElement{}, false
	}
	return s.open[len(s.open)-1], true
}

// inForeignContent returns true when the current node is an SVG or MathML element.
func (s *namespaceStack) inForeignContent() bool {
	top, ok := s.top()
	return ok && top.ns != HTML
}

// namespaceFor returns the namespace a start tag with the given lowercase name is created in.
func (s *namespaceStack) namespaceFor(name []byte, a atom.Atom) Namespace {
	if a == atom.Svg {
		return SVG
	} else if a == atom.Math {
		return MathML
	}
	top, ok := s.top()
	if !ok || top.ns == HTML {
		return HTML
	}
	if top.ns == MathML && isMathMLTextIntegrationPoint(top.name) && (string(name) == "mglyph" || string(name) == "malignmark") {
		return MathML
	} else if isHTMLIntegrationPoint(top) || isBreakout(a) {
		return HTML
	}
	return top.ns
}

// enter records a committed start tag.
func (s *namespaceStack) enter(name []byte, a atom.Atom, ns Namespace, selfClosing bool) {
	if ns == HTML {
		if len(s.open) == 0 {
			return
		}
		for { // breakout tags close foreign elements up to an integration point
			top, ok := s.top()
			if !ok || top.ns == HTML || isHTMLIntegrationPoint(top) {
				break
			}
			s.open = s.open[:len(s.open)-1]
		}
		if len(s.open) == 0 || isVoid(a) {
			return
		}
	} else if selfClosing {
		return
	}
	if len(s.open) < MaxForeignDepth {
		s.open = append(s.open, openElement{string(name), ns})
	}
}

// leave records an end tag, closing the innermost open element of that name and everything inside it.
func (s *namespaceStack) leave(name []byte) {
	for i := len(s.open) - 1; 0 <= i; i-- {
		if s.open[i].name == string(name) {
			s.open = s.open[:i]
			return
		}
	}
}

func (s *namespaceStack) reset() {
	s.open = s.open[:0]
}

func isMathMLTextIntegrationPoint(name string) bool {
	switch name {
	case "mi", "mo", "mn", "ms", "mtext":
		return true
	}
	return false
}

func isHTMLIntegrationPoint(e openElement) bool {
	switch e.ns {
	case SVG:
		return e.name == "foreignobject" || e.name == "desc" || e.name == "title"
	case MathML:
		return e.name == "annotation-xml" || isMathMLTextIntegrationPoint(e.name)
	}
	return false
}

// isBreakout returns true for HTML start tags that end foreign content.
func isBreakout(a atom.Atom) bool {
	switch a {
	case atom.B, atom.Big, atom.Blockquote, atom.Body, atom.Br, atom.Center, atom.Code, atom.Dd, atom.Div, atom.Dl, atom.Dt,
		atom.Em, atom.Embed, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Head, atom.Hr, atom.I, atom.Img,
		atom.Li, atom.Listing, atom.Menu, atom.Meta, atom.Nobr, atom.Ol, atom.P, atom.Pre, atom.Ruby, atom.S, atom.Small,
		atom.Span, atom.Strong, atom.Strike, atom.Sub, atom.Sup, atom.Table, atom.Tt, atom.U, atom.Ul, atom.Var:
		return true
	}
	return false
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img, atom.Input, atom.Link, atom.Meta,
		atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
