// Package html is a streaming HTML tokenizer. A Parser is fed consecutive slices of a document, it
// reports every tag boundary to a Dispatcher which decides per boundary which tokens it wants
// delivered. Everything else is passed through as raw bytes without building tokens.
package html // import "github.com/tdewolff/rewrite/html"

import (
	"bytes"

	"github.com/tdewolff/rewrite"
	"golang.org/x/net/html/atom"
)

var cdataEnd = []byte("]]>")

// Dispatcher receives the tag boundaries, tokens and raw bytes of a Parser in document order. The
// byte slices it receives are only valid during the call.
type Dispatcher interface {
	// StartTag is called for every complete start tag before it is delivered, and returns the
	// capture flags for the tag and the content following it. Returning an error aborts parsing
	// before the tag.
	StartTag(name LocalName, ns Namespace) (CaptureFlags, error)
	// EndTag is called for every complete end tag before it is delivered.
	EndTag(name LocalName) (CaptureFlags, error)
	// Token receives the captured tokens.
	Token(t Token) error
	// Raw receives the bytes of everything that is not captured.
	Raw(b []byte) error
}

type scriptState uint8

const (
	scriptNormal scriptState = iota
	scriptEscaped
	scriptDoubleEscaped
)

type markup uint8

const (
	noMarkup markup = iota
	undecided
	startTagMarkup
	endTagMarkup
	emptyEndTagMarkup
	bogusCommentMarkup
	declarationMarkup
)

// Parser is an incremental HTML tokenizer. It keeps no input itself: Parse returns how many bytes it
// has handled and the caller passes the remaining bytes again, followed by new ones, on the next call.
type Parser struct {
	d     Dispatcher
	enc   *Encoding
	flags CaptureFlags

	textType      TextType
	script        scriptState
	lastStartTag  TagNameHash
	lastStartName []byte // lowercase, empty when only the hash is known
	ns            namespaceStack

	scan   int   // where scanning resumes in the pending text
	offset int64 // document offset of the bytes passed to Parse
	unit   int   // start of the unit being dispatched
	lower  []byte
}

// NewParser returns a new Parser in the Data state. A nil encoding is UTF-8.
func NewParser(d Dispatcher, enc *Encoding, flags CaptureFlags) *Parser {
	if enc == nil {
		enc = UTF8
	}
	return &Parser{
		d:     d,
		enc:   enc,
		flags: flags,
	}
}

// Encoding returns the encoding of the document.
func (z *Parser) Encoding() *Encoding {
	return z.enc
}

// TextType returns the current content model.
func (z *Parser) TextType() TextType {
	return z.textType
}

// SwitchTextType forces the content model, as if the parser was in the body of an element with that
// content model. It is used to start parsing in the middle of a document.
func (z *Parser) SwitchTextType(tt TextType) {
	z.textType = tt
	z.script = scriptNormal
	z.scan = 0
}

// LastStartTagNameHash returns the hash of the name of the last start tag.
func (z *Parser) LastStartTagNameHash() TagNameHash {
	return z.lastStartTag
}

// SetLastStartTagNameHash sets the hash of the name of the last start tag, which decides the end tag
// that closes raw text. As the exact name is unknown, end tags are matched by hash only.
func (z *Parser) SetLastStartTagNameHash(h TagNameHash) {
	z.lastStartTag = h
	z.lastStartName = z.lastStartName[:0]
}

// CaptureFlags returns the active capture flags.
func (z *Parser) CaptureFlags() CaptureFlags {
	return z.flags
}

// SetCaptureFlags replaces the active capture flags until the next tag boundary.
func (z *Parser) SetCaptureFlags(flags CaptureFlags) {
	z.flags = flags
}

// Offset returns the document offset of the unit currently being dispatched.
func (z *Parser) Offset() int64 {
	return z.offset + int64(z.unit)
}

// Parse tokenizes b and returns the number of bytes handled. Units that are not complete within b
// are left unhandled, unless eof is set in which case b is the end of the document. An error from
// the Dispatcher stops parsing before the unit that caused it.
func (z *Parser) Parse(b []byte, eof bool) (int, error) {
	n, err := z.parse(b, eof)
	z.offset += int64(n)
	return n, err
}

// Finish parses the end of the document and delivers the EOF token.
func (z *Parser) Finish(b []byte) (int, error) {
	n, err := z.Parse(b, true)
	if err != nil {
		return n, err
	}
	z.unit = 0
	return n, z.d.Token(&EOF{base{enc: z.enc}})
}

func (z *Parser) parse(b []byte, eof bool) (int, error) {
	i := 0
	for i < len(b) {
		z.unit = i
		if z.textType != Data {
			end, found := z.scanRawText(b[i:], eof)
			if !found && !eof {
				return z.pending(b, i, end)
			}
			if err := z.text(b[i : i+end]); err != nil {
				return i, err
			}
			i += end
			z.scan = 0
			if found {
				if z.textType == CDataSection {
					z.unit = i
					if err := z.d.Raw(b[i : i+len(cdataEnd)]); err != nil {
						return i, err
					}
					i += len(cdataEnd)
				}
				z.textType = Data
				z.script = scriptNormal
			}
			continue
		}

		end, m := z.scanData(b[i:], eof)
		if m == undecided || m == noMarkup && !eof {
			return z.pending(b, i, end)
		}
		if err := z.text(b[i : i+end]); err != nil {
			return i, err
		}
		i += end
		z.scan = 0
		if m == noMarkup {
			continue
		}

		z.unit = i
		n, err := z.parseMarkup(b[i:], m, eof)
		if err != nil || n == 0 {
			return i, err
		}
		i += n
	}
	return i, nil
}

// pending handles a text run that is not complete within b. Captured text stays unhandled until it
// is complete, other text is passed through up to the first byte that is undecided.
func (z *Parser) pending(b []byte, i, end int) (int, error) {
	if z.flags.Has(CaptureText) {
		z.scan = end
		return i, nil
	}
	z.scan = 0
	if end != 0 {
		if err := z.d.Raw(b[i : i+end]); err != nil {
			return i, err
		}
	}
	return i + end, nil
}

func (z *Parser) text(b []byte) error {
	if len(b) == 0 {
		return nil
	} else if z.flags.Has(CaptureText) {
		t := newText(b, z.textType, z.enc)
		if z.textType == RawText || z.textType == ScriptData {
			t.endName = z.lastStartName
		}
		return z.d.Token(t)
	}
	return z.d.Raw(b)
}

////////////////////////////////////////////////////////////////

// scanData returns the end of the text run at the start of b and the markup that follows it.
func (z *Parser) scanData(b []byte, eof bool) (int, markup) {
	q := z.scan
	for {
		k := bytes.IndexByte(b[q:], '<')
		if k == -1 {
			return len(b), noMarkup
		}
		q += k
		if m := classify(b[q:], eof); m != noMarkup {
			return q, m
		}
		q++
	}
}

// classify returns the markup starting with the '<' at b[0].
func classify(b []byte, eof bool) markup {
	if len(b) < 2 {
		if eof {
			return noMarkup
		}
		return undecided
	}
	c := b[1]
	if rewrite.IsAlpha(c) {
		return startTagMarkup
	} else if c == '!' {
		return declarationMarkup
	} else if c == '?' {
		return bogusCommentMarkup
	} else if c == '/' {
		if len(b) < 3 {
			if eof {
				return noMarkup
			}
			return undecided
		} else if rewrite.IsAlpha(b[2]) {
			return endTagMarkup
		} else if b[2] == '>' {
			return emptyEndTagMarkup
		}
		return bogusCommentMarkup
	}
	return noMarkup
}

// scanRawText returns the end of the text run at the start of b in the current non-Data content
// model. It returns found when the run ends with the end tag or ]]> that leaves the content model.
func (z *Parser) scanRawText(b []byte, eof bool) (int, bool) {
	switch z.textType {
	case PlainText:
		return len(b), false
	case CDataSection:
		if k := bytes.Index(b[z.scan:], cdataEnd); k != -1 {
			return z.scan + k, true
		}
		end := len(b)
		for !eof && z.scan < end && len(b)-end < 2 && b[end-1] == ']' {
			end--
		}
		return end, false
	}

	for q := z.scan; q < len(b); q++ {
		switch b[q] {
		case '-':
			if z.script == scriptNormal {
				continue
			}
			switch matchPrefix(b[q:], "-->", false, eof) {
			case 1:
				z.script = scriptNormal
				q += 2
			case -1:
				return q, false
			}
		case '<':
			if q+1 == len(b) {
				if eof {
					return len(b), false
				}
				return q, false
			}
			if b[q+1] == '/' {
				if z.script == scriptDoubleEscaped {
					switch matchTagName(b[q+2:], "script", eof) {
					case 1:
						z.script = scriptEscaped
						q += len("</script") - 1
					case -1:
						return q, false
					}
					continue
				}
				switch z.appropriateEndTag(b[q:], eof) {
				case 1:
					return q, true
				case -1:
					return q, false
				}
			} else if z.textType == ScriptData && z.script == scriptNormal {
				switch matchPrefix(b[q:], "<!--", false, eof) {
				case 1:
					z.script = scriptEscaped
					q++ // the dashes may close the escape again
				case -1:
					return q, false
				}
			} else if z.textType == ScriptData && z.script == scriptEscaped {
				switch matchTagName(b[q+1:], "script", eof) {
				case 1:
					z.script = scriptDoubleEscaped
					q += len("<script") - 1
				case -1:
					return q, false
				}
			}
		}
	}
	return len(b), false
}

// appropriateEndTag returns 1 when b starts with an end tag for the last start tag, 0 when it does
// not and -1 when b is too short to tell.
func (z *Parser) appropriateEndTag(b []byte, eof bool) int {
	j := 2
	for j < len(b) && rewrite.IsAlpha(b[j]) {
		j++
	}
	if j == len(b) {
		if eof {
			return 0
		}
		return -1
	} else if j == 2 {
		return 0
	} else if c := b[j]; !rewrite.IsWhitespace(c) && c != '/' && c != '>' {
		return 0
	} else if z.isLastStartTag(b[2:j]) {
		return 1
	}
	return 0
}

func (z *Parser) isLastStartTag(name []byte) bool {
	h := ToTagNameHash(name)
	if h.IsValid() && h != z.lastStartTag {
		return false
	} else if len(z.lastStartName) == 0 {
		return h.IsValid()
	}
	return rewrite.EqualFold(name, z.lastStartName)
}

// matchPrefix returns 1 when b starts with lit, 0 when it does not and -1 when b is too short to
// tell. With fold, ASCII letters of b are lowered and lit must be lowercase.
func matchPrefix(b []byte, lit string, fold, eof bool) int {
	n := min(len(b), len(lit))
	for i := 0; i < n; i++ {
		c := b[i]
		if fold && 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lit[i] {
			return 0
		}
	}
	if n < len(lit) {
		if eof {
			return 0
		}
		return -1
	}
	return 1
}

// matchTagName is matchPrefix for a tag name that must be followed by whitespace, '/' or '>'.
func matchTagName(b []byte, lower string, eof bool) int {
	if m := matchPrefix(b, lower, true, eof); m != 1 {
		return m
	} else if len(b) == len(lower) {
		if eof {
			return 0
		}
		return -1
	} else if c := b[len(lower)]; rewrite.IsWhitespace(c) || c == '/' || c == '>' {
		return 1
	}
	return 0
}

////////////////////////////////////////////////////////////////

// parseMarkup handles the markup at the start of b. It returns zero when the markup is not complete.
func (z *Parser) parseMarkup(b []byte, m markup, eof bool) (int, error) {
	switch m {
	case startTagMarkup:
		return z.startTag(b, eof)
	case endTagMarkup:
		return z.endTag(b, eof)
	case emptyEndTagMarkup:
		return 3, z.d.Raw(b[:3])
	case bogusCommentMarkup:
		if b[1] == '?' {
			return z.bogusComment(b, 1, eof)
		}
		return z.bogusComment(b, 2, eof)
	}
	return z.declaration(b, eof)
}

func (z *Parser) startTag(b []byte, eof bool) (int, error) {
	nameEnd := 1 + tagNameLen(b[1:])
	end, selfClosing, ok := scanTagBody(b, nameEnd, nil)
	if !ok {
		if !eof {
			return 0, nil
		}
		return len(b), z.d.Raw(b)
	}
	raw := b[:end]

	z.lower = rewrite.AppendLower(z.lower[:0], raw[1:nameEnd])
	a := atom.Lookup(z.lower)
	ns := z.ns.namespaceFor(z.lower, a)
	flags, err := z.d.StartTag(NewLocalName(raw[1:nameEnd], z.enc), ns)
	if err != nil {
		return 0, err
	}
	z.flags = flags

	if flags.Has(CaptureNextStartTag) {
		t := newStartTag(raw, nameEnd, ns, selfClosing, z.enc)
		if flags.Has(CaptureStartTagContent) {
			t.parse(z.enc)
		}
		err = z.d.Token(t)
	} else {
		err = z.d.Raw(raw)
	}
	if err != nil {
		return 0, err
	}

	z.ns.enter(z.lower, a, ns, selfClosing)
	if ns == HTML {
		if tt := textTypeFor(a); tt != Data {
			z.textType = tt
			z.script = scriptNormal
		}
	}
	z.lastStartTag = ToTagNameHash(z.lower)
	z.lastStartName = append(z.lastStartName[:0], z.lower...)
	return end, nil
}

func (z *Parser) endTag(b []byte, eof bool) (int, error) {
	nameEnd := 2 + tagNameLen(b[2:])
	end, _, ok := scanTagBody(b, nameEnd, nil)
	if !ok {
		if !eof {
			return 0, nil
		}
		return len(b), z.d.Raw(b)
	}
	raw := b[:end]

	flags, err := z.d.EndTag(NewLocalName(raw[2:nameEnd], z.enc))
	if err != nil {
		return 0, err
	}
	z.flags = flags

	if flags.Has(CaptureNextEndTag) {
		t := newEndTag(raw, nameEnd, z.enc)
		if flags.Has(CaptureEndTagContent) {
			t.parse(z.enc)
		}
		err = z.d.Token(t)
	} else {
		err = z.d.Raw(raw)
	}
	if err != nil {
		return 0, err
	}

	z.lower = rewrite.AppendLower(z.lower[:0], raw[2:nameEnd])
	z.ns.leave(z.lower)
	return end, nil
}

// declaration handles markup starting with <!.
func (z *Parser) declaration(b []byte, eof bool) (int, error) {
	rest := b[2:]
	if m := matchPrefix(rest, "--", false, eof); m == 1 {
		return z.comment(b, eof)
	} else if m == -1 {
		return 0, nil
	}
	if m := matchPrefix(rest, "doctype", true, eof); m == 1 {
		return z.doctype(b, eof)
	} else if m == -1 {
		return 0, nil
	}
	if z.ns.inForeignContent() {
		if m := matchPrefix(rest, "[CDATA[", false, eof); m == 1 {
			n := len("<![CDATA[")
			if err := z.d.Raw(b[:n]); err != nil {
				return 0, err
			}
			z.textType = CDataSection
			return n, nil
		} else if m == -1 {
			return 0, nil
		}
	}
	return z.bogusComment(b, 2, eof)
}

func (z *Parser) comment(b []byte, eof bool) (int, error) {
	start := len("<!--")
	end, contentEnd := -1, start
	if bytes.HasPrefix(b[start:], []byte(">")) {
		end = start + 1
	} else if bytes.HasPrefix(b[start:], []byte("->")) {
		end = start + 2
	} else if !eof && (len(b) == start || len(b) == start+1 && b[start] == '-') {
		return 0, nil
	} else {
		for k := start; ; k++ {
			j := bytes.Index(b[k:], []byte("--"))
			if j == -1 {
				break
			}
			k += j
			if k+2 < len(b) && b[k+2] == '>' {
				end, contentEnd = k+3, k
				break
			} else if k+3 < len(b) && b[k+2] == '!' && b[k+3] == '>' {
				end, contentEnd = k+4, k
				break
			}
		}
		if end == -1 {
			if !eof {
				return 0, nil
			}
			end, contentEnd = len(b), len(b)
			for _, suffix := range []string{"--!", "--", "-"} {
				if bytes.HasSuffix(b[start:], []byte(suffix)) {
					contentEnd -= len(suffix)
					break
				}
			}
		}
	}
	return end, z.emitComment(b[:end], b[start:contentEnd])
}

// bogusComment handles a comment whose content starts at b[start] and ends at the first '>'.
func (z *Parser) bogusComment(b []byte, start int, eof bool) (int, error) {
	end, contentEnd := len(b), len(b)
	if gt := bytes.IndexByte(b[start:], '>'); gt != -1 {
		contentEnd = start + gt
		end = contentEnd + 1
	} else if !eof {
		return 0, nil
	}
	return end, z.emitComment(b[:end], b[start:contentEnd])
}

func (z *Parser) emitComment(raw, content []byte) error {
	if z.flags.Has(CaptureComments) {
		return z.d.Token(&Comment{base: base{raw: raw, enc: z.enc}, content: content})
	}
	return z.d.Raw(raw)
}

func (z *Parser) doctype(b []byte, eof bool) (int, error) {
	start := len("<!doctype")
	end, bodyEnd, complete := len(b), len(b), false
	if gt := bytes.IndexByte(b[start:], '>'); gt != -1 {
		bodyEnd = start + gt
		end = bodyEnd + 1
		complete = true
	} else if !eof {
		return 0, nil
	}
	if z.flags.Has(CaptureDoctypes) {
		return end, z.d.Token(newDoctype(b[:end], b[start:bodyEnd], complete, z.enc))
	}
	return end, z.d.Raw(b[:end])
}
