package html

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/tdewolff/rewrite"
	"golang.org/x/net/html"
)

// Errors returned by token mutations that would change the structure of the document.
var (
	ErrInvalidComment       = errors.New("comment content must not contain -->")
	ErrInvalidTagName       = errors.New("invalid tag name")
	ErrInvalidAttributeName = errors.New("invalid attribute name")
	ErrInvalidText          = errors.New("text content must not end its element")
)

// validName returns true if s lexes back as a single tag or attribute name.
func validName(s string, attr bool) bool {
	if s == "" || !attr && !rewrite.IsAlpha(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '/', '>', '=', 0:
			return false
		case '"', '\'', '<':
			if attr {
				return false
			}
		}
	}
	return true
}

// TokenType determines the type of token.
type TokenType uint32

// TokenType values.
const (
	StartTagToken TokenType = iota + 1
	EndTagToken
	TextToken
	CommentToken
	DoctypeToken
	EOFToken
)

// String returns the string representation of a TokenType.
func (tt TokenType) String() string {
	switch tt {
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case TextToken:
		return "Text"
	case CommentToken:
		return "Comment"
	case DoctypeToken:
		return "Doctype"
	case EOFToken:
		return "EOF"
	}
	return "Invalid(" + strconv.Itoa(int(tt)) + ")"
}

////////////////////////////////////////////////////////////////

// Token is a lexical unit of an HTML document. Tokens reference the buffer of the parser and are
// only valid during the call they are delivered in. Unmodified tokens serialize to their raw bytes.
type Token interface {
	Type() TokenType
	// Raw returns the source bytes the token was lexed from.
	Raw() []byte
	// Remove drops the token from the output.
	Remove()
	Removed() bool
	// Serialize passes the serialized token to emit, possibly in several slices.
	Serialize(emit func([]byte))
}

type base struct {
	raw     []byte
	enc     *Encoding
	removed bool
}

func (t *base) Raw() []byte {
	return t.raw
}

func (t *base) Remove() {
	t.removed = true
}

func (t *base) Removed() bool {
	return t.removed
}

////////////////////////////////////////////////////////////////

// Attribute is an attribute of a tag.
type Attribute struct {
	name, value []byte
	raw         []byte // nil when set by the controller
	enc         *Encoding
}

// Name returns the lowercased attribute name.
func (a Attribute) Name() string {
	return a.enc.decode(rewrite.AppendLower(nil, a.name))
}

// RawName returns the attribute name as written.
func (a Attribute) RawName() []byte {
	return a.name
}

// Value returns the attribute value with character references decoded.
func (a Attribute) Value() string {
	return html.UnescapeString(a.enc.decode(a.value))
}

// RawValue returns the attribute value as written, without quotes.
func (a Attribute) RawValue() []byte {
	return a.value
}

// Raw returns the source bytes of the attribute. It is nil for attributes set by the controller.
func (a Attribute) Raw() []byte {
	return a.raw
}

func (a Attribute) is(lower []byte) bool {
	return rewrite.EqualFold(a.name, lower)
}

type attrList struct {
	tag     []byte
	nameEnd int
	list    []Attribute
	parsed  bool
}

func (l *attrList) parse(enc *Encoding) {
	if l.parsed {
		return
	}
	l.parsed = true
	for _, span := range attributeSpans(l.tag, l.nameEnd) {
		attr := Attribute{
			name: l.tag[span.start:span.nameEnd],
			raw:  l.tag[span.start:span.end],
			enc:  enc,
		}
		if span.valStart != -1 {
			attr.value = l.tag[span.valStart:span.valEnd]
		}
		l.list = append(l.list, attr)
	}
}

func (l *attrList) index(name string, enc *Encoding) int {
	l.parse(enc)
	lower := []byte(strings.ToLower(name))
	for i, attr := range l.list {
		if attr.is(lower) {
			return i
		}
	}
	return -1
}

////////////////////////////////////////////////////////////////

// StartTag is a start tag token.
type StartTag struct {
	base
	attrList
	name        []byte
	hash        TagNameHash
	ns          Namespace
	selfClosing bool
	modified    bool
}

func newStartTag(raw []byte, nameEnd int, ns Namespace, selfClosing bool, enc *Encoding) *StartTag {
	name := raw[1:nameEnd]
	return &StartTag{
		base:        base{raw: raw, enc: enc},
		attrList:    attrList{tag: raw, nameEnd: nameEnd},
		name:        name,
		hash:        ToTagNameHash(name),
		ns:          ns,
		selfClosing: selfClosing,
	}
}

// Type returns StartTagToken.
func (t *StartTag) Type() TokenType {
	return StartTagToken
}

// Name returns the lowercased tag name.
func (t *StartTag) Name() string {
	return t.enc.decode(rewrite.AppendLower(nil, t.name))
}

// LocalName returns the tag name with its hash.
func (t *StartTag) LocalName() LocalName {
	return LocalName{t.hash, t.name, t.enc}
}

// NameHash returns the hash of the tag name.
func (t *StartTag) NameHash() TagNameHash {
	return t.hash
}

// SetName renames the tag. The content model of the element is not affected.
func (t *StartTag) SetName(name string) error {
	if !validName(name, false) {
		return ErrInvalidTagName
	}
	t.name = t.enc.encodeRaw(name)
	t.hash = ToTagNameHash(t.name)
	t.modified = true
	return nil
}

// Namespace returns the namespace the element is created in.
func (t *StartTag) Namespace() Namespace {
	return t.ns
}

func (t *StartTag) SelfClosing() bool {
	return t.selfClosing
}

func (t *StartTag) SetSelfClosing(selfClosing bool) {
	if t.selfClosing != selfClosing {
		t.selfClosing = selfClosing
		t.modified = true
	}
}

// Attributes returns the attributes in source order. The slice must not be modified.
func (t *StartTag) Attributes() []Attribute {
	t.parse(t.enc)
	return t.list
}

// Attribute returns the value of the first attribute with the given name.
func (t *StartTag) Attribute(name string) (string, bool) {
	if i := t.index(name, t.enc); i != -1 {
		return t.list[i].Value(), true
	}
	return "", false
}

func (t *StartTag) HasAttribute(name string) bool {
	return t.index(name, t.enc) != -1
}

// SetAttribute sets the value of an attribute, replacing the first attribute with that name or
// appending a new one.
func (t *StartTag) SetAttribute(name, value string) error {
	if !validName(name, true) {
		return ErrInvalidAttributeName
	}
	attr := Attribute{
		name:  t.enc.encodeRaw(strings.ToLower(name)),
		value: t.enc.encode(strings.ReplaceAll(value, "&", "&amp;")),
		enc:   t.enc,
	}
	if i := t.index(name, t.enc); i != -1 {
		t.list[i] = attr
	} else {
		t.list = append(t.list, attr)
	}
	t.modified = true
	return nil
}

// RemoveAttribute removes all attributes with the given name.
func (t *StartTag) RemoveAttribute(name string) {
	for i := t.index(name, t.enc); i != -1; i = t.index(name, t.enc) {
		t.list = append(t.list[:i], t.list[i+1:]...)
		t.modified = true
	}
}

func (t *StartTag) Serialize(emit func([]byte)) {
	if t.removed {
		return
	} else if !t.modified {
		emit(t.raw)
		return
	}
	t.parse(t.enc)
	b := make([]byte, 0, len(t.raw)+16)
	b = append(b, '<')
	b = append(b, t.name...)
	b = appendAttributes(b, t.list)
	if t.selfClosing {
		b = append(b, '/')
	}
	b = append(b, '>')
	emit(b)
}

////////////////////////////////////////////////////////////////

// EndTag is an end tag token.
type EndTag struct {
	base
	attrList
	name     []byte
	hash     TagNameHash
	modified bool
}

func newEndTag(raw []byte, nameEnd int, enc *Encoding) *EndTag {
	name := raw[2:nameEnd]
	return &EndTag{
		base:     base{raw: raw, enc: enc},
		attrList: attrList{tag: raw, nameEnd: nameEnd},
		name:     name,
		hash:     ToTagNameHash(name),
	}
}

// Type returns EndTagToken.
func (t *EndTag) Type() TokenType {
	return EndTagToken
}

// Name returns the lowercased tag name.
func (t *EndTag) Name() string {
	return t.enc.decode(rewrite.AppendLower(nil, t.name))
}

// LocalName returns the tag name with its hash.
func (t *EndTag) LocalName() LocalName {
	return LocalName{t.hash, t.name, t.enc}
}

// NameHash returns the hash of the tag name.
func (t *EndTag) NameHash() TagNameHash {
	return t.hash
}

// SetName renames the tag. Renaming drops any attributes, which have no meaning on end tags.
func (t *EndTag) SetName(name string) error {
	if !validName(name, false) {
		return ErrInvalidTagName
	}
	t.name = t.enc.encodeRaw(name)
	t.hash = ToTagNameHash(t.name)
	t.modified = true
	return nil
}

// Attributes returns the attributes written in the end tag.
func (t *EndTag) Attributes() []Attribute {
	t.parse(t.enc)
	return t.list
}

func (t *EndTag) Serialize(emit func([]byte)) {
	if t.removed {
		return
	} else if !t.modified {
		emit(t.raw)
		return
	}
	b := make([]byte, 0, len(t.name)+3)
	b = append(b, '<', '/')
	b = append(b, t.name...)
	b = append(b, '>')
	emit(b)
}

////////////////////////////////////////////////////////////////

// Text is a run of character data.
type Text struct {
	base
	textType TextType
	endName  []byte // lowercase name of the element that raw text and script data end at
	content  []byte
	modified bool
}

func newText(raw []byte, tt TextType, enc *Encoding) *Text {
	return &Text{base: base{raw: raw, enc: enc}, textType: tt}
}

// closes returns true if s contains an end tag that would end the element around the text, or
// opens a double escaped script that hides the real end tag. Without a known element name any end tag counts.
func (t *Text) closes(s string) bool {
	if t.textType != RawText && t.textType != ScriptData {
		return false
	}
	b := []byte(s)
	for i := bytes.Index(b, []byte("</")); i != -1; i = bytes.Index(b, []byte("</")) {
		b = b[i+2:]
		if len(t.endName) == 0 {
			if 0 < len(b) && rewrite.IsAlpha(b[0]) {
				return true
			}
		} else if rewrite.HasPrefixFold(b, t.endName) {
			return true
		}
	}
	if t.textType == ScriptData {
		if i := strings.LastIndex(s, "<!--"); i != -1 && !strings.Contains(s[i+4:], "-->") {
			return strings.Contains(strings.ToLower(s[i+4:]), "<script")
		}
	}
	return false
}

// Type returns TextToken.
func (t *Text) Type() TokenType {
	return TextToken
}

// TextType returns the content model the text was lexed in.
func (t *Text) TextType() TextType {
	return t.textType
}

// Content returns the text with character references decoded where they are interpreted.
func (t *Text) Content() string {
	s := t.enc.decode(t.RawContent())
	if t.textType.decodesReferences() {
		return html.UnescapeString(s)
	}
	return s
}

// RawContent returns the text as it will be written.
func (t *Text) RawContent() []byte {
	if t.modified {
		return t.content
	}
	return t.raw
}

// SetContent replaces the text, escaping it for its content model. Raw text and script data cannot be
// escaped, so content that would end the element returns ErrInvalidText.
func (t *Text) SetContent(s string) error {
	if t.closes(s) {
		return ErrInvalidText
	}
	if t.textType.decodesReferences() {
		t.content = t.enc.encode(escapeText(s, t.textType))
	} else {
		t.content = t.enc.encodeRaw(escapeText(s, t.textType))
	}
	t.modified = true
	return nil
}

// SetRawContent replaces the text with bytes that are written as is.
func (t *Text) SetRawContent(b []byte) {
	t.content = rewrite.Copy(b)
	t.modified = true
}

func (t *Text) Serialize(emit func([]byte)) {
	if !t.removed {
		if b := t.RawContent(); len(b) != 0 {
			emit(b)
		}
	}
}

////////////////////////////////////////////////////////////////

// Comment is a comment token, including bogus comments such as <?xml ...>.
type Comment struct {
	base
	content  []byte
	modified bool
}

// Type returns CommentToken.
func (t *Comment) Type() TokenType {
	return CommentToken
}

// Content returns the text of the comment.
func (t *Comment) Content() string {
	return t.enc.decode(t.content)
}

// SetContent replaces the text of the comment.
func (t *Comment) SetContent(s string) error {
	if strings.Contains(s, "-->") || strings.Contains(s, "--!>") || strings.HasPrefix(s, ">") || strings.HasPrefix(s, "->") {
		return ErrInvalidComment
	}
	t.content = t.enc.encodeRaw(s)
	t.modified = true
	return nil
}

func (t *Comment) Serialize(emit func([]byte)) {
	if t.removed {
		return
	} else if !t.modified {
		emit(t.raw)
		return
	}
	b := make([]byte, 0, len(t.content)+7)
	b = append(b, "<!--"...)
	b = append(b, t.content...)
	b = append(b, "-->"...)
	emit(b)
}

////////////////////////////////////////////////////////////////

// Doctype is a DOCTYPE token.
type Doctype struct {
	base
	name                 []byte
	publicID, systemID   []byte
	hasPublic, hasSystem bool
	forceQuirks          bool
}

// Type returns DoctypeToken.
func (t *Doctype) Type() TokenType {
	return DoctypeToken
}

// Name returns the lowercased doctype name, which is empty when missing.
func (t *Doctype) Name() string {
	return t.enc.decode(t.name)
}

func (t *Doctype) PublicID() (string, bool) {
	return t.enc.decode(t.publicID), t.hasPublic
}

func (t *Doctype) SystemID() (string, bool) {
	return t.enc.decode(t.systemID), t.hasSystem
}

// ForceQuirks returns true for malformed doctypes that put documents in quirks mode.
func (t *Doctype) ForceQuirks() bool {
	return t.forceQuirks
}

func (t *Doctype) Serialize(emit func([]byte)) {
	if !t.removed {
		emit(t.raw)
	}
}

////////////////////////////////////////////////////////////////

// EOF marks the end of the document.
type EOF struct {
	base
}

// Type returns EOFToken.
func (t *EOF) Type() TokenType {
	return EOFToken
}

func (t *EOF) Serialize(emit func([]byte)) {}
