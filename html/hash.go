package html

import (
	"github.com/tdewolff/rewrite"
	"golang.org/x/net/html/atom"
)

// TagNameHash is a fingerprint of a tag name, used to recognize the end tag that closes raw text
// without comparing strings. Each character takes five bits: ASCII letters (case-insensitive) and
// the digits 1 to 6, which covers every HTML element name, for up to twelve characters. Any other
// name hashes to InvalidTagNameHash and can only be matched by exact comparison.
type TagNameHash uint64

const (
	// EmptyTagNameHash is the hash of the empty name, the state before any start tag was seen.
	EmptyTagNameHash TagNameHash = 0
	// InvalidTagNameHash is the hash of names that cannot be fingerprinted.
	InvalidTagNameHash TagNameHash = ^TagNameHash(0)
)

// hashFull is reached exactly when twelve characters are folded in, as the code of the first
// character is never zero.
const hashFull TagNameHash = 1 << 55

// ToTagNameHash returns the hash of a tag name.
func ToTagNameHash(name []byte) TagNameHash {
	h := EmptyTagNameHash
	for _, c := range name {
		h = h.Update(c)
	}
	return h
}

// Update returns the hash with one more character folded in.
func (h TagNameHash) Update(c byte) TagNameHash {
	if h == InvalidTagNameHash || h >= hashFull {
		return InvalidTagNameHash
	}
	var code TagNameHash
	if 'a' <= c && c <= 'z' {
		code = TagNameHash(c-'a') + 6
	} else if 'A' <= c && c <= 'Z' {
		code = TagNameHash(c-'A') + 6
	} else if '1' <= c && c <= '6' && h != EmptyTagNameHash {
		code = TagNameHash(c - '1')
	} else {
		return InvalidTagNameHash
	}
	return h<<5 | code
}

// IsValid returns false for InvalidTagNameHash.
func (h TagNameHash) IsValid() bool {
	return h != InvalidTagNameHash
}

////////////////////////////////////////////////////////////////

// LocalName is a tag name as it appears in the source together with its hash. Its bytes are only
// valid during the controller call that receives it.
type LocalName struct {
	Hash TagNameHash
	raw  []byte
	enc  *Encoding
}

// NewLocalName returns a LocalName for a name given in the source encoding.
func NewLocalName(name []byte, enc *Encoding) LocalName {
	return LocalName{ToTagNameHash(name), name, enc}
}

// Bytes returns the name exactly as written in the source.
func (n LocalName) Bytes() []byte {
	return n.raw
}

// String returns the lowercased name.
func (n LocalName) String() string {
	return n.enc.decode(rewrite.AppendLower(nil, n.raw))
}

// Is returns true when the name equals the given lowercase name. For names that can be hashed only
// the hashes are compared.
func (n LocalName) Is(lower string) bool {
	if n.Hash.IsValid() {
		return n.Hash == ToTagNameHash([]byte(lower))
	}
	return rewrite.EqualFold(n.raw, []byte(lower))
}

// IsVoid returns true for HTML elements that have no content and no end tag, such as br and img.
func (n LocalName) IsVoid() bool {
	return isVoid(atom.Lookup(rewrite.AppendLower(nil, n.raw)))
}
