package html

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnsupportedEncoding is returned for encodings the tokenizer cannot scan, which are those where
// ASCII markup characters are not encoded as single ASCII bytes.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Encoding is the character encoding of a stream. Markup is scanned as ASCII bytes, strings passed to
// and from tokens are converted between Go strings (UTF-8) and the encoding.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// UTF8 is the default encoding.
var UTF8 = &Encoding{"utf-8", unicode.UTF8}

// LookupEncoding returns the encoding for a WHATWG encoding label such as "utf-8", "latin1" or
// "windows-1251".
func LookupEncoding(label string) (*Encoding, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	switch name {
	case "utf-8":
		return UTF8, nil
	case "utf-16be", "utf-16le", "iso-2022-jp", "replacement":
		return nil, fmt.Errorf("%w: %s is not ASCII-compatible", ErrUnsupportedEncoding, name)
	}
	return &Encoding{name, enc}, nil
}

// Name returns the canonical WHATWG name.
func (e *Encoding) Name() string {
	if e == nil {
		return UTF8.name
	}
	return e.name
}

func (e *Encoding) isUTF8() bool {
	return e == nil || e == UTF8
}

// decode converts bytes in the encoding to a string. Undecodable bytes become U+FFFD.
func (e *Encoding) decode(b []byte) string {
	if e.isUTF8() {
		return string(b)
	}
	s, err := e.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// encode converts a string to the encoding. Characters that cannot be represented are written as
// numeric character references, so the result must only be used where references are interpreted.
func (e *Encoding) encode(s string) []byte {
	if e.isUTF8() {
		return []byte(s)
	}
	b, err := encoding.HTMLEscapeUnsupported(e.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}

// encodeRaw converts a string to the encoding for contexts where character references are not
// interpreted. Characters that cannot be represented are replaced by the encoding's substitute.
func (e *Encoding) encodeRaw(s string) []byte {
	if e.isUTF8() {
		return []byte(s)
	}
	b, err := encoding.ReplaceUnsupported(e.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}
