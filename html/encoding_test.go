package html

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"
)

func TestLookupEncoding(t *testing.T) {
	var encodingTests = []struct {
		label string
		name  string
	}{
		{"utf-8", "utf-8"},
		{"UTF8", "utf-8"},
		{"latin1", "windows-1252"},
		{" windows-1251 ", "windows-1251"},
		{"shift_jis", "shift_jis"},
	}
	for _, tt := range encodingTests {
		t.Run(tt.label, func(t *testing.T) {
			enc, err := LookupEncoding(tt.label)
			test.Error(t, err)
			test.String(t, enc.Name(), tt.name)
		})
	}

	for _, label := range []string{"utf-16le", "utf-16", "iso-2022-jp", "csiso2022kr", "bogus"} {
		_, err := LookupEncoding(label)
		test.That(t, errors.Is(err, ErrUnsupportedEncoding), label)
	}

	test.That(t, UTF8.isUTF8())
	test.String(t, (*Encoding)(nil).Name(), "utf-8")
}

func TestEncodeUnsupported(t *testing.T) {
	enc, err := LookupEncoding("windows-1252")
	test.Error(t, err)
	test.String(t, string(enc.encode("a€☃")), "a\x80&#9731;")
	test.String(t, enc.decode([]byte("caf\xe9")), "café")
	test.String(t, string(UTF8.encode("☃")), "☃")
}
