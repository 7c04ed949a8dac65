//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"bytes"

	"github.com/tdewolff/rewrite/html"
	"github.com/tdewolff/rewrite/transform"
)

// rewrite passes data through a stream in chunks of the given size. It returns the output and a
// record of the delivered tokens.
func rewrite(data []byte, chunkSize int) ([]byte, []byte) {
	var out bytes.Buffer
	var tokens bytes.Buffer
	ctrl := &transform.Handler{Flags: html.CaptureAll, Func: func(t html.Token) error {
		tokens.WriteString(t.Type().String())
		tokens.Write(t.Raw())
		return nil
	}}
	st, err := transform.NewStream(ctrl, func(b []byte) { out.Write(b) }, transform.Settings{})
	if err != nil {
		panic(err)
	}
	for i := 0; i < len(data); i += chunkSize {
		if err := st.Write(data[i:min(i+chunkSize, len(data))]); err != nil {
			panic(err)
		}
	}
	if err := st.End(); err != nil {
		panic(err)
	}
	return out.Bytes(), tokens.Bytes()
}

func Fuzz(data []byte) int {
	out, whole := rewrite(data, len(data)+1)
	if !bytes.Equal(out, data) {
		panic("unmodified output differs from input")
	}
	for _, chunkSize := range []int{1, 3, 64} {
		if _, tokens := rewrite(data, chunkSize); !bytes.Equal(tokens, whole) {
			panic("chunk boundaries change the token stream")
		}
	}
	return 1
}
