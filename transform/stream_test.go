package transform

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tdewolff/rewrite"
	"github.com/tdewolff/rewrite/html"
)

func uppercase(t html.Token) error {
	if text, ok := t.(*html.Text); ok {
		text.SetContent(strings.ToUpper(text.Content()))
	}
	return nil
}

func rewriteChunks(t *testing.T, ctrl Controller, s Settings, chunks ...string) string {
	t.Helper()
	var out bytes.Buffer
	st, err := NewStream(ctrl, func(b []byte) { out.Write(b) }, s)
	require.NoError(t, err)
	for _, chunk := range chunks {
		require.NoError(t, st.Write([]byte(chunk)))
	}
	require.NoError(t, st.End())
	return out.String()
}

func TestUppercase(t *testing.T) {
	ctrl := &Handler{Flags: html.CaptureAll, Func: uppercase}
	assert.Equal(t, "<div>HELLO</div>", rewriteChunks(t, ctrl, Settings{}, "<div>Hello</div>"))
	assert.Equal(t, "<div>HELLO</div>", rewriteChunks(t, ctrl, Settings{}, "<di", "v>Hel", "lo</div>"))
}

func TestRoundTrip(t *testing.T) {
	tags := []string{"div", "p", "a", "span", "title", "textarea", "script", "style", "svg", "h1", "custom-element"}
	for _, tag := range tags {
		doc := fmt.Sprintf(`<%s attr="v">text</%s>`, tag, tag)
		for _, flags := range []html.CaptureFlags{html.CaptureAll, html.CaptureDefault, html.CaptureNone} {
			out := rewriteChunks(t, &Handler{Flags: flags}, Settings{}, doc)
			assert.Equal(t, doc, out, "flags %v", flags)
		}
	}
}

func TestPassthroughWithoutTextCapture(t *testing.T) {
	var types []html.TokenType
	ctrl := &Handler{Flags: html.CaptureDefault, Func: func(t html.Token) error {
		types = append(types, t.Type())
		return nil
	}}
	out := rewriteChunks(t, ctrl, Settings{}, "<p>Some ", "text</p>")
	assert.Equal(t, "<p>Some text</p>", out)
	assert.Equal(t, []html.TokenType{html.StartTagToken, html.EndTagToken, html.EOFToken}, types)
}

func TestScriptContent(t *testing.T) {
	var starts []string
	ctrl := &recordingController{Handler: Handler{Flags: html.CaptureAll}, starts: &starts}
	out := rewriteChunks(t, ctrl, Settings{}, "<script>if (a<b) { x('<div>') }</script><b>")
	assert.Equal(t, "<script>if (a<b) { x('<div>') }</script><b>", out)
	assert.Equal(t, []string{"script", "b"}, starts)
}

type recordingController struct {
	Handler
	starts *[]string
}

func (c *recordingController) HandleStartTag(name html.LocalName, ns html.Namespace) (html.CaptureFlags, error) {
	*c.starts = append(*c.starts, name.String())
	return c.Flags, nil
}

// dropController drops the elements with the given name and everything inside them.
type dropController struct {
	name  string
	depth int
}

func (c *dropController) InitialCaptureFlags() html.CaptureFlags {
	return html.CaptureNone
}

func (c *dropController) HandleStartTag(name html.LocalName, _ html.Namespace) (html.CaptureFlags, error) {
	if name.Is(c.name) {
		c.depth++
		return html.CaptureNextStartTag, nil
	}
	return html.CaptureNone, nil
}

func (c *dropController) HandleEndTag(name html.LocalName) html.CaptureFlags {
	if name.Is(c.name) && c.depth > 0 {
		return html.CaptureNextEndTag
	}
	return html.CaptureNone
}

func (c *dropController) HandleToken(t html.Token) error {
	switch t.(type) {
	case *html.StartTag:
		t.Remove()
	case *html.EndTag:
		t.Remove()
		c.depth--
	}
	return nil
}

func (c *dropController) ShouldEmitContent() bool {
	return c.depth == 0
}

func TestShouldEmitContent(t *testing.T) {
	out := rewriteChunks(t, &dropController{name: "script"}, Settings{}, "<p>a<script>alert('<b>')</script>b</p>")
	assert.Equal(t, "<p>ab</p>", out)
}

func TestMemoryLimit(t *testing.T) {
	limiter := rewrite.NewSharedMemoryLimiter(16)
	st, err := NewStream(&Handler{Flags: html.CaptureAll}, func([]byte) {}, Settings{InitialBufferSize: 4, MemoryLimiter: limiter})
	require.NoError(t, err)
	assert.Equal(t, 4, limiter.Used())

	require.NoError(t, st.Write([]byte("<p>")))
	require.NoError(t, st.Write([]byte("0123456789")), "text up to the limit is retained")
	assert.Equal(t, 14, limiter.Used())

	err = st.Write([]byte("0123456789"))
	require.ErrorIs(t, err, rewrite.ErrMemoryLimitExceeded)
	assert.Equal(t, 0, limiter.Used(), "reservations are released on failure")
	assert.Equal(t, err, st.Write([]byte("x")), "failure is sticky")
	assert.Equal(t, err, st.End())
}

func TestMemoryLimitUncaptured(t *testing.T) {
	limiter := rewrite.NewSharedMemoryLimiter(16)
	var out bytes.Buffer
	st, err := NewStream(&Handler{Flags: html.CaptureNone}, func(b []byte) { out.Write(b) }, Settings{InitialBufferSize: 4, MemoryLimiter: limiter})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, st.Write([]byte("<p>uncaptured text is never retained</p>")))
	}
	require.NoError(t, st.End())
	assert.Equal(t, 100*len("<p>uncaptured text is never retained</p>"), out.Len())
	assert.Equal(t, 0, limiter.Used())
}

func TestMemoryLimitConstruction(t *testing.T) {
	limiter := rewrite.NewSharedMemoryLimiter(100)
	_, err := NewStream(&Handler{}, func([]byte) {}, Settings{InitialBufferSize: 200, MemoryLimiter: limiter})
	require.ErrorIs(t, err, rewrite.ErrMemoryLimitExceeded)
	assert.Equal(t, 0, limiter.Used())
}

func TestOutputBuffer(t *testing.T) {
	var chunks []string
	st, err := NewStream(&Handler{Flags: html.CaptureAll}, func(b []byte) { chunks = append(chunks, string(b)) }, Settings{InitialBufferSize: 8})
	require.NoError(t, err)
	require.NoError(t, st.Write([]byte("<p>a</p><p>b</p><div class=large-tag>")))
	require.NoError(t, st.End())

	assert.Equal(t, "<p>a</p><p>b</p><div class=large-tag>", strings.Join(chunks, ""))
	assert.Equal(t, []string{"<p>a</p>", "<p>b</p>", "<div class=large-tag>"}, chunks)
	assert.Equal(t, st.BytesIn(), st.BytesOut())
}

type pauseController struct {
	Handler
	ready bool
	calls int
}

func (c *pauseController) HandleStartTag(name html.LocalName, ns html.Namespace) (html.CaptureFlags, error) {
	if name.Is("img") {
		c.calls++
		if !c.ready {
			return html.CaptureNone, rewrite.ErrRetryLater
		}
	}
	return c.Flags, nil
}

func TestPauseResume(t *testing.T) {
	var out bytes.Buffer
	ctrl := &pauseController{Handler: Handler{Flags: html.CaptureAll}}
	st, err := NewStream(ctrl, func(b []byte) { out.Write(b) }, Settings{})
	require.NoError(t, err)

	require.NoError(t, st.Write([]byte("<p>a<img src=x>b")))
	assert.True(t, st.Paused())
	assert.Equal(t, "<p>a", out.String())

	require.NoError(t, st.Resume())
	assert.True(t, st.Paused())
	require.NoError(t, st.Write([]byte("c</p>")))
	assert.True(t, st.Paused())
	assert.Equal(t, "<p>a", out.String())

	ctrl.ready = true
	require.NoError(t, st.Resume())
	assert.False(t, st.Paused())
	assert.Equal(t, "<p>a<img src=x>bc</p>", out.String())
	require.NoError(t, st.End())
	assert.Equal(t, "<p>a<img src=x>bc</p>", out.String())
	assert.Equal(t, 4, ctrl.calls)
}

func TestEndWhilePaused(t *testing.T) {
	ctrl := &pauseController{Handler: Handler{Flags: html.CaptureAll}}
	st, err := NewStream(ctrl, func([]byte) {}, Settings{})
	require.NoError(t, err)
	require.NoError(t, st.Write([]byte("<img>")))
	require.ErrorIs(t, st.End(), rewrite.ErrUnresolvedPause)
	require.ErrorIs(t, st.Write(nil), rewrite.ErrUnresolvedPause)
}

var errBroken = errors.New("broken")

func TestControllerError(t *testing.T) {
	ctrl := &Handler{Flags: html.CaptureAll, Func: func(t html.Token) error {
		if t.Type() == html.TextToken {
			return errBroken
		}
		return nil
	}}
	limiter := rewrite.NewSharedMemoryLimiter(1024)
	st, err := NewStream(ctrl, func([]byte) {}, Settings{InitialBufferSize: 64, MemoryLimiter: limiter})
	require.NoError(t, err)
	require.NoError(t, st.Write([]byte("<p>te")))

	err = st.Write([]byte("xt</p>"))
	require.ErrorIs(t, err, errBroken)
	var ctrlErr *rewrite.ControllerError
	require.ErrorAs(t, err, &ctrlErr)
	assert.Equal(t, int64(3), ctrlErr.Offset)
	assert.Equal(t, err, st.End())
	assert.Equal(t, 0, limiter.Used())
}

func TestWriteAfterEnd(t *testing.T) {
	st, err := NewStream(&Handler{}, func([]byte) {}, Settings{})
	require.NoError(t, err)
	require.NoError(t, st.End())
	require.ErrorIs(t, st.Write([]byte("x")), rewrite.ErrStreamEnded)
	require.ErrorIs(t, st.End(), rewrite.ErrStreamEnded)
}

func TestPreseededParser(t *testing.T) {
	var out bytes.Buffer
	st, err := NewStream(&Handler{Flags: html.CaptureAll, Func: uppercase}, func(b []byte) { out.Write(b) }, Settings{})
	require.NoError(t, err)
	st.Parser().SwitchTextType(html.ScriptData)
	st.Parser().SetLastStartTagNameHash(html.ToTagNameHash([]byte("script")))
	require.NoError(t, st.Write([]byte("a<b>c</script>d")))
	require.NoError(t, st.End())
	assert.Equal(t, "A<B>C</script>D", out.String())
}

func TestEncoding(t *testing.T) {
	enc, err := html.LookupEncoding("windows-1252")
	require.NoError(t, err)
	ctrl := &Handler{Flags: html.CaptureAll, Func: func(t html.Token) error {
		if text, ok := t.(*html.Text); ok {
			text.SetContent(text.Content() + " ☃")
		}
		return nil
	}}
	out := rewriteChunks(t, ctrl, Settings{Encoding: enc}, "<p>caf\xe9</p>")
	assert.Equal(t, "<p>caf\xe9 &#9731;</p>", out)
}

func TestConcurrentStreams(t *testing.T) {
	const streams = 16
	limiter := rewrite.NewSharedMemoryLimiter(streams * 256)
	doc := strings.Repeat("<p class=x>some <b>text</b></p>", 20)

	var g errgroup.Group
	outs := make([]string, streams)
	for i := 0; i < streams; i++ {
		g.Go(func() error {
			var out bytes.Buffer
			st, err := NewStream(&Handler{Flags: html.CaptureAll, Func: uppercase}, func(b []byte) { out.Write(b) }, Settings{InitialBufferSize: 64, MemoryLimiter: limiter})
			if err != nil {
				return err
			}
			for j := 0; j < len(doc); j += 7 {
				if err := st.Write([]byte(doc[j:min(j+7, len(doc))])); err != nil {
					return err
				}
			}
			if err := st.End(); err != nil {
				return err
			}
			outs[i] = out.String()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, out := range outs {
		assert.Equal(t, strings.Repeat("<p class=x>SOME <b>TEXT</b></p>", 20), out)
	}
	assert.Equal(t, 0, limiter.Used())
}
