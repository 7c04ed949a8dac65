package transform

import (
	"github.com/tdewolff/rewrite/html"
)

// Controller is the policy of a stream. It decides at every tag boundary what is captured until the
// next boundary, and inspects and mutates the captured tokens.
type Controller interface {
	// InitialCaptureFlags returns the flags before the first tag.
	InitialCaptureFlags() html.CaptureFlags
	// HandleStartTag returns the flags for a start tag and the content following it. It may return
	// rewrite.ErrRetryLater to pause the stream before the tag.
	HandleStartTag(name html.LocalName, ns html.Namespace) (html.CaptureFlags, error)
	HandleEndTag(name html.LocalName) html.CaptureFlags
	// HandleToken receives every captured token and may mutate or remove it. The token is only valid
	// during the call.
	HandleToken(t html.Token) error
	// ShouldEmitContent returns whether bytes that are not captured are written to the output.
	ShouldEmitContent() bool
}

// Handler is a Controller that captures the same tokens everywhere and passes them to Func.
type Handler struct {
	Flags html.CaptureFlags
	Func  func(html.Token) error
}

func (h *Handler) InitialCaptureFlags() html.CaptureFlags {
	return h.Flags
}

func (h *Handler) HandleStartTag(html.LocalName, html.Namespace) (html.CaptureFlags, error) {
	return h.Flags, nil
}

func (h *Handler) HandleEndTag(html.LocalName) html.CaptureFlags {
	return h.Flags
}

func (h *Handler) HandleToken(t html.Token) error {
	if h.Func == nil {
		return nil
	}
	return h.Func(t)
}

func (h *Handler) ShouldEmitContent() bool {
	return true
}
