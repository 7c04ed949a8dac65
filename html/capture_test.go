package html

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestCaptureFlags(t *testing.T) {
	test.String(t, CaptureNone.String(), "None")
	test.String(t, CaptureAll.String(), "All")
	test.String(t, CaptureDefault.String(), "NextStartTag|NextEndTag")
	test.String(t, (CaptureText | CaptureComments).String(), "Text|Comments")

	test.That(t, CaptureAll.Has(CaptureDefault))
	test.That(t, CaptureDefault.Has(CaptureNextEndTag))
	test.That(t, !CaptureDefault.Has(CaptureText))
	test.That(t, CaptureText.Has(CaptureNone))
}

func TestTextTypeString(t *testing.T) {
	test.String(t, ScriptData.String(), "ScriptData")
	test.String(t, CDataSection.String(), "CDataSection")
	test.String(t, TextType(100).String(), "Invalid(100)")
}
