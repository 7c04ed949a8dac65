package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tdewolff/rewrite/html"
)

type openRule struct {
	name string
	rule *ElementRule
}

// rulesController applies a Config. It tracks the open elements that have a rule, which decide
// whether content is dropped and how text is transformed.
type rulesController struct {
	cfg      *Config
	rules    map[string]*ElementRule
	open     []openRule
	dropping int
	dropEnd  bool
}

func newRulesController(cfg *Config) *rulesController {
	c := &rulesController{
		cfg:   cfg,
		rules: map[string]*ElementRule{},
	}
	for i := range cfg.Elements {
		c.rules[cfg.Elements[i].Name] = &cfg.Elements[i]
	}
	return c
}

// textRule returns the text transformation of the innermost open element that has one.
func (c *rulesController) textRule() string {
	for i := len(c.open) - 1; 0 <= i; i-- {
		if c.open[i].rule.Text != "" {
			return c.open[i].rule.Text
		}
	}
	return ""
}

func (c *rulesController) flags() html.CaptureFlags {
	flags := html.CaptureNone
	if c.cfg.StripComments {
		flags |= html.CaptureComments
	}
	if c.dropping == 0 && c.textRule() != "" {
		flags |= html.CaptureText
	}
	return flags
}

func (c *rulesController) InitialCaptureFlags() html.CaptureFlags {
	return c.flags()
}

func (c *rulesController) HandleStartTag(name html.LocalName, _ html.Namespace) (html.CaptureFlags, error) {
	rule, ok := c.rules[name.String()]
	if !ok {
		return c.flags(), nil
	}
	if !name.IsVoid() {
		c.open = append(c.open, openRule{name.String(), rule})
		if rule.Remove {
			c.dropping++
		}
	} else if rule.Remove && c.dropping == 0 {
		// removed in HandleToken
		return c.flags() | html.CaptureNextStartTag, nil
	}
	flags := c.flags() | html.CaptureNextStartTag
	if len(rule.SetAttributes) != 0 || len(rule.RemoveAttributes) != 0 {
		flags |= html.CaptureStartTagContent
	}
	return flags, nil
}

func (c *rulesController) HandleEndTag(name html.LocalName) html.CaptureFlags {
	c.dropEnd = false
	lower := name.String()
	for i := len(c.open) - 1; 0 <= i; i-- {
		if c.open[i].name == lower {
			c.dropEnd = c.dropping != 0
			c.close(i)
			return c.flags() | html.CaptureNextEndTag
		}
	}
	return c.flags()
}

// close closes the open elements from index i inward.
func (c *rulesController) close(i int) {
	for _, open := range c.open[i:] {
		if open.rule.Remove {
			c.dropping--
		}
	}
	c.open = c.open[:i]
}

func (c *rulesController) HandleToken(t html.Token) error {
	switch t := t.(type) {
	case *html.StartTag:
		rule := c.rules[t.Name()]
		if c.dropping != 0 || rule != nil && rule.Remove {
			t.Remove()
		} else if rule != nil {
			for _, name := range rule.RemoveAttributes {
				t.RemoveAttribute(name)
			}
			for _, name := range slices.Sorted(maps.Keys(rule.SetAttributes)) {
				if err := t.SetAttribute(name, rule.SetAttributes[name]); err != nil {
					return fmt.Errorf("element %s: attribute %q: %w", rule.Name, name, err)
				}
			}
		}
		if t.SelfClosing() && t.Namespace() != html.HTML && 0 < len(c.open) && c.open[len(c.open)-1].name == t.Name() {
			c.close(len(c.open) - 1)
		}
	case *html.EndTag:
		if c.dropEnd {
			t.Remove()
		}
	case *html.Text:
		if c.dropping != 0 {
			t.Remove()
		} else if rule := c.textRule(); rule == "upper" {
			return t.SetContent(strings.ToUpper(t.Content()))
		} else if rule == "lower" {
			return t.SetContent(strings.ToLower(t.Content()))
		}
	case *html.Comment:
		if c.cfg.StripComments || c.dropping != 0 {
			t.Remove()
		}
	}
	return nil
}

func (c *rulesController) ShouldEmitContent() bool {
	return c.dropping == 0
}
