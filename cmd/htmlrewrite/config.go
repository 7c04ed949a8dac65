package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the rule file of the command.
type Config struct {
	StripComments bool          `toml:"strip_comments"`
	Elements      []ElementRule `toml:"element"`
}

// ElementRule rewrites every element with a name.
type ElementRule struct {
	Name             string            `toml:"name"`
	SetAttributes    map[string]string `toml:"set_attributes"`
	RemoveAttributes []string          `toml:"remove_attributes"`
	Remove           bool              `toml:"remove"` // drop the element with its content
	Text             string            `toml:"text"`   // upper or lower
}

// LoadConfig reads a rule file. Unknown keys are an error.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// ParseConfig parses and validates the TOML of a rule file.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for i := range cfg.Elements {
		rule := &cfg.Elements[i]
		rule.Name = strings.ToLower(strings.TrimSpace(rule.Name))
		if rule.Name == "" {
			return nil, fmt.Errorf("element %d: missing name", i+1)
		} else if seen[rule.Name] {
			return nil, fmt.Errorf("element %s: defined twice", rule.Name)
		} else if rule.Text != "" && rule.Text != "upper" && rule.Text != "lower" {
			return nil, fmt.Errorf("element %s: text must be upper or lower, not %q", rule.Name, rule.Text)
		}
		for name := range rule.SetAttributes {
			if name == "" || strings.ContainsAny(name, " \t\n\r\f/>=\"'<\x00") {
				return nil, fmt.Errorf("element %s: invalid attribute name %q", rule.Name, name)
			}
		}
		seen[rule.Name] = true
	}
	return cfg, nil
}
