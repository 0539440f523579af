// Package level classifies free-text seniority and title strings into the
// closed level vocabulary.
//
// The keyword table is data, not code: a YAML document with a version and an
// ordered list of rules. A default table is embedded; deployments may point
// the classifier at their own file to fix misclassifications without a
// rebuild. Classification is best effort and lossy.
package level

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/trajectory/internal/domain/model"
)

//go:embed rules.yaml
var defaultRules []byte

// Table is the on-disk form of the keyword table.
type Table struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Rule maps any of its keywords to Level.
type Rule struct {
	Level    string   `yaml:"level"`
	Keywords []string `yaml:"keywords"`
}

type compiledRule struct {
	level   model.Level
	pattern *regexp.Regexp
}

// Classifier maps free text to a level. It is safe for concurrent use.
type Classifier struct {
	version int
	rules   []compiledRule
}

// Default returns a classifier built from the embedded table.
func Default() *Classifier {
	c, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded level rules: %v", err))
	}
	return c
}

// Load builds a classifier from the table at path, or the embedded table when path is empty.
func Load(_ context.Context, path string) (*Classifier, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level rules %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse compiles a YAML keyword table.
func Parse(raw []byte) (*Classifier, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	return Compile(t)
}

// Compile validates t and compiles one pattern per rule.
func Compile(t Table) (*Classifier, error) {
	if len(t.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidRules)
	}
	c := &Classifier{version: t.Version, rules: make([]compiledRule, 0, len(t.Rules))}
	for i, r := range t.Rules {
		lvl := model.Level(r.Level)
		if !lvl.Ranked() {
			return nil, fmt.Errorf("%w: rule %d: unknown level %q", ErrInvalidRules, i, r.Level)
		}
		alts := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			alts = append(alts, keywordPattern(kw))
		}
		if len(alts) == 0 {
			return nil, fmt.Errorf("%w: rule %d (%s) has no keywords", ErrInvalidRules, i, r.Level)
		}
		re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidRules, i, err)
		}
		c.rules = append(c.rules, compiledRule{level: lvl, pattern: re})
	}
	return c, nil
}

// keywordPattern quotes kw and lets its inner spaces match any whitespace run.
func keywordPattern(kw string) string {
	parts := strings.Fields(kw)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s+`)
}

// Version returns the table version the classifier was built from.
func (c *Classifier) Version() int { return c.version }

// Classify returns the level of the first rule matching raw, or Unknown.
func (c *Classifier) Classify(raw string) model.Level {
	if strings.TrimSpace(raw) == "" {
		return model.LevelUnknown
	}
	for _, r := range c.rules {
		if r.pattern.MatchString(raw) {
			return r.level
		}
	}
	return model.LevelUnknown
}
