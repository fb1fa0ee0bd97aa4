// Package config loads combo project files. A project file names a grammar,
// its start production and the token rules used to split input, in TOML or
// YAML:
//
//	grammar = "expr.ebnf"
//	start = "Expr"
//	skip = ["space"]
//	lookahead = true
//
//	[[tokens]]
//	type = "number"
//	pattern = "[0-9]+"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/lex"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a project file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// Config describes how to parse input with a grammar.
type Config struct {
	Grammar   string     `toml:"grammar" yaml:"grammar"`
	Start     string     `toml:"start" yaml:"start"`
	Skip      []string   `toml:"skip" yaml:"skip"`
	Tokens    []lex.Rule `toml:"tokens" yaml:"tokens"`
	Ambiguity string     `toml:"ambiguity" yaml:"ambiguity"`
	Lookahead bool       `toml:"lookahead" yaml:"lookahead"`
	Memoize   []string   `toml:"memoize" yaml:"memoize"`

	// Dir is the directory of the project file. Relative grammar paths are
	// resolved against it.
	Dir string `toml:"-" yaml:"-"`
}

// DetectFormat chooses the format from the file extension; anything other
// than .yaml or .yml is TOML.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Load reads a project file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Dir = filepath.Dir(path)
	return c, nil
}

// Parse decodes a project file and validates it.
func Parse(data []byte, format Format) (*Config, error) {
	var c Config
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %s", undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && err != io.EOF {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Tokens) == 0 {
		return fmt.Errorf("no token rules")
	}
	for i, r := range c.Tokens {
		if r.Type == "" || r.Pattern == "" {
			return fmt.Errorf("token rule %d: type and pattern are required", i+1)
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// GrammarPath returns the grammar file, resolved against Dir.
func (c *Config) GrammarPath() string {
	if c.Grammar == "" || filepath.IsAbs(c.Grammar) {
		return c.Grammar
	}
	return filepath.Join(c.Dir, c.Grammar)
}

// Tokenizer compiles the token rules.
func (c *Config) Tokenizer() (*lex.Tokenizer, error) {
	return lex.NewTokenizer(c.Tokens, c.Skip...)
}

// Policy returns the configured ambiguity policy.
func (c *Config) Policy() (combinator.AmbiguityPolicy, error) {
	return combinator.ParseAmbiguityPolicy(c.Ambiguity)
}

// Options returns the parse options selected by the configuration.
func (c *Config) Options() []combinator.Option {
	policy, _ := c.Policy()
	opts := []combinator.Option{combinator.WithAmbiguity(policy)}
	if c.Lookahead {
		opts = append(opts, combinator.WithLookahead())
	}
	return opts
}
