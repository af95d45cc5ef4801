package siteconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/sitetree/internal/cattree"
)

// File is the on-disk shape of a site configuration, TOML or YAML.
type File struct {
	Title           string   `toml:"title" yaml:"title"`
	BaseURL         string   `toml:"base_url" yaml:"base_url"`
	CollisionPolicy string   `toml:"collision_policy" yaml:"collision_policy"`
	Categories      []string `toml:"categories" yaml:"categories"`
	Reserved        []string `toml:"reserved" yaml:"reserved"`

	Dirs struct {
		Input    string `toml:"input" yaml:"input"`
		Output   string `toml:"output" yaml:"output"`
		Includes string `toml:"includes" yaml:"includes"`
		Data     string `toml:"data" yaml:"data"`
	} `toml:"dirs" yaml:"dirs"`

	Passthrough []struct {
		From string `toml:"from" yaml:"from"`
		To   string `toml:"to" yaml:"to"`
	} `toml:"passthrough" yaml:"passthrough"`

	Collections []struct {
		Name string `toml:"name" yaml:"name"`
		Glob string `toml:"glob" yaml:"glob"`
	} `toml:"collections" yaml:"collections"`
}

// Load reads a .toml, .yaml or .yml file and builds a Config over the defaults.
// Extra options are applied after the file.
func Load(path string, extra ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("siteconfig: read %s: %w", path, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return Config{}, fmt.Errorf("siteconfig: unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("siteconfig: decode %s: %w", path, err)
	}

	opts, err := f.Options()
	if err != nil {
		return Config{}, fmt.Errorf("siteconfig: %s: %w", path, err)
	}
	return New(append(opts, extra...)...)
}

// Options converts the file into builder options.
func (f File) Options() ([]Option, error) {
	policy, err := cattree.ParseCollisionPolicy(f.CollisionPolicy)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithDirs(Dirs{Input: f.Dirs.Input, Output: f.Dirs.Output, Includes: f.Dirs.Includes, Data: f.Dirs.Data}),
		WithCollisionPolicy(policy),
	}
	if f.Title != "" {
		opts = append(opts, WithTitle(f.Title))
	}
	if f.BaseURL != "" {
		opts = append(opts, WithBaseURL(f.BaseURL))
	}
	if len(f.Categories) > 0 {
		opts = append(opts, WithCategories(f.Categories...))
	}
	if f.Reserved != nil {
		opts = append(opts, WithReserved(f.Reserved...))
	}
	for _, p := range f.Passthrough {
		opts = append(opts, WithPassthrough(Copy{From: p.From, To: p.To}))
	}
	for _, c := range f.Collections {
		opts = append(opts, WithCollection(c.Name, c.Glob))
	}
	return opts, nil
}
