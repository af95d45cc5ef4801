// Package siteconfig holds the static-site layout: content directories, passthrough
// declarations, collections and the category list. A Config is built once from
// composable options and never changes afterwards.
package siteconfig

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/content"
)

// Dirs locates the site's input and output trees.
type Dirs struct {
	Input    string // Markdown and page sources
	Output   string // Generated site
	Includes string // Layouts, relative to Input
	Data     string // Global data, relative to Input
}

// Copy declares a passthrough copy from a source path to an output path.
type Copy struct {
	From string
	To   string
}

// Collection is a named set of content files selected by glob.
type Collection struct {
	Name string
	Glob string
}

type values struct {
	Title       string
	BaseURL     string
	Dirs        Dirs
	Passthrough []Copy
	Collections []Collection
	Categories  []string
	Reserved    []string
	Policy      cattree.CollisionPolicy
}

// Config is an immutable site configuration. Accessors return copies.
type Config struct {
	v values
}

func (c Config) Title() string                            { return c.v.Title }
func (c Config) BaseURL() string                          { return c.v.BaseURL }
func (c Config) Dirs() Dirs                               { return c.v.Dirs }
func (c Config) Passthrough() []Copy                      { return slices.Clone(c.v.Passthrough) }
func (c Config) Collections() []Collection                { return slices.Clone(c.v.Collections) }
func (c Config) Categories() []string                     { return slices.Clone(c.v.Categories) }
func (c Config) Reserved() []string                       { return slices.Clone(c.v.Reserved) }
func (c Config) CollisionPolicy() cattree.CollisionPolicy { return c.v.Policy }

// CategoryCollections returns one markdown collection per category, in the given order.
func (c Config) CategoryCollections(categories []string) []Collection {
	out := make([]Collection, 0, len(categories))
	for _, cat := range categories {
		out = append(out, Collection{
			Name: cat,
			Glob: path.Join(c.v.Dirs.Input, cat, "**", "*.md"),
		})
	}
	return out
}

// reserveDataDir adds the data directory to reserved when it sits directly
// under the input dir, where it would otherwise be discovered as a category.
func reserveDataDir(reserved []string, data string) []string {
	if data == "" {
		return reserved
	}
	name := path.Clean(data)
	if strings.Contains(name, "/") || strings.HasPrefix(name, ".") || slices.Contains(reserved, name) {
		return reserved
	}
	return append(slices.Clone(reserved), name)
}

// Option transforms a configuration draft.
type Option func(values) values

// Defaults follow the Eleventy site layout.
func Defaults() []Option {
	return []Option{
		WithDirs(Dirs{Input: "content", Output: "docs", Includes: "../src/_includes", Data: "_data"}),
		WithPassthrough(Copy{From: "src/assets", To: "assets"}),
		WithReserved(content.DefaultReserved...),
	}
}

// New applies the defaults then opts in order and validates the result.
func New(opts ...Option) (Config, error) {
	var v values
	for _, opt := range append(Defaults(), opts...) {
		v = opt(v)
	}
	v.Reserved = reserveDataDir(v.Reserved, v.Dirs.Data)
	if err := validate(v); err != nil {
		return Config{}, fmt.Errorf("siteconfig: %w", err)
	}
	return Config{v: v}, nil
}

func WithTitle(title string) Option {
	return func(v values) values { v.Title = title; return v }
}

func WithBaseURL(u string) Option {
	return func(v values) values { v.BaseURL = u; return v }
}

// WithDirs replaces the non-empty directory fields.
func WithDirs(d Dirs) Option {
	return func(v values) values {
		if d.Input != "" {
			v.Dirs.Input = d.Input
		}
		if d.Output != "" {
			v.Dirs.Output = d.Output
		}
		if d.Includes != "" {
			v.Dirs.Includes = d.Includes
		}
		if d.Data != "" {
			v.Dirs.Data = d.Data
		}
		return v
	}
}

// WithPassthrough appends passthrough declarations.
func WithPassthrough(copies ...Copy) Option {
	return func(v values) values {
		v.Passthrough = append(slices.Clone(v.Passthrough), copies...)
		return v
	}
}

// WithCollection appends a named collection.
func WithCollection(name, glob string) Option {
	return func(v values) values {
		v.Collections = append(slices.Clone(v.Collections), Collection{Name: name, Glob: glob})
		return v
	}
}

// WithCategories sets the explicit category list. An empty list means discovery.
func WithCategories(categories ...string) Option {
	return func(v values) values { v.Categories = slices.Clone(categories); return v }
}

// WithReserved sets the directory names excluded from category discovery.
func WithReserved(names ...string) Option {
	return func(v values) values { v.Reserved = slices.Clone(names); return v }
}

func WithCollisionPolicy(p cattree.CollisionPolicy) Option {
	return func(v values) values { v.Policy = p; return v }
}

var categoryName = regexp.MustCompile(`^[^/\\.][^/\\]*$`)

func validate(v values) error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Dirs, validation.By(func(any) error {
			return validation.ValidateStruct(&v.Dirs,
				validation.Field(&v.Dirs.Input, validation.Required),
				validation.Field(&v.Dirs.Output, validation.Required),
			)
		})),
		validation.Field(&v.Collections, validation.By(uniqueCollections)),
		validation.Field(&v.Categories, validation.Each(validation.Required, validation.Match(categoryName))),
		validation.Field(&v.Policy, validation.In(cattree.Overwrite, cattree.Reject)),
	)
}

func uniqueCollections(value any) error {
	cols, _ := value.([]Collection)
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if c.Name == "" || c.Glob == "" {
			return fmt.Errorf("collection %d: name and glob are required", i)
		}
		if seen[c.Name] {
			return errors.New("duplicate collection " + c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
