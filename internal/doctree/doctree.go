package doctree

import (
	"strings"
	"time"
)

// DocTree is the root of a parsed content document.
type DocTree struct {
	Title    string      // Title from frontmatter or document metadata; empty if none
	Meta     FrontMatter // Header fields, zero for formats without frontmatter
	Children []*DocNode  // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// FrontMatter holds the header fields that affect how a document is indexed.
type FrontMatter struct {
	Title     string    `yaml:"title" toml:"title" json:"title"`
	Category  string    `yaml:"category" toml:"category" json:"category"`
	Permalink string    `yaml:"permalink" toml:"permalink" json:"permalink"`
	Draft     bool      `yaml:"draft" toml:"draft" json:"draft"`
	Date      time.Time `yaml:"date" toml:"date" json:"date"`
	Tags      []string  `yaml:"tags" toml:"tags" json:"tags"`
}

// FirstHeading returns the first non-empty section title in document order.
func (t *DocTree) FirstHeading() string {
	var find func(nodes []*DocNode) string
	find = func(nodes []*DocNode) string {
		for _, n := range nodes {
			if s := strings.TrimSpace(n.Title); s != "" {
				return s
			}
			if s := find(n.Children); s != "" {
				return s
			}
		}
		return ""
	}
	return find(t.Children)
}

// DisplayTitle is the frontmatter/metadata title, falling back to the first heading.
func (t *DocTree) DisplayTitle() string {
	if s := strings.TrimSpace(t.Meta.Title); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Title); s != "" {
		return s
	}
	return t.FirstHeading()
}

// WordCount counts whitespace-separated words across all section text.
func (t *DocTree) WordCount() int {
	total := 0
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			total += len(strings.Fields(n.Text))
			walk(n.Children)
		}
	}
	walk(t.Children)
	return total
}
