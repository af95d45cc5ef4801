package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/sitetree/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// Registry maps lowercase file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with every built-in content format.
func NewRegistry(opts Options) *Registry {
	md := &MarkdownParser{}
	htmlp := &HTMLParser{}
	return &Registry{parsers: map[string]Parser{
		".md":       md,
		".markdown": md,
		".html":     htmlp,
		".htm":      htmlp,
		".txt":      &TextParser{},
		".docx":     &DOCXParser{},
		".pdf":      &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext},
	}}
}

// Restrict returns a registry limited to the given extensions. Unknown extensions are an error.
func (r *Registry) Restrict(exts []string) (*Registry, error) {
	if len(exts) == 0 {
		return r, nil
	}
	out := &Registry{parsers: make(map[string]Parser, len(exts))}
	for _, ext := range exts {
		ext = normalizeExt(ext)
		p, ok := r.parsers[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported file extension: %s", ext)
		}
		out.parsers[ext] = p
	}
	return out, nil
}

// ForFile returns the parser for a filename.
func (r *Registry) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if p, ok := r.parsers[ext]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unsupported file extension: %s", ext)
}

// Supports checks if a filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.parsers[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions lists registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
