package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/parser"
)

// DefaultReserved are directory names under the content root that never form a category.
var DefaultReserved = []string{"_data", "_includes"}

// ListCategories returns the subdirectories of the content root, excluding reserved
// and hidden names, in sorted order.
func ListCategories(fsys fs.FS, reserved []string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("content: list categories: %w", err)
	}

	skip := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		skip[name] = true
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || skip[name] || strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Loader turns the files of a category directory into content records.
type Loader struct {
	fs      fs.FS
	parsers *parser.Registry
	log     *slog.Logger
}

// NewLoader creates a loader over a filesystem rooted at the content input directory.
func NewLoader(fsys fs.FS, parsers *parser.Registry, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{fs: fsys, parsers: parsers, log: log}
}

// LoadCategory walks category recursively and returns one record per supported,
// non-draft document, sorted by source path.
func (l *Loader) LoadCategory(ctx context.Context, category string) ([]cattree.ContentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type loaded struct {
		source string
		rec    cattree.ContentRecord
	}
	var docs []loaded

	walkErr := fs.WalkDir(l.fs, category, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != category && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.parsers.Supports(p) {
			return nil
		}

		rec, draft, err := l.loadFile(p, category)
		if err != nil {
			return fmt.Errorf("content: load %s: %w", p, err)
		}
		if draft {
			l.log.Debug("skipping draft", "path", p)
			return nil
		}
		docs = append(docs, loaded{source: p, rec: rec})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].source < docs[j].source })

	records := make([]cattree.ContentRecord, len(docs))
	for i, d := range docs {
		records[i] = d.rec
	}
	return records, nil
}

func (l *Loader) loadFile(p, category string) (cattree.ContentRecord, bool, error) {
	prs, err := l.parsers.ForFile(p)
	if err != nil {
		return cattree.ContentRecord{}, false, err
	}

	f, err := l.fs.Open(p)
	if err != nil {
		return cattree.ContentRecord{}, false, err
	}
	defer f.Close()

	tree, err := prs.Parse(f, path.Base(p))
	if err != nil {
		return cattree.ContentRecord{}, false, err
	}

	stem := strings.TrimSuffix(p, path.Ext(p))
	rec := cattree.ContentRecord{
		PathStem: stem,
		Title:    tree.DisplayTitle(),
		URL:      URLFor(stem),
		Category: category,
	}
	if c := strings.TrimSpace(tree.Meta.Category); c != "" {
		rec.Category = c
	}
	if pl := strings.TrimSpace(tree.Meta.Permalink); pl != "" {
		rec.URL = pl
	}
	return rec, tree.Meta.Draft, nil
}

// URLFor maps a path stem to its output URL. Index pages take their directory's URL.
func URLFor(stem string) string {
	stem = strings.Trim(stem, "/")
	if stem == "index" {
		return "/"
	}
	stem = strings.TrimSuffix(stem, "/index")
	return "/" + stem + "/"
}
