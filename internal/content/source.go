package content

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
)

// Source resolves the category list of a site and loads each category.
type Source struct {
	*Loader
	fs         fs.FS
	categories []string
	reserved   []string
}

// NewSource returns a Source over fsys. A non-empty categories list is used as-is;
// otherwise categories are discovered from fsys minus reserved names.
func NewSource(fsys fs.FS, loader *Loader, categories, reserved []string) *Source {
	return &Source{
		Loader:     loader,
		fs:         fsys,
		categories: slices.Clone(categories),
		reserved:   slices.Clone(reserved),
	}
}

// Categories returns the explicit list after checking each directory exists,
// or the discovered list.
func (s *Source) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.categories) == 0 {
		return ListCategories(s.fs, s.reserved)
	}
	for _, c := range s.categories {
		info, err := fs.Stat(s.fs, c)
		if err != nil {
			return nil, fmt.Errorf("content: category %s: %w", c, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("content: category %s is not a directory", c)
		}
	}
	return slices.Clone(s.categories), nil
}
