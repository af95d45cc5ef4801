package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/pipeline"
)

// ErrLocked is returned when another writer holds the output directory.
var ErrLocked = errors.New("output directory is locked by another build")

const lockName = ".sitetree.lock"

// IndexName is the build index file. Dot names are never categories, so it
// cannot collide with a <category>.json file.
const IndexName = ".categories.json"

// Index is the content of the build index file.
type Index struct {
	JobID      string   `json:"job_id"`
	Categories []string `json:"categories"`
}

// Writer publishes builds as JSON files: one <category>.json with {tree, posts}
// per category plus the index.
type Writer struct {
	dir string
	log *slog.Logger
}

func NewWriter(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Writer{dir: dir, log: log}
}

// Publish implements pipeline.Publisher.
func (w *Writer) Publish(ctx context.Context, b *pipeline.SiteBuild) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("publish: create %s: %w", w.dir, err)
	}

	lock := flock.New(filepath.Join(w.dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("publish: lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer lock.Unlock()

	for _, cat := range b.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, _ := b.Category(cat)
		if err := writeJSON(filepath.Join(w.dir, cat+".json"), res); err != nil {
			return err
		}
	}

	cats := b.Categories
	if cats == nil {
		cats = []string{}
	}
	if err := writeJSON(filepath.Join(w.dir, IndexName), Index{JobID: b.JobID, Categories: cats}); err != nil {
		return err
	}

	w.log.Info("published build", "dir", w.dir, "categories", len(b.Categories))
	return nil
}

// ReadIndex loads the index of the last published build.
func ReadIndex(dir string) (Index, error) {
	var idx Index
	data, err := os.ReadFile(filepath.Join(dir, IndexName))
	if err != nil {
		return idx, fmt.Errorf("publish: read index: %w", err)
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return idx, fmt.Errorf("publish: decode index: %w", err)
	}
	return idx, nil
}

// ReadCategory loads a published category file.
func ReadCategory(dir, category string) (cattree.Result, error) {
	var res cattree.Result
	data, err := os.ReadFile(filepath.Join(dir, category+".json"))
	if err != nil {
		return res, fmt.Errorf("publish: read %s: %w", category, err)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("publish: decode %s: %w", category, err)
	}
	return res, nil
}

// writeJSON writes v to path through a temp file and rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("publish: marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("publish: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("publish: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("publish: close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
