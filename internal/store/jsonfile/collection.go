// Package jsonfile is the default record store. Each collection is a single JSON array on
// disk that is loaded in full, mutated and rewritten in full on every write.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// collection guards one JSON array file. The mutex makes every read-modify-write a single writer,
// so concurrent updates to the same collection can no longer overwrite each other.
type collection[T any] struct {
	mu   sync.Mutex
	path string
}

func newCollection[T any](dir, name string) (*collection[T], error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	c := &collection[T]{path: filepath.Join(dir, name)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensure(); err != nil {
		return nil, err
	}

	return c, nil
}

// read returns a freshly decoded copy of the collection.
func (c *collection[T]) read() ([]*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load()
}

// update loads the collection, applies fn and rewrites the file if fn succeeds.
// Returning an error from fn leaves the file untouched.
func (c *collection[T]) update(fn func(items []*T) ([]*T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}

	return c.save(items)
}

// ensure initializes an absent collection file to an empty array.
func (c *collection[T]) ensure() error {
	if _, err := os.Stat(c.path); err == nil {
		return nil
	}

	log.Debug().Str("path", c.path).Msg("initializing empty collection")

	return c.save([]*T{})
}

func (c *collection[T]) load() ([]*T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := c.ensure(); err != nil {
			return nil, err
		}
		return []*T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(c.path), err)
	}

	var items []*T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(c.path), err)
	}

	if items == nil {
		items = []*T{}
	}

	return items, nil
}

// save writes the collection atomically.
func (c *collection[T]) save(items []*T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(c.path), err)
	}

	tempPath := c.path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(c.path), err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %w", filepath.Base(c.path), err)
	}

	return nil
}
