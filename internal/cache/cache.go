// Package cache stores raw KEGG responses on disk so repeated runs do not
// hit the API again. There is no eviction; the cache only grows.
//
// Layout under the root directory:
//
//	pathway/<organism>/<path_id>.txt
//	enzyme/<maj>/<mid>/<sub>/<ec>.txt
//	aaseq/<organism>/<gene>.txt
//
// Enzyme entries are fanned out over the leading components of the EC
// number to keep directories small.
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Cache struct {
	root string
}

func New(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) pathwayPath(organism, pathID string) string {
	return filepath.Join(c.root, "pathway", organism, pathID+".txt")
}

func (c *Cache) enzymePath(ec string) string {
	parts := strings.Split(ec, ".")
	dirs := parts[:len(parts)-1]

	return filepath.Join(append(append([]string{c.root, "enzyme"}, dirs...), ec+".txt")...)
}

func (c *Cache) sequencePath(organism, gene string) string {
	return filepath.Join(c.root, "aaseq", organism, gene+".txt")
}

func (c *Cache) get(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "unable to read cache entry %s", path)
	}

	return string(b), true, nil
}

func (c *Cache) put(path, text string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create cache directory for %s", path)
	}
	err = os.WriteFile(path, []byte(text), 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to write cache entry %s", path)
	}

	return nil
}

func (c *Cache) GetPathway(organism, pathID string) (string, bool, error) {
	return c.get(c.pathwayPath(organism, pathID))
}

func (c *Cache) PutPathway(organism, pathID, text string) error {
	return c.put(c.pathwayPath(organism, pathID), text)
}

func (c *Cache) GetEnzyme(ec string) (string, bool, error) {
	return c.get(c.enzymePath(ec))
}

func (c *Cache) PutEnzyme(ec, text string) error {
	return c.put(c.enzymePath(ec), text)
}

func (c *Cache) GetSequence(organism, gene string) (string, bool, error) {
	return c.get(c.sequencePath(organism, gene))
}

func (c *Cache) PutSequence(organism, gene, text string) error {
	return c.put(c.sequencePath(organism, gene), text)
}
