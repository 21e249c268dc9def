package workflowdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flowstate/internal/config"
)

// Catalog is the read-mostly store of workflow definitions, loaded from a
// directory of YAML files at open time.
type Catalog struct {
	dir  string
	defs map[string]Definition
}

// OpenCatalog loads every definition under the configured workflows dir.
// Files with a .yaml or .yml extension are parsed; anything else is ignored.
// Duplicate workflow ids across files are an error.
func OpenCatalog(cfg *config.Config) (*Catalog, error) {
	return OpenCatalogDir(cfg.Paths.WorkflowsDir)
}

// OpenCatalogDir loads a catalog from an explicit directory.
func OpenCatalogDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{dir: dir, defs: map[string]Definition{}}, nil
		}
		return nil, fmt.Errorf("read workflows dir %s: %w", dir, err)
	}

	defs := make(map[string]Definition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		def, err := LoadDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		if existing, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("workflow %s defined twice (version %d and %d)", def.ID, existing.Version, def.Version)
		}
		defs[def.ID] = def
	}

	return &Catalog{dir: dir, defs: defs}, nil
}

// GetByID returns a copy of the definition with the given id, or a not-found
// error for unknown ids; the caller surfaces it, never defaults.
func (c *Catalog) GetByID(workflowID string) (Definition, error) {
	def, ok := c.defs[workflowID]
	if !ok {
		return Definition{}, NotFoundError(workflowID)
	}
	return def.Clone(), nil
}

// List returns all definitions sorted by id.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Dir returns the directory the catalog was loaded from.
func (c *Catalog) Dir() string {
	return c.dir
}
