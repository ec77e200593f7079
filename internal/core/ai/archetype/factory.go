package archetype

import (
	"bytes"
	_ "embed"
	"fmt"
	"reflect"
	"sync"

	"github.com/zeusync/npcbrain/internal/core/ai/bt"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
)

//go:embed archetypes.yaml
var defaultArchetypes []byte

// Defaults returns a fresh copy of the built-in catalog.
func Defaults() (*Catalog, error) {
	c, err := LoadYAML(bytes.NewReader(defaultArchetypes))
	if err != nil {
		return nil, fmt.Errorf("built-in archetypes: %w", err)
	}
	return c, nil
}

// Factory builds archetype trees on first use and hands out the same tree
// afterwards. Trees are read-only during evaluation, so one tree serves every
// entity of its archetype.
type Factory struct {
	mu      sync.Mutex
	catalog *Catalog
	trees   map[string]*bt.Tree
	logger  log.Log
}

func NewFactory(catalog *Catalog, logger log.Log) *Factory {
	if catalog == nil {
		catalog = &Catalog{}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Factory{
		catalog: catalog,
		trees:   make(map[string]*bt.Tree),
		logger:  logger.Named("archetype"),
	}
}

// NewDefaultFactory serves the built-in archetypes.
func NewDefaultFactory(logger log.Log) (*Factory, error) {
	c, err := Defaults()
	if err != nil {
		return nil, err
	}
	return NewFactory(c, logger), nil
}

// Tree returns the shared tree of a built-in archetype.
func (f *Factory) Tree(kind EnemyType) (*bt.Tree, error) {
	return f.TreeByName(kind.String())
}

// TreeByName returns the shared tree of any catalog archetype.
func (f *Factory) TreeByName(name string) (*bt.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tree, ok := f.trees[name]; ok {
		return tree, nil
	}

	tree, err := f.catalog.Build(name)
	if err != nil {
		f.logger.Warn("Failed to build archetype tree", log.String("archetype", name), log.Err(err))
		return nil, err
	}

	f.trees[name] = tree
	f.logger.Debug("Archetype tree built", log.String("archetype", name), log.Int("nodes", tree.Len()))
	return tree, nil
}

// Preload builds every catalog archetype, stopping at the first failure.
func (f *Factory) Preload() error {
	for _, name := range f.Names() {
		if _, err := f.TreeByName(name); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the catalog archetypes.
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog.Names()
}

// Replace swaps in a new catalog. Every archetype of the new catalog is built
// first; on failure the current catalog and trees stay in place. An archetype
// whose definition did not change keeps its current tree, so entities bound
// to it keep their bookkeeping across a rebind.
func (f *Factory) Replace(catalog *Catalog) error {
	f.mu.Lock()
	current, built := f.catalog, f.trees
	f.mu.Unlock()

	trees := make(map[string]*bt.Tree, len(catalog.Archetypes))
	reused := 0
	for _, name := range catalog.Names() {
		if tree, ok := built[name]; ok && sameDefinition(current, catalog, name) {
			trees[name] = tree
			reused++
			continue
		}
		tree, err := catalog.Build(name)
		if err != nil {
			f.logger.Warn("Catalog rejected", log.String("archetype", name), log.Err(err))
			return err
		}
		trees[name] = tree
	}

	f.mu.Lock()
	f.catalog = catalog
	f.trees = trees
	f.mu.Unlock()

	f.logger.Info("Catalog replaced", log.Int("archetypes", len(trees)), log.Int("unchanged", reused))
	return nil
}

func sameDefinition(a, b *Catalog, name string) bool {
	da, ok := a.Archetypes[name]
	if !ok {
		return false
	}
	db, ok := b.Archetypes[name]
	return ok && reflect.DeepEqual(da, db)
}
