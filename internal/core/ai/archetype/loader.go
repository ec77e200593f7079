package archetype

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/npcbrain/internal/core/ai/bt"
)

// Catalog is a set of named tree definitions, usually one per archetype.
type Catalog struct {
	Archetypes map[string]Definition `json:"archetypes" yaml:"archetypes"`
}

// Definition describes one tree: a root name and the named nodes reachable
// from it. A node referenced from several parents is built once and shared.
type Definition struct {
	Root  string              `json:"root" yaml:"root"`
	Nodes map[string]NodeSpec `json:"nodes" yaml:"nodes"`
}

type NodeSpec struct {
	Type      string   `json:"type" yaml:"type"`
	Children  []string `json:"children,omitempty" yaml:"children,omitempty"`
	Condition Ref      `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action    Ref      `json:"action,omitempty" yaml:"action,omitempty"`
	Parameter float64  `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Times     int      `json:"times,omitempty" yaml:"times,omitempty"`
	Threshold int      `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Ref names a condition or action either by name ("in_range") or by its
// numeric code (0).
type Ref string

func (r *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a name or code", value.Line)
	}
	*r = Ref(value.Value)
	return nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Ref(s)
		return nil
	}
	var n uint32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a name or code, got %s", data)
	}
	*r = Ref(strconv.FormatUint(uint64(n), 10))
	return nil
}

// LoadJSON loads a catalog from a JSON reader.
func LoadJSON(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadYAML loads a catalog from a YAML reader.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile loads a catalog file, choosing JSON for .json files and YAML
// otherwise.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c *Catalog
	if strings.EqualFold(filepath.Ext(path), ".json") {
		c, err = LoadJSON(f)
	} else {
		c, err = LoadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Names returns the archetype names in sorted order.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.Archetypes))
}

// Merge copies every definition of other into c, replacing same-named ones.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	if c.Archetypes == nil {
		c.Archetypes = make(map[string]Definition, len(other.Archetypes))
	}
	maps.Copy(c.Archetypes, other.Archetypes)
}

// Build constructs the tree of the named archetype.
func (c *Catalog) Build(name string) (*bt.Tree, error) {
	def, ok := c.Archetypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, name)
	}
	tree, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("archetype %s: %w", name, err)
	}
	return tree, nil
}

// Build constructs the tree. Nodes are created depth-first in child order, so
// the root gets id 0 and every parent precedes its children. The finished
// tree is validated.
func (d Definition) Build() (*bt.Tree, error) {
	if d.Root == "" {
		return nil, bt.ErrMissingRoot
	}

	b := &builder{
		def:      d,
		tree:     bt.NewTree(),
		built:    make(map[string]bt.NodeID, len(d.Nodes)),
		visiting: make(map[string]bool),
	}
	root, err := b.node(d.Root)
	if err != nil {
		return nil, err
	}
	b.tree.SetRoot(root)

	if err = b.tree.Validate(); err != nil {
		return nil, err
	}
	return b.tree, nil
}

type builder struct {
	def      Definition
	tree     *bt.Tree
	built    map[string]bt.NodeID
	visiting map[string]bool
}

func (b *builder) node(name string) (bt.NodeID, error) {
	if id, ok := b.built[name]; ok {
		return id, nil
	}
	if b.visiting[name] {
		return 0, fmt.Errorf("%w: through node %q", bt.ErrCycle, name)
	}
	spec, ok := b.def.Nodes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}

	kind, err := bt.ParseNodeKind(spec.Type)
	if err != nil {
		return 0, fmt.Errorf("node %q: %w", name, err)
	}

	var id bt.NodeID
	switch kind {
	case bt.KindSequence:
		id = b.tree.CreateSequence()
	case bt.KindSelector:
		id = b.tree.CreateSelector()
	case bt.KindInverter:
		id = b.tree.CreateInverter()
	case bt.KindSucceeder:
		id = b.tree.CreateSucceeder()
	case bt.KindRepeater:
		id = b.tree.CreateRepeater(spec.Times)
	case bt.KindParallel:
		id = b.tree.CreateParallel(spec.Threshold)
	case bt.KindCondition:
		cond, err := bt.ParseConditionType(string(spec.Condition))
		if err != nil {
			return 0, fmt.Errorf("node %q: %w", name, err)
		}
		id = b.tree.CreateCondition(cond, spec.Parameter)
	case bt.KindAction:
		act, err := bt.ParseActionType(string(spec.Action))
		if err != nil {
			return 0, fmt.Errorf("node %q: %w", name, err)
		}
		id = b.tree.CreateAction(act, spec.Parameter)
	}

	if (kind == bt.KindCondition || kind == bt.KindAction) && len(spec.Children) > 0 {
		return 0, fmt.Errorf("leaf node %q cannot have children", name)
	}

	b.visiting[name] = true
	for _, childName := range spec.Children {
		child, err := b.node(childName)
		if err != nil {
			return 0, err
		}
		b.tree.AddChild(id, child)
	}
	delete(b.visiting, name)

	b.built[name] = id
	return id, nil
}
