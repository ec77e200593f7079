package bt

// Tree is an arena of nodes addressed by NodeID with a single root.
//
// Ids are assigned monotonically from 0 and never reused. A Tree carries no
// per-entity state: everything that must survive between ticks lives in the
// ExecutionContext, so one Tree may be evaluated for many entities at once as
// long as it is not mutated meanwhile and each evaluation has its own context.
type Tree struct {
	nodes []node
	root  NodeID
}

// NewTree returns an empty tree whose root is 0.
func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) add(n node) NodeID {
	id := NodeID(len(t.nodes))
	n.statusKey = NodeStatusKey(id)
	t.nodes = append(t.nodes, n)
	return id
}

func (t *Tree) CreateSequence() NodeID  { return t.add(node{kind: KindSequence}) }
func (t *Tree) CreateSelector() NodeID  { return t.add(node{kind: KindSelector}) }
func (t *Tree) CreateInverter() NodeID  { return t.add(node{kind: KindInverter}) }
func (t *Tree) CreateSucceeder() NodeID { return t.add(node{kind: KindSucceeder}) }

// CreateRepeater adds a repeater that succeeds after times child successes.
func (t *Tree) CreateRepeater(times int) NodeID {
	id := NodeID(len(t.nodes))
	return t.add(node{kind: KindRepeater, repeatTimes: times, counterKey: RepeaterCountKey(id)})
}

// CreateParallel adds a parallel node that succeeds once successThreshold
// children succeed in the same tick.
func (t *Tree) CreateParallel(successThreshold int) NodeID {
	return t.add(node{kind: KindParallel, successThreshold: successThreshold})
}

func (t *Tree) CreateCondition(condition ConditionType, parameter float64) NodeID {
	n := node{kind: KindCondition, condition: condition, parameter: parameter}
	if condition == ConditionCooldownReady {
		n.cooldownKey = CooldownKey(CooldownSlot(parameter))
	}
	return t.add(n)
}

func (t *Tree) CreateAction(action ActionType, parameter float64) NodeID {
	n := node{kind: KindAction, action: action, parameter: parameter}
	if action == ActionSetCooldown {
		n.cooldownKey = CooldownKey(CooldownSlot(parameter))
	}
	return t.add(n)
}

// AddChild appends child to parent's children. It is a no-op when parent does
// not exist; child is not checked and resolves to Failure if it never appears.
func (t *Tree) AddChild(parent, child NodeID) {
	if n := t.lookup(parent); n != nil {
		n.children = append(n.children, child)
	}
}

// SetRoot replaces the root id without validation.
func (t *Tree) SetRoot(id NodeID) { t.root = id }

func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of allocated nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a copy of the node stored under id.
func (t *Tree) Node(id NodeID) (NodeInfo, bool) {
	n := t.lookup(id)
	if n == nil {
		return NodeInfo{}, false
	}
	return NodeInfo{
		ID:               id,
		Kind:             n.kind,
		Children:         append([]NodeID(nil), n.children...),
		Condition:        n.condition,
		Action:           n.action,
		Parameter:        n.parameter,
		SuccessThreshold: n.successThreshold,
		RepeatTimes:      n.repeatTimes,
	}, true
}

func (t *Tree) lookup(id NodeID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}
