package bt

import (
	"errors"
	"fmt"
)

// Validate checks the structural assumptions Evaluate relies on without
// enforcing: the root exists, child ids resolve, parallel thresholds are within
// [0, len(children)], repeat counts are non-negative, leaf types are known and
// nothing reachable from the root forms a cycle. All problems are joined.
//
// Evaluate never calls Validate; an invalid tree still evaluates fail-closed.
func (t *Tree) Validate() error {
	var errs []error

	if t.lookup(t.root) == nil {
		errs = append(errs, fmt.Errorf("root %d: %w", t.root, ErrMissingRoot))
	}

	for i := range t.nodes {
		id := NodeID(i)
		n := &t.nodes[i]
		for _, child := range n.children {
			if t.lookup(child) == nil {
				errs = append(errs, fmt.Errorf("node %d child %d: %w", id, child, ErrDanglingChild))
			}
		}
		switch n.kind {
		case KindParallel:
			if n.successThreshold < 0 {
				errs = append(errs, fmt.Errorf("node %d threshold %d: %w", id, n.successThreshold, ErrNegativeThreshold))
			} else if n.successThreshold > len(n.children) {
				errs = append(errs, fmt.Errorf("node %d threshold %d with %d children: %w",
					id, n.successThreshold, len(n.children), ErrParallelThreshold))
			}
		case KindRepeater:
			if n.repeatTimes < 0 {
				errs = append(errs, fmt.Errorf("node %d times %d: %w", id, n.repeatTimes, ErrNegativeRepeat))
			}
		case KindCondition:
			if !n.condition.Known() {
				errs = append(errs, fmt.Errorf("node %d: %w: %d", id, ErrUnknownConditionID, uint32(n.condition)))
			}
		case KindAction:
			if !n.action.Known() {
				errs = append(errs, fmt.Errorf("node %d: %w: %d", id, ErrUnknownActionID, uint32(n.action)))
			}
		}
	}

	if t.lookup(t.root) != nil {
		if err := t.findCycle(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

const (
	unvisited = iota
	visiting
	done
)

// findCycle walks the graph reachable from the root. Shared subtrees are fine;
// only back edges are reported.
func (t *Tree) findCycle() error {
	state := make([]uint8, len(t.nodes))

	type frame struct {
		id   NodeID
		next int
	}
	stack := []frame{{id: t.root}}
	state[t.root] = visiting

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := &t.nodes[top.id]
		if top.next >= len(n.children) {
			state[top.id] = done
			stack = stack[:len(stack)-1]
			continue
		}
		child := n.children[top.next]
		top.next++
		if t.lookup(child) == nil {
			continue
		}
		switch state[child] {
		case visiting:
			return fmt.Errorf("node %d -> %d: %w", top.id, child, ErrCycle)
		case unvisited:
			state[child] = visiting
			stack = append(stack, frame{id: child})
		}
	}
	return nil
}
