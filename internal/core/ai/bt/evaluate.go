package bt

import "math"

// Evaluate runs one tick of the tree against ctx and returns the root outcome.
// Every evaluated node records its outcome under node_<id> in ctx.
func (t *Tree) Evaluate(ctx *ExecutionContext) Status {
	return t.evaluate(t.root, ctx)
}

func (t *Tree) evaluate(id NodeID, ctx *ExecutionContext) Status {
	n := t.lookup(id)
	if n == nil {
		return StatusFailure
	}

	var st Status
	switch n.kind {
	case KindSequence:
		st = t.sequence(n, ctx)
	case KindSelector:
		st = t.selector(n, ctx)
	case KindInverter:
		st = t.inverter(n, ctx)
	case KindSucceeder:
		st = t.succeeder(n, ctx)
	case KindRepeater:
		st = t.repeater(n, ctx)
	case KindParallel:
		st = t.parallel(n, ctx)
	case KindCondition:
		st = condition(n, ctx)
	case KindAction:
		st = action(n, ctx)
	default:
		st = StatusFailure
	}

	ctx.Set(n.statusKey, st.float())
	return st
}

func (t *Tree) sequence(n *node, ctx *ExecutionContext) Status {
	for _, child := range n.children {
		if st := t.evaluate(child, ctx); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

func (t *Tree) selector(n *node, ctx *ExecutionContext) Status {
	for _, child := range n.children {
		if st := t.evaluate(child, ctx); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

func (t *Tree) inverter(n *node, ctx *ExecutionContext) Status {
	if len(n.children) == 0 {
		return StatusFailure
	}
	switch st := t.evaluate(n.children[0], ctx); st {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return st
	}
}

func (t *Tree) succeeder(n *node, ctx *ExecutionContext) Status {
	if len(n.children) == 0 {
		return StatusSuccess
	}
	if t.evaluate(n.children[0], ctx) == StatusRunning {
		return StatusRunning
	}
	return StatusSuccess
}

// repeater keeps its progress in the context. A counter that already reached
// the target (only possible with times <= 0 or an externally written counter)
// completes before the child runs again.
func (t *Tree) repeater(n *node, ctx *ExecutionContext) Status {
	if len(n.children) == 0 {
		return StatusFailure
	}

	count := counterValue(ctx.Get(n.counterKey))
	if count >= n.repeatTimes {
		ctx.Set(n.counterKey, 0)
		return StatusSuccess
	}

	switch t.evaluate(n.children[0], ctx) {
	case StatusFailure:
		ctx.Set(n.counterKey, 0)
		return StatusFailure
	case StatusSuccess:
		count++
		if count >= n.repeatTimes {
			ctx.Set(n.counterKey, 0)
			return StatusSuccess
		}
		ctx.Set(n.counterKey, float64(count))
		return StatusRunning
	default:
		return StatusRunning
	}
}

// parallel ticks every child. The failure bound is computed in signed
// arithmetic: a threshold above the child count makes the node fail instead of
// succeeding or running forever.
func (t *Tree) parallel(n *node, ctx *ExecutionContext) Status {
	var success, failure int
	for _, child := range n.children {
		switch t.evaluate(child, ctx) {
		case StatusSuccess:
			success++
		case StatusFailure:
			failure++
		}
	}

	switch {
	case success >= n.successThreshold:
		return StatusSuccess
	case failure > len(n.children)-n.successThreshold:
		return StatusFailure
	default:
		return StatusRunning
	}
}

func counterValue(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int(v)
	}
}
