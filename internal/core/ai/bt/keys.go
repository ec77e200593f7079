package bt

import "strconv"

// Context keys shared with the systems around the evaluator.
const (
	KeyTargetVisible   = "target_visible"
	KeyAction          = "action"
	KeyActionParameter = "action_parameter"

	// CooldownPrefix prefixes every cooldown timer key (cooldown_<n>).
	CooldownPrefix = "cooldown_"

	// NodeStatusPrefix and RepeaterPrefix prefix the evaluator's bookkeeping keys.
	NodeStatusPrefix = "node_"
	RepeaterPrefix   = "repeater_"
)

// NodeStatusKey is the key under which the last outcome of node id is recorded.
func NodeStatusKey(id NodeID) string {
	return NodeStatusPrefix + strconv.Itoa(int(id))
}

// RepeaterCountKey is the evaluator-owned counter key of repeater id.
func RepeaterCountKey(id NodeID) string {
	return RepeaterPrefix + strconv.Itoa(int(id)) + "_count"
}

// CooldownKey is the timer key for cooldown slot n.
func CooldownKey(n uint32) string {
	return CooldownPrefix + strconv.FormatUint(uint64(n), 10)
}

// CooldownSlot converts a node parameter into a cooldown slot number.
// Negative and NaN parameters map to 0, values beyond uint32 saturate.
func CooldownSlot(parameter float64) uint32 {
	return saturateUint32(parameter)
}

func saturateUint32(v float64) uint32 {
	switch {
	case v != v, v <= 0:
		return 0
	case v >= 4294967295:
		return 4294967295
	default:
		return uint32(v)
	}
}
