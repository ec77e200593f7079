package bt

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeID addresses a node inside a Tree's arena.
type NodeID int

// NodeKind is the closed set of node kinds.
type NodeKind int

const (
	KindSequence NodeKind = iota
	KindSelector
	KindInverter
	KindSucceeder
	KindRepeater
	KindAction
	KindCondition
	KindParallel
)

var kindNames = [...]string{
	KindSequence:  "Sequence",
	KindSelector:  "Selector",
	KindInverter:  "Inverter",
	KindSucceeder: "Succeeder",
	KindRepeater:  "Repeater",
	KindAction:    "Action",
	KindCondition: "Condition",
	KindParallel:  "Parallel",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseNodeKind accepts a kind name in any case.
func ParseNodeKind(s string) (NodeKind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return NodeKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node kind: %q", s)
}

// ConditionType selects a built-in predicate.
type ConditionType uint32

const (
	// ConditionInRange succeeds when distance to target <= parameter.
	ConditionInRange ConditionType = iota
	// ConditionHealthBelow succeeds when health fraction <= parameter.
	ConditionHealthBelow
	// ConditionEntityType succeeds when the entity type equals parameter.
	ConditionEntityType
	// ConditionTargetVisible succeeds when target_visible > 0.5.
	ConditionTargetVisible
	// ConditionCooldownReady succeeds when cooldown_<parameter> <= 0.
	ConditionCooldownReady
)

var conditionNames = [...]string{
	ConditionInRange:       "in_range",
	ConditionHealthBelow:   "health_below",
	ConditionEntityType:    "entity_type",
	ConditionTargetVisible: "target_visible",
	ConditionCooldownReady: "cooldown_ready",
}

func (c ConditionType) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return "condition_" + strconv.FormatUint(uint64(c), 10)
}

// Known reports whether c has a built-in predicate.
func (c ConditionType) Known() bool { return int(c) < len(conditionNames) }

// ParseConditionType accepts a condition name or its numeric code.
func ParseConditionType(s string) (ConditionType, error) {
	for i, name := range conditionNames {
		if strings.EqualFold(name, s) {
			return ConditionType(i), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ConditionType(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownConditionID, s)
}

// ActionType selects a built-in effect.
type ActionType uint32

const (
	ActionMoveToTarget ActionType = iota
	// ActionAttack uses the parameter as both range and damage; fails out of range.
	ActionAttack
	ActionFlee
	ActionWait
	ActionSpecialAbility
	// ActionSetCooldown writes cooldown_<parameter> = parameter.
	ActionSetCooldown
)

var actionNames = [...]string{
	ActionMoveToTarget:   "move_to_target",
	ActionAttack:         "attack",
	ActionFlee:           "flee",
	ActionWait:           "wait",
	ActionSpecialAbility: "special_ability",
	ActionSetCooldown:    "set_cooldown",
}

func (a ActionType) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "action_" + strconv.FormatUint(uint64(a), 10)
}

// Known reports whether a has a built-in effect.
func (a ActionType) Known() bool { return int(a) < len(actionNames) }

// ParseActionType accepts an action name or its numeric code.
func ParseActionType(s string) (ActionType, error) {
	for i, name := range actionNames {
		if strings.EqualFold(name, s) {
			return ActionType(i), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ActionType(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActionID, s)
}

// node is one arena entry. Bookkeeping keys are computed once at construction.
type node struct {
	kind             NodeKind
	children         []NodeID
	condition        ConditionType
	action           ActionType
	parameter        float64
	successThreshold int
	repeatTimes      int

	statusKey   string
	counterKey  string
	cooldownKey string
}

// NodeInfo is a read-only view of a node.
type NodeInfo struct {
	ID               NodeID
	Kind             NodeKind
	Children         []NodeID
	Condition        ConditionType
	Action           ActionType
	Parameter        float64
	SuccessThreshold int
	RepeatTimes      int
}
