package bt

import "errors"

// Validation errors returned (joined) by Tree.Validate.
var (
	ErrMissingRoot        = errors.New("root node does not exist")
	ErrDanglingChild      = errors.New("child id does not exist")
	ErrParallelThreshold  = errors.New("parallel success threshold exceeds child count")
	ErrNegativeThreshold  = errors.New("parallel success threshold is negative")
	ErrNegativeRepeat     = errors.New("repeater count is negative")
	ErrCycle              = errors.New("cycle detected")
	ErrUnknownConditionID = errors.New("unknown condition type")
	ErrUnknownActionID    = errors.New("unknown action type")
)
