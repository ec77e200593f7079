package bt

func condition(n *node, ctx *ExecutionContext) Status {
	var ok bool
	switch n.condition {
	case ConditionInRange:
		ok = ctx.DistanceToTarget() <= n.parameter
	case ConditionHealthBelow:
		ok = ctx.HealthFraction() <= n.parameter
	case ConditionEntityType:
		ok = ctx.EntityType() == saturateUint32(n.parameter)
	case ConditionTargetVisible:
		ok = ctx.Get(KeyTargetVisible) > 0.5
	case ConditionCooldownReady:
		ok = ctx.Get(n.cooldownKey) <= 0
	}
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

func action(n *node, ctx *ExecutionContext) Status {
	switch n.action {
	case ActionMoveToTarget, ActionFlee, ActionWait, ActionSpecialAbility:
		record(ctx, n.action, n.parameter)
		return StatusSuccess
	case ActionAttack:
		if ctx.DistanceToTarget() > n.parameter {
			return StatusFailure
		}
		record(ctx, n.action, n.parameter)
		return StatusSuccess
	case ActionSetCooldown:
		// Slot and duration are the same value.
		ctx.Set(n.cooldownKey, n.parameter)
		return StatusSuccess
	default:
		return StatusFailure
	}
}

func record(ctx *ExecutionContext, a ActionType, parameter float64) {
	ctx.Set(KeyAction, float64(a))
	ctx.Set(KeyActionParameter, parameter)
}
