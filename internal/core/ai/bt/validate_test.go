package bt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOK(t *testing.T) {
	tr := NewTree()
	root := tr.CreateSelector()
	shared := tr.CreateCondition(ConditionInRange, 2)
	a := tr.CreateSequence()
	b := tr.CreateSequence()
	tr.AddChild(a, shared)
	tr.AddChild(b, shared)
	tr.AddChild(root, a)
	tr.AddChild(root, b)
	par := tr.CreateParallel(1)
	tr.AddChild(par, tr.CreateAction(ActionWait, 1))
	tr.AddChild(root, par)
	tr.SetRoot(root)

	require.NoError(t, tr.Validate())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Tree)
		want  error
	}{
		{"empty tree", func(tr *Tree) {}, ErrMissingRoot},
		{"dangling child", func(tr *Tree) {
			tr.AddChild(tr.CreateSequence(), 9)
		}, ErrDanglingChild},
		{"parallel threshold", func(tr *Tree) {
			p := tr.CreateParallel(2)
			tr.AddChild(p, tr.CreateAction(ActionWait, 0))
		}, ErrParallelThreshold},
		{"negative threshold", func(tr *Tree) {
			tr.CreateParallel(-1)
		}, ErrNegativeThreshold},
		{"negative repeat", func(tr *Tree) {
			r := tr.CreateRepeater(-2)
			tr.AddChild(r, tr.CreateAction(ActionWait, 0))
		}, ErrNegativeRepeat},
		{"unknown condition", func(tr *Tree) {
			tr.CreateCondition(ConditionType(12), 0)
		}, ErrUnknownConditionID},
		{"unknown action", func(tr *Tree) {
			tr.CreateAction(ActionType(12), 0)
		}, ErrUnknownActionID},
		{"cycle", func(tr *Tree) {
			a := tr.CreateSequence()
			b := tr.CreateSelector()
			tr.AddChild(a, b)
			tr.AddChild(b, a)
		}, ErrCycle},
		{"self loop", func(tr *Tree) {
			a := tr.CreateInverter()
			tr.AddChild(a, a)
		}, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTree()
			tt.build(tr)
			err := tr.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidateJoinsAllProblems(t *testing.T) {
	tr := NewTree()
	root := tr.CreateSequence()
	tr.AddChild(root, 50)
	p := tr.CreateParallel(4)
	tr.AddChild(root, p)

	err := tr.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingChild)
	assert.ErrorIs(t, err, ErrParallelThreshold)
}

func TestParseNames(t *testing.T) {
	c, err := ParseConditionType("cooldown_ready")
	require.NoError(t, err)
	assert.Equal(t, ConditionCooldownReady, c)

	c, err = ParseConditionType("3")
	require.NoError(t, err)
	assert.Equal(t, ConditionTargetVisible, c)

	_, err = ParseConditionType("sees_player")
	assert.ErrorIs(t, err, ErrUnknownConditionID)

	a, err := ParseActionType("Special_Ability")
	require.NoError(t, err)
	assert.Equal(t, ActionSpecialAbility, a)

	_, err = ParseActionType("dance")
	assert.ErrorIs(t, err, ErrUnknownActionID)

	k, err := ParseNodeKind("parallel")
	require.NoError(t, err)
	assert.Equal(t, KindParallel, k)
}
