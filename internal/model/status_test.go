package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusPending},
		{StatusPending, StatusApproved},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusReturnToMaker},
		{StatusReturnToMaker, StatusPending},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%q -> %q should be allowed", tc.from, tc.to)

		next, err := Transition(tc.from, tc.to)
		require.NoError(t, err)
		assert.Equal(t, tc.to, next)
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReturnToMaker.Terminal())

	// No transition escapes a terminal status.
	all := []Status{StatusDraft, StatusPending, StatusApproved, StatusReturnToMaker, StatusCancelled}
	for _, to := range all {
		assert.False(t, CanTransition(StatusApproved, to), "APPROVED -> %q", to)
		assert.False(t, CanTransition(StatusCancelled, to), "CANCELLED -> %q", to)
	}
}

func TestTransitionRejectsInvalidPairs(t *testing.T) {
	t.Parallel()

	cases := []struct{ from, to Status }{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusReturnToMaker},
		{StatusReturnToMaker, StatusApproved},
		{StatusApproved, StatusPending},
		{StatusCancelled, StatusPending},
	}
	for _, tc := range cases {
		_, err := Transition(tc.from, tc.to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%q -> %q", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusReturnToMaker.Valid())
	assert.False(t, Status("REJECTED").Valid())
}
