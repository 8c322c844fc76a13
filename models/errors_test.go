package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorIsSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("join campaign: %w", ErrCampaignFull)
	assert.ErrorIs(t, wrapped, ErrCampaignFull)
	assert.NotErrorIs(t, wrapped, ErrAlreadyJoined)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrAlreadyJoined))
	assert.Equal(t, KindLocked, KindOf(ErrMissionLocked))
	assert.Equal(t, KindInternal, KindOf(errors.New("pq: connection refused")))
	assert.Equal(t, KindInternal, KindOf(WrapInternal("settle rewards", errors.New("deadlock"))))

	wrapped := fmt.Errorf("submit: %w", ErrPendingReview)
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalidActivationCode, 400},
		{ErrCampaignNotStarted, 400},
		{ErrMissionNotFound, 404},
		{ErrCampaignFull, 409},
		{ErrInsufficientMana, 409},
		{ErrMissionLocked, 403},
		{ErrNoInitialRank, 500},
		{errors.New("something broke"), 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "error %v", tc.err)
	}
}

func TestWrapInternalUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := WrapInternal("load mission", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "load mission")
}
