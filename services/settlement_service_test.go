package services

import (
	"testing"
	"time"

	"campaign-quest-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveAlreadyApprovedIsNoOp(t *testing.T) {
	// Settlement must credit at most once per (user, mission). The
	// APPROVED short-circuit returns before any database work, so a nil
	// transaction proves nothing is touched.
	s := NewSettlementService(nil)

	settled := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	moderator := "mod-1"
	completion := &models.MissionCompletion{
		ID:               "completion-1",
		MissionID:        "mission-1",
		UserID:           "user-1",
		Status:           models.CompletionStatusApproved,
		SettledAt:        &settled,
		ModeratorID:      &moderator,
		ModeratorComment: "looks good",
	}

	result, err := s.Approve(nil, completion, nil, "")
	require.NoError(t, err)
	assert.Same(t, completion, result)

	assert.Equal(t, models.CompletionStatusApproved, result.Status)
	assert.Equal(t, &settled, result.SettledAt)
	assert.Equal(t, &moderator, result.ModeratorID)
	assert.Equal(t, "looks good", result.ModeratorComment)
}

func TestNextRank(t *testing.T) {
	ranks := []models.Rank{
		{ID: "novice", Name: "Novice", Priority: 1, MinExperience: 0},
		{ID: "adept", Name: "Adept", Priority: 2, MinExperience: 100},
		{ID: "master", Name: "Master", Priority: 3, MinExperience: 500},
	}

	t.Run("no promotion below threshold", func(t *testing.T) {
		assert.Nil(t, NextRank(ranks, 1, 99))
	})

	t.Run("promotion at exact threshold", func(t *testing.T) {
		next := NextRank(ranks, 1, 100)
		require.NotNil(t, next)
		assert.Equal(t, "adept", next.ID)
	})

	t.Run("skips intermediate ranks", func(t *testing.T) {
		next := NextRank(ranks, 1, 500)
		require.NotNil(t, next)
		assert.Equal(t, "master", next.ID)
	})

	t.Run("already at best reachable rank", func(t *testing.T) {
		assert.Nil(t, NextRank(ranks, 2, 250))
	})

	t.Run("never demotes", func(t *testing.T) {
		assert.Nil(t, NextRank(ranks, 3, 0))
	})

	t.Run("empty rank table", func(t *testing.T) {
		assert.Nil(t, NextRank(nil, 1, 1000))
	})
}
