package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidActivationCode(t *testing.T) {
	assert.True(t, IsValidActivationCode("700697"))
	assert.True(t, IsValidActivationCode("000000"))

	assert.False(t, IsValidActivationCode(""))
	assert.False(t, IsValidActivationCode("12345"))
	assert.False(t, IsValidActivationCode("1234567"))
	assert.False(t, IsValidActivationCode("12a456"))
	assert.False(t, IsValidActivationCode(" 123456"))
}

func TestCampaignJoinableAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	t.Run("active campaign without window", func(t *testing.T) {
		c := Campaign{Status: CampaignStatusActive}
		assert.NoError(t, c.JoinableAt(now))
	})

	t.Run("active campaign inside window", func(t *testing.T) {
		c := Campaign{Status: CampaignStatusActive, StartDate: &past, EndDate: &future}
		assert.NoError(t, c.JoinableAt(now))
	})

	t.Run("not active", func(t *testing.T) {
		for _, status := range []CampaignStatus{
			CampaignStatusDraft, CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusArchived,
		} {
			c := Campaign{Status: status}
			assert.ErrorIs(t, c.JoinableAt(now), ErrCampaignNotActive, "status %s", status)
		}
	})

	t.Run("not started yet", func(t *testing.T) {
		c := Campaign{Status: CampaignStatusActive, StartDate: &future}
		assert.ErrorIs(t, c.JoinableAt(now), ErrCampaignNotStarted)
	})

	t.Run("already ended", func(t *testing.T) {
		c := Campaign{Status: CampaignStatusActive, EndDate: &past}
		assert.ErrorIs(t, c.JoinableAt(now), ErrCampaignEnded)
	})
}
