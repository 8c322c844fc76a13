package services

import (
	"testing"
	"time"

	"campaign-quest-system/models"

	"github.com/stretchr/testify/assert"
)

func TestGenerateActivationCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateActivationCode()
		assert.Len(t, code, 6)
		assert.True(t, models.IsValidActivationCode(code), "generated %q", code)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to models.CampaignStatus }{
		{models.CampaignStatusDraft, models.CampaignStatusActive},
		{models.CampaignStatusDraft, models.CampaignStatusArchived},
		{models.CampaignStatusActive, models.CampaignStatusPaused},
		{models.CampaignStatusActive, models.CampaignStatusCompleted},
		{models.CampaignStatusPaused, models.CampaignStatusActive},
		{models.CampaignStatusCompleted, models.CampaignStatusArchived},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s → %s", tc.from, tc.to)
	}

	forbidden := []struct{ from, to models.CampaignStatus }{
		{models.CampaignStatusDraft, models.CampaignStatusPaused},
		{models.CampaignStatusDraft, models.CampaignStatusCompleted},
		{models.CampaignStatusCompleted, models.CampaignStatusActive},
		{models.CampaignStatusArchived, models.CampaignStatusActive},
		{models.CampaignStatusArchived, models.CampaignStatusDraft},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestCreateCampaignInputValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := CreateCampaignInput{Title: "Onboarding Sprint"}
		assert.NoError(t, in.Validate())
	})

	t.Run("blank title", func(t *testing.T) {
		in := CreateCampaignInput{Title: "  "}
		assert.Error(t, in.Validate())
	})

	t.Run("end before start", func(t *testing.T) {
		start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(-time.Hour)
		in := CreateCampaignInput{Title: "Backwards", StartDate: &start, EndDate: &end}
		assert.Error(t, in.Validate())
	})

	t.Run("zero capacity", func(t *testing.T) {
		zero := 0
		in := CreateCampaignInput{Title: "Empty room", MaxParticipants: &zero}
		assert.Error(t, in.Validate())
	})
}
