package services

import (
	"errors"
	"log"
	"strings"

	"campaign-quest-system/models"

	"gorm.io/gorm"
)

// AchievementService is the admin surface for achievements; granting
// itself happens only inside settlement.
type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

type CreateAchievementInput struct {
	CampaignID       string   `json:"campaign_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	RequiredMissions []string `json:"required_missions"`
	ManaReward       int64    `json:"mana_reward"`
	ExperienceReward int64    `json:"experience_reward"`
}

func (in *CreateAchievementInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewDomainError(models.KindValidation, "name is required")
	}
	if len(in.RequiredMissions) == 0 {
		return models.NewDomainError(models.KindValidation, "required_missions cannot be empty")
	}
	if in.ManaReward < 0 || in.ExperienceReward < 0 {
		return models.NewDomainError(models.KindValidation, "rewards cannot be negative")
	}
	return nil
}

// CreateAchievement validates that every required mission exists in the
// same campaign before persisting the condition set.
func (s *AchievementService) CreateAchievement(in CreateAchievementInput) (*models.Achievement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var achievement models.Achievement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Where("id = ?", in.CampaignID).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCampaignNotFound
			}
			return models.WrapInternal("failed to load campaign", err)
		}

		var count int64
		if err := tx.Model(&models.Mission{}).
			Where("campaign_id = ? AND id IN ?", in.CampaignID, in.RequiredMissions).
			Count(&count).Error; err != nil {
			return models.WrapInternal("failed to verify required missions", err)
		}
		if count != int64(len(in.RequiredMissions)) {
			return models.NewDomainError(models.KindValidation, "required_missions must all belong to the campaign")
		}

		achievement = models.Achievement{
			CampaignID:       in.CampaignID,
			Name:             strings.TrimSpace(in.Name),
			Description:      in.Description,
			UnlockConditions: models.UnlockConditions{RequiredMissions: in.RequiredMissions},
			ManaReward:       in.ManaReward,
			ExperienceReward: in.ExperienceReward,
		}
		if err := tx.Create(&achievement).Error; err != nil {
			return models.WrapInternal("failed to create achievement", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏆 Achievement created: %q in campaign %s", achievement.Name, achievement.CampaignID)
	return &achievement, nil
}

// DeleteAchievement refuses once any user holds the achievement.
func (s *AchievementService) DeleteAchievement(achievementID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var achievement models.Achievement
		if err := tx.Where("id = ?", achievementID).First(&achievement).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrAchievementNotFound
			}
			return models.WrapInternal("failed to load achievement", err)
		}
		var grants int64
		if err := tx.Model(&models.UserAchievement{}).
			Where("achievement_id = ?", achievementID).
			Count(&grants).Error; err != nil {
			return models.WrapInternal("failed to count grants", err)
		}
		if grants > 0 {
			return models.ErrAchievementGranted
		}
		if err := tx.Delete(&achievement).Error; err != nil {
			return models.WrapInternal("failed to delete achievement", err)
		}
		return nil
	})
}

// ListByCampaign returns a campaign's achievements.
func (s *AchievementService) ListByCampaign(campaignID string) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := s.DB.Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&achievements).Error; err != nil {
		return nil, models.WrapInternal("failed to list achievements", err)
	}
	return achievements, nil
}
