package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"campaign-quest-system/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignService struct {
	DB *gorm.DB
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{DB: db}
}

// JoinByCode admits a user into the campaign matching the activation
// code. The campaign row is locked for the whole transaction so the
// capacity check cannot over-admit under concurrent joins; the unique
// (campaign, user) index is the final backstop against double joins.
// The whole sequence is atomic: any failure rolls back the membership.
func (s *CampaignService) JoinByCode(userID, code string) (*models.Campaign, error) {
	if !models.IsValidActivationCode(code) {
		return nil, models.ErrInvalidActivationCode
	}

	var joined models.Campaign
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("activation_code = ?", code).
			First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCampaignNotFound
			}
			return models.WrapInternal("failed to lock campaign", err)
		}

		if err := campaign.JoinableAt(time.Now()); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.CampaignParticipant{}).
			Where("campaign_id = ? AND user_id = ?", campaign.ID, userID).
			Count(&existing).Error; err != nil {
			return models.WrapInternal("failed to check membership", err)
		}
		if existing > 0 {
			return models.ErrAlreadyJoined
		}

		if campaign.MaxParticipants != nil {
			var count int64
			if err := tx.Model(&models.CampaignParticipant{}).
				Where("campaign_id = ?", campaign.ID).
				Count(&count).Error; err != nil {
				return models.WrapInternal("failed to count participants", err)
			}
			if count >= int64(*campaign.MaxParticipants) {
				return models.ErrCampaignFull
			}
		}

		participant := models.CampaignParticipant{
			CampaignID: campaign.ID,
			UserID:     userID,
		}
		if err := tx.Create(&participant).Error; err != nil {
			if isUniqueViolation(err) {
				return models.ErrAlreadyJoined
			}
			return models.WrapInternal("failed to create membership", err)
		}

		joined = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎉 User %s joined campaign %q (%s)", userID, joined.Title, joined.ID)
	return &joined, nil
}

// TMAURL builds the Mini-App deep link for a campaign.
func (s *CampaignService) TMAURL(campaign *models.Campaign) string {
	base := os.Getenv("TMA_BASE_URL")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s?startapp=campaign_%s", strings.TrimRight(base, "/"), campaign.Slug)
}

// CreateCampaignInput is validated at the boundary before touching the DB.
type CreateCampaignInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	MaxParticipants *int       `json:"max_participants"`
}

func (in *CreateCampaignInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewDomainError(models.KindValidation, "title is required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return models.NewDomainError(models.KindValidation, "end_date must be after start_date")
	}
	if in.MaxParticipants != nil && *in.MaxParticipants < 1 {
		return models.NewDomainError(models.KindValidation, "max_participants must be positive")
	}
	return nil
}

// CreateCampaign inserts a DRAFT campaign with a freshly generated
// activation code. Codes are retried on collision; uniqueness among
// non-deleted campaigns is enforced by the index.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*models.Campaign, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	campaign := models.Campaign{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Slug:            slug.Make(in.Title),
		Status:          models.CampaignStatusDraft,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		MaxParticipants: in.MaxParticipants,
	}

	for attempt := 0; attempt < 5; attempt++ {
		campaign.ActivationCode = GenerateActivationCode()
		err := s.DB.Create(&campaign).Error
		if err == nil {
			log.Printf("📣 Campaign created: %q, code %s", campaign.Title, campaign.ActivationCode)
			return &campaign, nil
		}
		if !isUniqueViolation(err) {
			return nil, models.WrapInternal("failed to create campaign", err)
		}
	}
	return nil, models.WrapInternal("failed to allocate activation code", nil)
}

// GenerateActivationCode returns a random 6-digit numeric code,
// zero-padded so the format check always holds.
func GenerateActivationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the process environment is broken.
		panic(fmt.Sprintf("activation code generation: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// validStatusTransitions mirrors the explicit campaign lifecycle.
var validStatusTransitions = map[models.CampaignStatus][]models.CampaignStatus{
	models.CampaignStatusDraft:     {models.CampaignStatusActive, models.CampaignStatusArchived},
	models.CampaignStatusActive:    {models.CampaignStatusPaused, models.CampaignStatusCompleted, models.CampaignStatusArchived},
	models.CampaignStatusPaused:    {models.CampaignStatusActive, models.CampaignStatusCompleted, models.CampaignStatusArchived},
	models.CampaignStatusCompleted: {models.CampaignStatusArchived},
	models.CampaignStatusArchived:  {},
}

// CanTransition reports whether the lifecycle allows from → to.
func CanTransition(from, to models.CampaignStatus) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SetStatus transitions a campaign's lifecycle state explicitly.
func (s *CampaignService) SetStatus(campaignID string, status models.CampaignStatus) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.DB.Where("id = ?", campaignID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCampaignNotFound
		}
		return nil, models.WrapInternal("failed to load campaign", err)
	}
	if !CanTransition(campaign.Status, status) {
		return nil, models.NewDomainError(models.KindValidation,
			fmt.Sprintf("cannot transition campaign from %s to %s", campaign.Status, status))
	}
	campaign.Status = status
	if err := s.DB.Save(&campaign).Error; err != nil {
		return nil, models.WrapInternal("failed to update campaign status", err)
	}
	log.Printf("📣 Campaign %q → %s", campaign.Title, status)
	return &campaign, nil
}

// DeleteCampaign soft-deletes a campaign, refusing while it still has
// missions (non-deleted ones).
func (s *CampaignService) DeleteCampaign(campaignID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Where("id = ?", campaignID).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCampaignNotFound
			}
			return models.WrapInternal("failed to load campaign", err)
		}
		var missions int64
		if err := tx.Model(&models.Mission{}).
			Where("campaign_id = ?", campaignID).
			Count(&missions).Error; err != nil {
			return models.WrapInternal("failed to count missions", err)
		}
		if missions > 0 {
			return models.ErrCampaignHasMissions
		}
		if err := tx.Delete(&campaign).Error; err != nil {
			return models.WrapInternal("failed to delete campaign", err)
		}
		return nil
	})
}

// GetCampaign loads one campaign by id.
func (s *CampaignService) GetCampaign(campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.DB.Where("id = ?", campaignID).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCampaignNotFound
		}
		return nil, models.WrapInternal("failed to load campaign", err)
	}
	return &campaign, nil
}

// ListJoined returns the campaigns a user participates in.
func (s *CampaignService) ListJoined(userID string) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.DB.
		Joins("JOIN campaign_participants cp ON cp.campaign_id = campaigns.id").
		Where("cp.user_id = ?", userID).
		Order("campaigns.created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, models.WrapInternal("failed to list joined campaigns", err)
	}
	return campaigns, nil
}

// ListCampaigns returns all campaigns, optionally filtered by status.
func (s *CampaignService) ListCampaigns(status models.CampaignStatus) ([]models.Campaign, error) {
	q := s.DB.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var campaigns []models.Campaign
	if err := q.Find(&campaigns).Error; err != nil {
		return nil, models.WrapInternal("failed to list campaigns", err)
	}
	return campaigns, nil
}

// SetCoverURL stores the uploaded cover's public URL.
func (s *CampaignService) SetCoverURL(campaignID, url string) error {
	res := s.DB.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Update("cover_url", url)
	if res.Error != nil {
		return models.WrapInternal("failed to update cover", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrCampaignNotFound
	}
	return nil
}
