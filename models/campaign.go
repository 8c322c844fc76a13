package models

import (
	"regexp"
	"time"

	"gorm.io/gorm"
)

// CampaignStatus is the explicit lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusArchived  CampaignStatus = "ARCHIVED"
)

var activationCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// IsValidActivationCode reports whether code is a well-formed 6-digit code.
// Format-only check; existence is resolved against the database.
func IsValidActivationCode(code string) bool {
	return activationCodePattern.MatchString(code)
}

// Campaign is a time-bounded gamified initiative users join via an
// activation code. The code is unique among non-deleted campaigns.
type Campaign struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Slug        string `gorm:"index;not null" json:"slug"`
	CoverURL    string `gorm:"type:text" json:"cover_url,omitempty"`

	Status CampaignStatus `gorm:"type:varchar(16);not null;default:'DRAFT'" json:"status"`

	// Optional participation window. Nil means unbounded on that side.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Nil means unlimited capacity.
	MaxParticipants *int `json:"max_participants,omitempty"`

	ActivationCode string `gorm:"type:varchar(6);uniqueIndex;not null" json:"activation_code"`

	Missions     []Mission     `gorm:"foreignKey:CampaignID" json:"missions,omitempty"`
	Achievements []Achievement `gorm:"foreignKey:CampaignID" json:"achievements,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// JoinableAt checks the campaign's status and date window against now.
// Capacity and duplicate-membership checks stay in the admission
// transaction; this covers only the state that needs no row counting.
func (c *Campaign) JoinableAt(now time.Time) error {
	if c.Status != CampaignStatusActive {
		return ErrCampaignNotActive
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return ErrCampaignNotStarted
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return ErrCampaignEnded
	}
	return nil
}

// CampaignParticipant is the membership record, created exclusively by the
// admission flow. Unique per (user, campaign): a user joins at most once.
type CampaignParticipant struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID string `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_user" json:"campaign_id"`
	UserID     string `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_user" json:"user_id"`

	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
