package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UnlockConditions is the typed set of mission IDs that must all be
// completed-and-approved before an achievement is granted. Stored as
// jsonb; malformed data fails at load time instead of being treated as
// "no requirements".
type UnlockConditions struct {
	RequiredMissions []string `json:"required_missions"`
}

// ParseUnlockConditions validates a raw jsonb payload.
func ParseUnlockConditions(raw []byte) (UnlockConditions, error) {
	var uc UnlockConditions
	if len(raw) == 0 {
		return uc, fmt.Errorf("unlock conditions: empty payload")
	}
	if err := json.Unmarshal(raw, &uc); err != nil {
		return uc, fmt.Errorf("unlock conditions: %w", err)
	}
	for _, id := range uc.RequiredMissions {
		if id == "" {
			return uc, fmt.Errorf("unlock conditions: empty mission id")
		}
	}
	return uc, nil
}

// SatisfiedBy reports whether every required mission appears in the
// user's approved set. An empty condition set never auto-grants.
func (uc UnlockConditions) SatisfiedBy(approvedMissionIDs map[string]bool) bool {
	if len(uc.RequiredMissions) == 0 {
		return false
	}
	for _, id := range uc.RequiredMissions {
		if !approvedMissionIDs[id] {
			return false
		}
	}
	return true
}

// Requires reports whether missionID is part of the condition set.
func (uc UnlockConditions) Requires(missionID string) bool {
	for _, id := range uc.RequiredMissions {
		if id == missionID {
			return true
		}
	}
	return false
}

// Value / Scan make UnlockConditions a jsonb column for GORM.
func (uc UnlockConditions) Value() (driver.Value, error) {
	return json.Marshal(uc)
}

func (uc *UnlockConditions) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		parsed, err := ParseUnlockConditions(v)
		if err != nil {
			return err
		}
		*uc = parsed
		return nil
	case string:
		parsed, err := ParseUnlockConditions([]byte(v))
		if err != nil {
			return err
		}
		*uc = parsed
		return nil
	default:
		return fmt.Errorf("unlock conditions: unsupported source type %T", src)
	}
}

// Achievement is a meta-reward granted when a set of missions is fully
// approved. Cannot be deleted once granted to any user.
type Achievement struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID  string `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	IconURL     string `gorm:"type:text" json:"icon_url,omitempty"`

	UnlockConditions UnlockConditions `gorm:"type:jsonb" json:"unlock_conditions"`

	ManaReward       int64 `gorm:"default:0" json:"mana_reward"`
	ExperienceReward int64 `gorm:"default:0" json:"experience_reward"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserAchievement grants an achievement to a user. Unique per
// (user, achievement): granting is idempotent.
type UserAchievement struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID        string `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`

	AwardedAt time.Time `json:"awarded_at" gorm:"autoCreateTime"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}
