package models

import (
	"time"

	"gorm.io/gorm"
)

// User is created on first contact (bot deep link or Mini-App login) and
// mutated only by reward settlement. Users are never hard-deleted.
type User struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`

	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	PhotoURL  string `gorm:"type:text" json:"photo_url,omitempty"`

	ExperiencePoints int64 `gorm:"default:0" json:"experience_points"`
	ManaPoints       int64 `gorm:"default:0" json:"mana_points"`

	RankID string `gorm:"type:uuid;not null" json:"rank_id"`
	Rank   *Rank  `gorm:"foreignKey:RankID" json:"rank,omitempty"`

	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName prefers the username, falling back to first/last name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// Rank is an ordered tier gating mission visibility. The rank with the
// lowest priority value is assigned to newly created users.
type Rank struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `gorm:"type:text" json:"icon_url,omitempty"`

	// Priority orders ranks ascending; gating compares
	// user_rank_priority >= required_rank_priority.
	Priority      int   `gorm:"not null;index" json:"priority"`
	MinExperience int64 `gorm:"default:0" json:"min_experience"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Competency is a named skill axis (e.g. "Teamwork") that missions can
// reward independently of experience.
type Competency struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserCompetency accumulates a user's points in one competency.
type UserCompetency struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string `gorm:"type:uuid;not null;uniqueIndex:idx_user_competency" json:"user_id"`
	CompetencyID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_competency" json:"competency_id"`

	Points int64 `gorm:"default:0" json:"points"`

	Competency *Competency `gorm:"foreignKey:CompetencyID" json:"competency,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
