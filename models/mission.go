package models

import (
	"time"

	"gorm.io/gorm"
)

// MissionType selects which detail table is consulted when a submission
// is evaluated. Exactly one detail record exists per mission.
type MissionType string

const (
	MissionTypeManualURL MissionType = "MANUAL_URL"
	MissionTypeQuiz      MissionType = "QUIZ"
	MissionTypeQRCode    MissionType = "QR_CODE"
)

// Mission is a task within a campaign yielding rewards on approval.
// Visibility can be gated by rank and/or achievement; both gates must
// pass independently when both are set.
type Mission struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID  string `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Type MissionType `gorm:"type:varchar(16);not null" json:"type"`

	ExperienceReward int64 `gorm:"default:0" json:"experience_reward"`
	ManaReward       int64 `gorm:"default:0" json:"mana_reward"`

	CompetencyRewards []MissionCompetencyReward `gorm:"foreignKey:MissionID" json:"competency_rewards,omitempty"`

	RequiredRankID        *string `gorm:"type:uuid" json:"required_rank_id,omitempty"`
	RequiredRank          *Rank   `gorm:"foreignKey:RequiredRankID" json:"required_rank,omitempty"`
	RequiredAchievementID *string `gorm:"type:uuid" json:"required_achievement_id,omitempty"`

	URLDetail  *MissionURLDetail  `gorm:"foreignKey:MissionID" json:"url_detail,omitempty"`
	QuizDetail *MissionQuizDetail `gorm:"foreignKey:MissionID" json:"quiz_detail,omitempty"`
	QRDetail   *MissionQRDetail   `gorm:"foreignKey:MissionID" json:"-"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MissionCompetencyReward attaches {competency, points} to a mission.
type MissionCompetencyReward struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MissionID    string `gorm:"type:uuid;not null;uniqueIndex:idx_mission_competency" json:"mission_id"`
	CompetencyID string `gorm:"type:uuid;not null;uniqueIndex:idx_mission_competency" json:"competency_id"`
	Points       int64  `gorm:"not null" json:"points"`

	Competency *Competency `gorm:"foreignKey:CompetencyID" json:"competency,omitempty"`
}

// MissionURLDetail holds the prompt shown for MANUAL_URL missions.
// Submissions always land in PENDING_REVIEW for human moderation.
type MissionURLDetail struct {
	ID               string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MissionID        string `gorm:"type:uuid;uniqueIndex;not null" json:"mission_id"`
	SubmissionPrompt string `gorm:"type:text" json:"submission_prompt"`
}

// MissionQuizDetail holds the pass threshold; questions carry the key.
type MissionQuizDetail struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MissionID string `gorm:"type:uuid;uniqueIndex;not null" json:"mission_id"`

	// PassThreshold is the minimum correct fraction, inclusive.
	PassThreshold float64 `gorm:"not null;default:1" json:"pass_threshold"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizDetailID" json:"questions,omitempty"`
}

type QuizQuestion struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	QuizDetailID string `gorm:"type:uuid;not null;index" json:"quiz_detail_id"`
	Text         string `gorm:"type:text;not null" json:"text"`
	Position     int    `gorm:"default:0" json:"position"`

	Options []QuizAnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

// QuizAnswerOption never exposes IsCorrect to submitting clients
// (json:"-"); only text reaches the Mini-App before submission.
type QuizAnswerOption struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	QuestionID string `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
	Position   int    `gorm:"default:0" json:"position"`
}

// MissionQRDetail holds the secret completion code delivered out-of-band
// as a scannable image. Presenting the code is immediate approval.
type MissionQRDetail struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MissionID      string `gorm:"type:uuid;uniqueIndex;not null" json:"mission_id"`
	CompletionCode string `gorm:"uniqueIndex;not null" json:"-"`
	QRImageURL     string `gorm:"type:text" json:"qr_image_url,omitempty"`
}

// CompletionStatus is the verdict attached to a submission.
type CompletionStatus string

const (
	CompletionStatusPendingReview CompletionStatus = "PENDING_REVIEW"
	CompletionStatusApproved      CompletionStatus = "APPROVED"
	CompletionStatusRejected      CompletionStatus = "REJECTED"
)

// MissionCompletion records one user's attempt at a mission. Reward
// settlement runs at most once per (user, mission) reaching APPROVED.
// Rows are never deleted; a rejected MANUAL_URL attempt is overwritten
// in place on resubmission.
type MissionCompletion struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MissionID string `gorm:"type:uuid;not null;uniqueIndex:idx_mission_user" json:"mission_id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_mission_user" json:"user_id"`

	Status     CompletionStatus `gorm:"type:varchar(16);not null;default:'PENDING_REVIEW'" json:"status"`
	ResultData string           `gorm:"type:text" json:"result_data,omitempty"`

	// Set once settlement has credited rewards; the idempotency marker.
	SettledAt *time.Time `json:"settled_at,omitempty"`

	ModeratorID      *string `gorm:"type:uuid" json:"moderator_id,omitempty"`
	ModeratorComment string  `gorm:"type:text" json:"moderator_comment,omitempty"`

	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
