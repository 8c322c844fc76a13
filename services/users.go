package services

import (
	"errors"
	"log"
	"strings"

	"campaign-quest-system/models"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// TelegramIdentity is the external identity the messaging platform hands
// us: an opaque numeric id plus optional display fields.
type TelegramIdentity struct {
	TelegramID int64  `json:"telegram_id" validate:"required"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	PhotoURL   string `json:"photo_url"`
}

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// ResolveTelegramUser finds or creates the user for an external identity.
// New users get the rank with the lowest priority among non-deleted ranks;
// if no rank exists the call fails with a configuration fault. Safe under
// concurrent calls for the same identity: the unique index on telegram_id
// is the backstop, and a lost race resolves to the existing row.
func (s *UserService) ResolveTelegramUser(identity TelegramIdentity) (*models.User, error) {
	var user models.User
	err := s.DB.Where("telegram_id = ?", identity.TelegramID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.WrapInternal("failed to look up user", err)
	}

	var initialRank models.Rank
	if err := s.DB.Order("priority ASC").First(&initialRank).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Operator misconfiguration, not a per-request fault.
			return nil, models.ErrNoInitialRank
		}
		return nil, models.WrapInternal("failed to load initial rank", err)
	}

	user = models.User{
		TelegramID: identity.TelegramID,
		Username:   strings.TrimPrefix(identity.Username, "@"),
		FirstName:  normalizeName(identity.FirstName),
		LastName:   normalizeName(identity.LastName),
		PhotoURL:   identity.PhotoURL,
		RankID:     initialRank.ID,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the creation race; the winner's row is authoritative.
			var existing models.User
			if ferr := s.DB.Where("telegram_id = ?", identity.TelegramID).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
			return nil, models.WrapInternal("failed to resolve user after conflict", err)
		}
		return nil, models.WrapInternal("failed to create user", err)
	}

	log.Printf("👤 New user registered: %s (tg:%d), rank %q", user.DisplayName(), user.TelegramID, initialRank.Name)
	return &user, nil
}

// GetByID loads a user with rank preloaded.
func (s *UserService) GetByID(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("Rank").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.WrapInternal("failed to load user", err)
	}
	return &user, nil
}

// GetCompetencies returns the user's accumulated competency points.
func (s *UserService) GetCompetencies(userID string) ([]models.UserCompetency, error) {
	var comps []models.UserCompetency
	if err := s.DB.Preload("Competency").
		Where("user_id = ?", userID).
		Find(&comps).Error; err != nil {
		return nil, models.WrapInternal("failed to load competencies", err)
	}
	return comps, nil
}

// GetAchievements returns the achievements granted to the user.
func (s *UserService) GetAchievements(userID string) ([]models.UserAchievement, error) {
	var grants []models.UserAchievement
	if err := s.DB.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&grants).Error; err != nil {
		return nil, models.WrapInternal("failed to load achievements", err)
	}
	return grants, nil
}

// normalizeName NFC-normalizes display fields so the same identity
// always stores byte-identical names.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// isUniqueViolation matches Postgres duplicate-key failures surfaced
// through the driver. gorm translates them to ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
