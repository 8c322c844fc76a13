package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"campaign-quest-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementService owns the transition of a completion into APPROVED:
// crediting experience/mana/competency points, granting achievements
// whose conditions became satisfied, and queueing the outbox
// notification. Everything runs in one transaction; settlement happens
// at most once per (user, mission) regardless of how often approval is
// requested.
type SettlementService struct {
	DB *gorm.DB
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db}
}

// ModerateCompletion applies a moderator verdict to a PENDING_REVIEW
// completion. REJECTED requires a non-empty comment. Approving an
// already-APPROVED completion is a no-op, never a double credit.
func (s *SettlementService) ModerateCompletion(missionID, completionID, moderatorID string, verdict models.CompletionStatus, comment string) (*models.MissionCompletion, error) {
	if verdict != models.CompletionStatusApproved && verdict != models.CompletionStatusRejected {
		return nil, models.NewDomainError(models.KindValidation, "verdict must be APPROVED or REJECTED")
	}
	if verdict == models.CompletionStatusRejected && strings.TrimSpace(comment) == "" {
		return nil, models.ErrCommentRequired
	}

	var result *models.MissionCompletion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		completion, err := lockCompletion(tx, completionID)
		if err != nil {
			return err
		}
		if completion.MissionID != missionID {
			return models.ErrCompletionNotFound
		}

		if verdict == models.CompletionStatusRejected {
			if completion.Status == models.CompletionStatusApproved {
				return models.NewDomainError(models.KindConflict, "completion is already approved")
			}
			now := time.Now()
			completion.Status = models.CompletionStatusRejected
			completion.ModeratorID = &moderatorID
			completion.ModeratorComment = comment
			completion.UpdatedAt = now
			if err := tx.Save(completion).Error; err != nil {
				return models.WrapInternal("failed to reject completion", err)
			}
			if err := s.enqueueRejectedNotice(tx, completion, comment); err != nil {
				return err
			}
			result = completion
			return nil
		}

		settled, err := s.Approve(tx, completion, &moderatorID, comment)
		if err != nil {
			return err
		}
		result = settled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Approve settles a completion inside the caller's transaction. The
// completion must have been read under a row lock in the same
// transaction. If it is already APPROVED the call returns the existing
// state without crediting anything.
func (s *SettlementService) Approve(tx *gorm.DB, completion *models.MissionCompletion, moderatorID *string, comment string) (*models.MissionCompletion, error) {
	if completion.Status == models.CompletionStatusApproved {
		return completion, nil
	}

	var mission models.Mission
	if err := tx.Preload("CompetencyRewards").
		Where("id = ?", completion.MissionID).
		First(&mission).Error; err != nil {
		return nil, models.WrapInternal("failed to load mission for settlement", err)
	}

	now := time.Now()
	completion.Status = models.CompletionStatusApproved
	completion.SettledAt = &now
	completion.ModeratorID = moderatorID
	completion.ModeratorComment = comment
	if err := tx.Save(completion).Error; err != nil {
		return nil, models.WrapInternal("failed to approve completion", err)
	}

	user, err := s.creditUser(tx, completion.UserID, mission.ExperienceReward, mission.ManaReward)
	if err != nil {
		return nil, err
	}

	for _, reward := range mission.CompetencyRewards {
		if err := s.creditCompetency(tx, completion.UserID, reward.CompetencyID, reward.Points); err != nil {
			return nil, err
		}
	}

	granted, err := s.checkAchievements(tx, user, &mission)
	if err != nil {
		return nil, err
	}

	if err := s.enqueueApprovedNotice(tx, user, &mission, granted); err != nil {
		return nil, err
	}

	log.Printf("✅ Settled mission %q for user %s: +%d XP, +%d mana, %d achievement(s)",
		mission.Title, user.ID, mission.ExperienceReward, mission.ManaReward, len(granted))
	return completion, nil
}

// creditUser adds experience and mana under a row lock and promotes the
// user's rank when the new experience total crosses a threshold.
// Zero-amount rewards are a no-op but not an error.
func (s *SettlementService) creditUser(tx *gorm.DB, userID string, xp, mana int64) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.WrapInternal("failed to lock user", err)
	}

	user.ExperiencePoints += xp
	user.ManaPoints += mana

	if xp > 0 {
		var current models.Rank
		if err := tx.Where("id = ?", user.RankID).First(&current).Error; err != nil {
			return nil, models.WrapInternal("failed to load current rank", err)
		}
		var ranks []models.Rank
		if err := tx.Order("priority ASC").Find(&ranks).Error; err != nil {
			return nil, models.WrapInternal("failed to load ranks", err)
		}
		if next := NextRank(ranks, current.Priority, user.ExperiencePoints); next != nil {
			user.RankID = next.ID
			log.Printf("🏅 User %s promoted to rank %q", user.ID, next.Name)
		}
	}

	if err := tx.Save(&user).Error; err != nil {
		return nil, models.WrapInternal("failed to credit user", err)
	}
	return &user, nil
}

// NextRank picks the highest-priority rank whose experience requirement
// is met, or nil if the user already holds it. Ranks must be sorted by
// ascending priority.
func NextRank(ranks []models.Rank, currentPriority int, experience int64) *models.Rank {
	var best *models.Rank
	for i := range ranks {
		if ranks[i].MinExperience <= experience {
			best = &ranks[i]
		}
	}
	if best == nil || best.Priority <= currentPriority {
		return nil
	}
	return best
}

// creditCompetency upserts the per-competency point total additively.
func (s *SettlementService) creditCompetency(tx *gorm.DB, userID, competencyID string, points int64) error {
	if points == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "competency_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("user_competencies.points + ?", points),
			"updated_at": time.Now(),
		}),
	}).Create(&models.UserCompetency{
		UserID:       userID,
		CompetencyID: competencyID,
		Points:       points,
	}).Error
	if err != nil {
		return models.WrapInternal("failed to credit competency", err)
	}
	return nil
}

// checkAchievements evaluates every achievement in the mission's
// campaign not yet granted to the user. An achievement whose required
// missions all hold an APPROVED completion is granted exactly once (the
// unique index absorbs concurrent grants) and its own rewards are
// credited through the same path as mission rewards. Runs inside the
// triggering settlement's transaction: a partial failure rolls back the
// whole approval.
func (s *SettlementService) checkAchievements(tx *gorm.DB, user *models.User, mission *models.Mission) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := tx.Where("campaign_id = ?", mission.CampaignID).
		Find(&achievements).Error; err != nil {
		return nil, models.WrapInternal("failed to load achievements", err)
	}
	if len(achievements) == 0 {
		return nil, nil
	}

	approved, err := approvedMissionSet(tx, user.ID, mission.CampaignID)
	if err != nil {
		return nil, err
	}

	var grantedIDs []string
	if err := tx.Model(&models.UserAchievement{}).
		Where("user_id = ?", user.ID).
		Pluck("achievement_id", &grantedIDs).Error; err != nil {
		return nil, models.WrapInternal("failed to load granted achievements", err)
	}
	alreadyGranted := make(map[string]bool, len(grantedIDs))
	for _, id := range grantedIDs {
		alreadyGranted[id] = true
	}

	var granted []models.Achievement
	for _, a := range achievements {
		if alreadyGranted[a.ID] {
			continue
		}
		if !a.UnlockConditions.SatisfiedBy(approved) {
			continue
		}

		grant := models.UserAchievement{
			UserID:        user.ID,
			AchievementID: a.ID,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).Create(&grant)
		if res.Error != nil {
			return nil, models.WrapInternal("failed to grant achievement", res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent settlement got there first.
			continue
		}

		if a.ExperienceReward > 0 || a.ManaReward > 0 {
			if _, err := s.creditUser(tx, user.ID, a.ExperienceReward, a.ManaReward); err != nil {
				return nil, err
			}
		}
		granted = append(granted, a)
		log.Printf("🏆 Achievement %q granted to user %s", a.Name, user.ID)
	}
	return granted, nil
}

// approvedMissionSet collects the mission IDs in one campaign that the
// user has an APPROVED completion for, as seen by this transaction.
func approvedMissionSet(tx *gorm.DB, userID, campaignID string) (map[string]bool, error) {
	var ids []string
	err := tx.Model(&models.MissionCompletion{}).
		Joins("JOIN missions m ON m.id = mission_completions.mission_id").
		Where("mission_completions.user_id = ? AND mission_completions.status = ? AND m.campaign_id = ?",
			userID, models.CompletionStatusApproved, campaignID).
		Pluck("mission_completions.mission_id", &ids).Error
	if err != nil {
		return nil, models.WrapInternal("failed to load approved completions", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// lockCompletion reads a completion row FOR UPDATE.
func lockCompletion(tx *gorm.DB, completionID string) (*models.MissionCompletion, error) {
	var completion models.MissionCompletion
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", completionID).
		First(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCompletionNotFound
		}
		return nil, models.WrapInternal("failed to lock completion", err)
	}
	return &completion, nil
}

// ListPendingReview returns PENDING_REVIEW completions for moderation.
func (s *SettlementService) ListPendingReview(missionID string) ([]models.MissionCompletion, error) {
	var completions []models.MissionCompletion
	q := s.DB.Preload("User").
		Where("status = ?", models.CompletionStatusPendingReview).
		Order("created_at ASC")
	if missionID != "" {
		q = q.Where("mission_id = ?", missionID)
	}
	if err := q.Find(&completions).Error; err != nil {
		return nil, models.WrapInternal("failed to list pending completions", err)
	}
	return completions, nil
}

// Outbox rows are written inside the settlement transaction; the
// notification worker drains them after commit, so a send failure can
// never roll back a credited reward.

func (s *SettlementService) enqueueApprovedNotice(tx *gorm.DB, user *models.User, mission *models.Mission, granted []models.Achievement) error {
	text := fmt.Sprintf("✅ Mission %q approved! +%d XP, +%d mana.", mission.Title, mission.ExperienceReward, mission.ManaReward)
	for _, a := range granted {
		text += fmt.Sprintf("\n🏆 Achievement unlocked: %q (+%d mana)", a.Name, a.ManaReward)
	}
	return enqueueNotification(tx, user.TelegramID, text)
}

func (s *SettlementService) enqueueRejectedNotice(tx *gorm.DB, completion *models.MissionCompletion, comment string) error {
	var user models.User
	if err := tx.Where("id = ?", completion.UserID).First(&user).Error; err != nil {
		return models.WrapInternal("failed to load user for notification", err)
	}
	var mission models.Mission
	if err := tx.Where("id = ?", completion.MissionID).First(&mission).Error; err != nil {
		return models.WrapInternal("failed to load mission for notification", err)
	}
	text := fmt.Sprintf("❌ Mission %q was rejected: %s\nYou can submit again.", mission.Title, comment)
	return enqueueNotification(tx, user.TelegramID, text)
}

func enqueueNotification(tx *gorm.DB, telegramID int64, text string) error {
	if err := tx.Create(&models.Notification{
		TelegramID: telegramID,
		Text:       text,
	}).Error; err != nil {
		return models.WrapInternal("failed to enqueue notification", err)
	}
	return nil
}
