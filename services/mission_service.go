package services

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"campaign-quest-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MissionSubmission is the tagged-variant input for a completion
// attempt: exactly one field is consulted depending on mission type.
type MissionSubmission struct {
	// URL is the MANUAL_URL payload.
	URL string `json:"url,omitempty"`
	// Answers is the QUIZ payload: one selected option per question.
	Answers []QuizAnswerSelection `json:"answers,omitempty"`
	// Code is the QR_CODE payload (the scanned completion code).
	Code string `json:"code,omitempty"`
}

type QuizAnswerSelection struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

type MissionService struct {
	DB         *gorm.DB
	Settlement *SettlementService
}

func NewMissionService(db *gorm.DB, settlement *SettlementService) *MissionService {
	return &MissionService{DB: db, Settlement: settlement}
}

// SubmitMission evaluates a completion attempt. Preconditions common to
// all types: the user joined the mission's campaign, the mission is not
// gated away (rank AND achievement must both pass when set), and no
// APPROVED completion exists yet. The verdict, the completion row and —
// when approved — the full reward settlement commit atomically.
func (s *MissionService) SubmitMission(userID, missionID string, submission MissionSubmission) (*models.MissionCompletion, error) {
	var result *models.MissionCompletion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		mission, err := loadMissionWithDetails(tx, missionID)
		if err != nil {
			return err
		}
		if err := s.checkAccess(tx, userID, mission); err != nil {
			return err
		}

		completion, err := lockExistingCompletion(tx, userID, missionID)
		if err != nil {
			return err
		}
		if completion != nil {
			switch completion.Status {
			case models.CompletionStatusApproved:
				return models.ErrAlreadyCompleted
			case models.CompletionStatusPendingReview:
				return models.ErrPendingReview
			}
			// REJECTED: the row is overwritten in place below.
		}

		verdict, resultData, err := evaluate(mission, submission)
		if err != nil {
			return err
		}

		if completion == nil {
			completion = &models.MissionCompletion{
				MissionID: missionID,
				UserID:    userID,
			}
		}
		// The row lands as PENDING_REVIEW or REJECTED here; the APPROVED
		// transition belongs to settlement alone.
		completion.Status = models.CompletionStatusPendingReview
		if verdict == models.CompletionStatusRejected {
			completion.Status = models.CompletionStatusRejected
		}
		completion.ResultData = resultData
		completion.ModeratorID = nil
		completion.ModeratorComment = ""
		if err := tx.Save(completion).Error; err != nil {
			if isUniqueViolation(err) {
				return models.ErrPendingReview
			}
			return models.WrapInternal("failed to record completion", err)
		}

		if verdict == models.CompletionStatusApproved {
			settled, err := s.Settlement.Approve(tx, completion, nil, "")
			if err != nil {
				return err
			}
			result = settled
			return nil
		}
		result = completion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteQRByCode resolves a scanned completion code to its mission and
// submits it for the user. Matching the code is immediate approval.
func (s *MissionService) CompleteQRByCode(userID, code string) (*models.MissionCompletion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, models.NewDomainError(models.KindValidation, "completion code is required")
	}

	var detail models.MissionQRDetail
	if err := s.DB.Where("completion_code = ?", code).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMissionNotFound
		}
		return nil, models.WrapInternal("failed to resolve completion code", err)
	}

	return s.SubmitMission(userID, detail.MissionID, MissionSubmission{Code: code})
}

// evaluate produces the verdict and the stored result payload for one
// submission. PENDING_REVIEW means a moderator decides later.
func evaluate(mission *models.Mission, submission MissionSubmission) (models.CompletionStatus, string, error) {
	switch mission.Type {
	case models.MissionTypeManualURL:
		submitted := strings.TrimSpace(submission.URL)
		if submitted == "" {
			return "", "", models.NewDomainError(models.KindValidation, "url is required")
		}
		if u, err := url.Parse(submitted); err != nil || u.Scheme == "" || u.Host == "" {
			return "", "", models.NewDomainError(models.KindValidation, "url must be absolute")
		}
		return models.CompletionStatusPendingReview, submitted, nil

	case models.MissionTypeQuiz:
		if mission.QuizDetail == nil {
			return "", "", models.WrapInternal("quiz mission has no detail record", nil)
		}
		if len(submission.Answers) == 0 {
			return "", "", models.NewDomainError(models.KindValidation, "answers are required")
		}
		correct, total := ScoreQuiz(mission.QuizDetail.Questions, submission.Answers)
		verdict := models.CompletionStatusRejected
		if QuizPassed(correct, total, mission.QuizDetail.PassThreshold) {
			verdict = models.CompletionStatusApproved
		}
		return verdict, fmt.Sprintf("quiz: %d/%d correct", correct, total), nil

	case models.MissionTypeQRCode:
		if mission.QRDetail == nil {
			return "", "", models.WrapInternal("qr mission has no detail record", nil)
		}
		if submission.Code != mission.QRDetail.CompletionCode {
			return "", "", models.NewDomainError(models.KindValidation, "invalid completion code")
		}
		return models.CompletionStatusApproved, submission.Code, nil

	default:
		return "", "", models.WrapInternal(fmt.Sprintf("unknown mission type %q", mission.Type), nil)
	}
}

// ScoreQuiz counts questions whose selected option is the correct one.
// Unanswered or unknown questions count as wrong.
func ScoreQuiz(questions []models.QuizQuestion, answers []QuizAnswerSelection) (correct, total int) {
	selected := make(map[string]string, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.OptionID
	}
	total = len(questions)
	for _, q := range questions {
		optionID, ok := selected[q.ID]
		if !ok {
			continue
		}
		for _, opt := range q.Options {
			if opt.ID == optionID && opt.IsCorrect {
				correct++
				break
			}
		}
	}
	return correct, total
}

// QuizPassed applies the pass threshold, inclusive at the boundary.
func QuizPassed(correct, total int, threshold float64) bool {
	if total == 0 {
		return false
	}
	return float64(correct)/float64(total) >= threshold
}

// checkAccess enforces the common preconditions: campaign membership
// plus the rank and achievement gates. Both gates must pass
// independently when both are set.
func (s *MissionService) checkAccess(tx *gorm.DB, userID string, mission *models.Mission) error {
	var member int64
	if err := tx.Model(&models.CampaignParticipant{}).
		Where("campaign_id = ? AND user_id = ?", mission.CampaignID, userID).
		Count(&member).Error; err != nil {
		return models.WrapInternal("failed to check membership", err)
	}
	if member == 0 {
		return models.ErrNotJoined
	}

	if mission.RequiredRankID != nil {
		var user models.User
		if err := tx.Preload("Rank").Where("id = ?", userID).First(&user).Error; err != nil {
			return models.WrapInternal("failed to load user rank", err)
		}
		var required models.Rank
		if err := tx.Where("id = ?", *mission.RequiredRankID).First(&required).Error; err != nil {
			return models.WrapInternal("failed to load required rank", err)
		}
		if user.Rank == nil || user.Rank.Priority < required.Priority {
			return models.ErrMissionLocked
		}
	}

	if mission.RequiredAchievementID != nil {
		var held int64
		if err := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ?", userID, *mission.RequiredAchievementID).
			Count(&held).Error; err != nil {
			return models.WrapInternal("failed to check required achievement", err)
		}
		if held == 0 {
			return models.ErrMissionLocked
		}
	}
	return nil
}

// gateLockState folds an access-check result into the per-user locked
// flag. Only the gates read as locked; an infrastructure failure
// propagates instead of masquerading as one.
func gateLockState(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, models.ErrMissionLocked) || errors.Is(err, models.ErrNotJoined) {
		return true, nil
	}
	return false, err
}

// MissionView is the client-facing shape: gating flags resolved for the
// requesting user, quiz answer key redacted by the model's json tags.
type MissionView struct {
	models.Mission
	Locked     bool                      `json:"locked"`
	Completion *models.MissionCompletion `json:"completion,omitempty"`
}

// ListForUser returns a campaign's missions with per-user lock state and
// the user's completion, if any. QR completion codes and quiz answer
// flags never serialize (json:"-" on the fields).
func (s *MissionService) ListForUser(campaignID, userID string) ([]MissionView, error) {
	var member int64
	if err := s.DB.Model(&models.CampaignParticipant{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&member).Error; err != nil {
		return nil, models.WrapInternal("failed to check membership", err)
	}
	if member == 0 {
		return nil, models.ErrNotJoined
	}

	var missions []models.Mission
	if err := s.DB.
		Preload("CompetencyRewards.Competency").
		Preload("URLDetail").
		Preload("QuizDetail.Questions.Options").
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&missions).Error; err != nil {
		return nil, models.WrapInternal("failed to list missions", err)
	}

	var completions []models.MissionCompletion
	if err := s.DB.Where("user_id = ?", userID).Find(&completions).Error; err != nil {
		return nil, models.WrapInternal("failed to load completions", err)
	}
	byMission := make(map[string]*models.MissionCompletion, len(completions))
	for i := range completions {
		byMission[completions[i].MissionID] = &completions[i]
	}

	views := make([]MissionView, 0, len(missions))
	for i := range missions {
		locked, err := gateLockState(s.checkAccess(s.DB, userID, &missions[i]))
		if err != nil {
			return nil, err
		}
		views = append(views, MissionView{
			Mission:    missions[i],
			Locked:     locked,
			Completion: byMission[missions[i].ID],
		})
	}
	return views, nil
}

// CreateMissionInput covers all three mission types; the detail variant
// matching Type must be present, the others absent.
type CreateMissionInput struct {
	CampaignID  string             `json:"campaign_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Type        models.MissionType `json:"type"`

	ExperienceReward int64 `json:"experience_reward"`
	ManaReward       int64 `json:"mana_reward"`

	CompetencyRewards []struct {
		CompetencyID string `json:"competency_id"`
		Points       int64  `json:"points"`
	} `json:"competency_rewards"`

	RequiredRankID        *string `json:"required_rank_id"`
	RequiredAchievementID *string `json:"required_achievement_id"`

	SubmissionPrompt string `json:"submission_prompt"` // MANUAL_URL

	PassThreshold float64 `json:"pass_threshold"` // QUIZ
	Questions     []struct {
		Text    string `json:"text"`
		Options []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"options"`
	} `json:"questions"`

	CompletionCode string `json:"completion_code"` // QR_CODE; generated when empty
}

func (in *CreateMissionInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewDomainError(models.KindValidation, "title is required")
	}
	if in.ExperienceReward < 0 || in.ManaReward < 0 {
		return models.NewDomainError(models.KindValidation, "rewards cannot be negative")
	}
	switch in.Type {
	case models.MissionTypeManualURL:
		// prompt may be empty; the mission description carries context
	case models.MissionTypeQuiz:
		if in.PassThreshold <= 0 || in.PassThreshold > 1 {
			return models.NewDomainError(models.KindValidation, "pass_threshold must be in (0, 1]")
		}
		if len(in.Questions) == 0 {
			return models.NewDomainError(models.KindValidation, "quiz needs at least one question")
		}
		for _, q := range in.Questions {
			var correct int
			for _, o := range q.Options {
				if o.IsCorrect {
					correct++
				}
			}
			if correct != 1 {
				return models.NewDomainError(models.KindValidation, "each question needs exactly one correct option")
			}
		}
	case models.MissionTypeQRCode:
		// code is generated when not provided
	default:
		return models.NewDomainError(models.KindValidation, "type must be MANUAL_URL, QUIZ or QR_CODE")
	}
	return nil
}

// CreateMission inserts a mission together with exactly one detail
// record matching its declared type.
func (s *MissionService) CreateMission(in CreateMissionInput) (*models.Mission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created models.Mission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Where("id = ?", in.CampaignID).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCampaignNotFound
			}
			return models.WrapInternal("failed to load campaign", err)
		}

		mission := models.Mission{
			CampaignID:            in.CampaignID,
			Title:                 strings.TrimSpace(in.Title),
			Description:           in.Description,
			Type:                  in.Type,
			ExperienceReward:      in.ExperienceReward,
			ManaReward:            in.ManaReward,
			RequiredRankID:        in.RequiredRankID,
			RequiredAchievementID: in.RequiredAchievementID,
		}
		if err := tx.Create(&mission).Error; err != nil {
			return models.WrapInternal("failed to create mission", err)
		}

		for _, cr := range in.CompetencyRewards {
			if err := tx.Create(&models.MissionCompetencyReward{
				MissionID:    mission.ID,
				CompetencyID: cr.CompetencyID,
				Points:       cr.Points,
			}).Error; err != nil {
				return models.WrapInternal("failed to create competency reward", err)
			}
		}

		switch in.Type {
		case models.MissionTypeManualURL:
			if err := tx.Create(&models.MissionURLDetail{
				MissionID:        mission.ID,
				SubmissionPrompt: in.SubmissionPrompt,
			}).Error; err != nil {
				return models.WrapInternal("failed to create url detail", err)
			}

		case models.MissionTypeQuiz:
			detail := models.MissionQuizDetail{
				MissionID:     mission.ID,
				PassThreshold: in.PassThreshold,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return models.WrapInternal("failed to create quiz detail", err)
			}
			for qi, q := range in.Questions {
				question := models.QuizQuestion{
					QuizDetailID: detail.ID,
					Text:         q.Text,
					Position:     qi,
				}
				if err := tx.Create(&question).Error; err != nil {
					return models.WrapInternal("failed to create quiz question", err)
				}
				for oi, o := range q.Options {
					if err := tx.Create(&models.QuizAnswerOption{
						QuestionID: question.ID,
						Text:       o.Text,
						IsCorrect:  o.IsCorrect,
						Position:   oi,
					}).Error; err != nil {
						return models.WrapInternal("failed to create quiz option", err)
					}
				}
			}

		case models.MissionTypeQRCode:
			code := strings.TrimSpace(in.CompletionCode)
			if code == "" {
				code = fmt.Sprintf("qr-%s", GenerateActivationCode())
			}
			if err := tx.Create(&models.MissionQRDetail{
				MissionID:      mission.ID,
				CompletionCode: code,
			}).Error; err != nil {
				if isUniqueViolation(err) {
					return models.NewDomainError(models.KindConflict, "completion code already in use")
				}
				return models.WrapInternal("failed to create qr detail", err)
			}
		}

		created = mission
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🗺️ Mission created: %q (%s) in campaign %s", created.Title, created.Type, created.CampaignID)
	return &created, nil
}

// DeleteMission soft-deletes a mission, refusing while any completion
// is recorded against it.
func (s *MissionService) DeleteMission(missionID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var mission models.Mission
		if err := tx.Where("id = ?", missionID).First(&mission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrMissionNotFound
			}
			return models.WrapInternal("failed to load mission", err)
		}
		var completions int64
		if err := tx.Model(&models.MissionCompletion{}).
			Where("mission_id = ?", missionID).
			Count(&completions).Error; err != nil {
			return models.WrapInternal("failed to count completions", err)
		}
		if completions > 0 {
			return models.ErrMissionHasCompletions
		}
		if err := tx.Delete(&mission).Error; err != nil {
			return models.WrapInternal("failed to delete mission", err)
		}
		return nil
	})
}

// SetQRImageURL stores the uploaded QR image's public URL.
func (s *MissionService) SetQRImageURL(missionID, url string) error {
	res := s.DB.Model(&models.MissionQRDetail{}).
		Where("mission_id = ?", missionID).
		Update("qr_image_url", url)
	if res.Error != nil {
		return models.WrapInternal("failed to update qr image", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrMissionNotFound
	}
	return nil
}

func loadMissionWithDetails(tx *gorm.DB, missionID string) (*models.Mission, error) {
	var mission models.Mission
	err := tx.
		Preload("CompetencyRewards").
		Preload("URLDetail").
		Preload("QuizDetail.Questions.Options").
		Preload("QRDetail").
		Where("id = ?", missionID).
		First(&mission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMissionNotFound
		}
		return nil, models.WrapInternal("failed to load mission", err)
	}
	return &mission, nil
}

// lockExistingCompletion reads the (user, mission) completion FOR UPDATE
// so concurrent submissions and approvals serialize on the row. Returns
// nil when no attempt exists yet.
func lockExistingCompletion(tx *gorm.DB, userID, missionID string) (*models.MissionCompletion, error) {
	var completion models.MissionCompletion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		First(&completion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.WrapInternal("failed to lock completion", err)
	}
	return &completion, nil
}
