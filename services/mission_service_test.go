package services

import (
	"errors"
	"testing"

	"campaign-quest-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizQuestion(id, correctOption string, wrongOptions ...string) models.QuizQuestion {
	q := models.QuizQuestion{
		ID: id,
		Options: []models.QuizAnswerOption{
			{ID: correctOption, IsCorrect: true},
		},
	}
	for _, w := range wrongOptions {
		q.Options = append(q.Options, models.QuizAnswerOption{ID: w})
	}
	return q
}

func TestScoreQuiz(t *testing.T) {
	questions := []models.QuizQuestion{
		quizQuestion("q1", "q1-a", "q1-b"),
		quizQuestion("q2", "q2-a", "q2-b"),
		quizQuestion("q3", "q3-a", "q3-b"),
	}

	t.Run("all correct", func(t *testing.T) {
		correct, total := ScoreQuiz(questions, []QuizAnswerSelection{
			{QuestionID: "q1", OptionID: "q1-a"},
			{QuestionID: "q2", OptionID: "q2-a"},
			{QuestionID: "q3", OptionID: "q3-a"},
		})
		assert.Equal(t, 3, correct)
		assert.Equal(t, 3, total)
	})

	t.Run("unanswered questions count as wrong", func(t *testing.T) {
		correct, total := ScoreQuiz(questions, []QuizAnswerSelection{
			{QuestionID: "q1", OptionID: "q1-a"},
		})
		assert.Equal(t, 1, correct)
		assert.Equal(t, 3, total)
	})

	t.Run("unknown question ids are ignored", func(t *testing.T) {
		correct, total := ScoreQuiz(questions, []QuizAnswerSelection{
			{QuestionID: "q1", OptionID: "q1-a"},
			{QuestionID: "q99", OptionID: "q1-a"},
		})
		assert.Equal(t, 1, correct)
		assert.Equal(t, 3, total)
	})

	t.Run("option from another question does not score", func(t *testing.T) {
		correct, _ := ScoreQuiz(questions, []QuizAnswerSelection{
			{QuestionID: "q1", OptionID: "q2-a"},
		})
		assert.Equal(t, 0, correct)
	})
}

func TestQuizPassed(t *testing.T) {
	// The threshold is inclusive: exactly 80% on a 0.8 quiz passes.
	assert.True(t, QuizPassed(4, 5, 0.8))
	assert.False(t, QuizPassed(3, 5, 0.8))
	assert.True(t, QuizPassed(5, 5, 1.0))
	assert.False(t, QuizPassed(4, 5, 1.0))
	assert.True(t, QuizPassed(1, 5, 0.2))

	// A quiz with no questions can never pass.
	assert.False(t, QuizPassed(0, 0, 0.5))
}

func TestEvaluateManualURL(t *testing.T) {
	mission := &models.Mission{Type: models.MissionTypeManualURL}

	t.Run("absolute url goes to review", func(t *testing.T) {
		verdict, result, err := evaluate(mission, MissionSubmission{URL: "https://example.com/proof"})
		require.NoError(t, err)
		assert.Equal(t, models.CompletionStatusPendingReview, verdict)
		assert.Equal(t, "https://example.com/proof", result)
	})

	t.Run("missing url", func(t *testing.T) {
		_, _, err := evaluate(mission, MissionSubmission{})
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("relative url", func(t *testing.T) {
		_, _, err := evaluate(mission, MissionSubmission{URL: "/just/a/path"})
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}

func TestEvaluateQuiz(t *testing.T) {
	mission := &models.Mission{
		Type: models.MissionTypeQuiz,
		QuizDetail: &models.MissionQuizDetail{
			PassThreshold: 0.8,
			Questions: []models.QuizQuestion{
				quizQuestion("q1", "q1-a", "q1-b"),
				quizQuestion("q2", "q2-a", "q2-b"),
				quizQuestion("q3", "q3-a", "q3-b"),
				quizQuestion("q4", "q4-a", "q4-b"),
				quizQuestion("q5", "q5-a", "q5-b"),
			},
		},
	}

	answers := func(correctCount int) []QuizAnswerSelection {
		ids := []string{"q1", "q2", "q3", "q4", "q5"}
		out := make([]QuizAnswerSelection, 0, len(ids))
		for i, id := range ids {
			option := id + "-a"
			if i >= correctCount {
				option = id + "-b"
			}
			out = append(out, QuizAnswerSelection{QuestionID: id, OptionID: option})
		}
		return out
	}

	t.Run("4 of 5 at 0.8 approves", func(t *testing.T) {
		verdict, result, err := evaluate(mission, MissionSubmission{Answers: answers(4)})
		require.NoError(t, err)
		assert.Equal(t, models.CompletionStatusApproved, verdict)
		assert.Equal(t, "quiz: 4/5 correct", result)
	})

	t.Run("3 of 5 at 0.8 rejects", func(t *testing.T) {
		verdict, _, err := evaluate(mission, MissionSubmission{Answers: answers(3)})
		require.NoError(t, err)
		assert.Equal(t, models.CompletionStatusRejected, verdict)
	})

	t.Run("no answers", func(t *testing.T) {
		_, _, err := evaluate(mission, MissionSubmission{})
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}

func TestEvaluateQRCode(t *testing.T) {
	mission := &models.Mission{
		Type:     models.MissionTypeQRCode,
		QRDetail: &models.MissionQRDetail{CompletionCode: "qr-318204"},
	}

	t.Run("matching code approves immediately", func(t *testing.T) {
		verdict, _, err := evaluate(mission, MissionSubmission{Code: "qr-318204"})
		require.NoError(t, err)
		assert.Equal(t, models.CompletionStatusApproved, verdict)
	})

	t.Run("wrong code", func(t *testing.T) {
		_, _, err := evaluate(mission, MissionSubmission{Code: "qr-000000"})
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}

func TestGateLockState(t *testing.T) {
	t.Run("no error means unlocked", func(t *testing.T) {
		locked, err := gateLockState(nil)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("gate errors read as locked", func(t *testing.T) {
		for _, gateErr := range []error{models.ErrMissionLocked, models.ErrNotJoined} {
			locked, err := gateLockState(gateErr)
			require.NoError(t, err)
			assert.True(t, locked, "error %v", gateErr)
		}
	})

	t.Run("infrastructure failure propagates", func(t *testing.T) {
		cause := models.WrapInternal("failed to load user rank", errors.New("dial tcp: timeout"))
		locked, err := gateLockState(cause)
		assert.ErrorIs(t, err, cause)
		assert.False(t, locked)
	})
}

func TestCreateMissionInputValidate(t *testing.T) {
	base := CreateMissionInput{
		CampaignID: "c1",
		Title:      "Scan the booth code",
		Type:       models.MissionTypeQRCode,
	}

	t.Run("valid qr mission", func(t *testing.T) {
		in := base
		assert.NoError(t, in.Validate())
	})

	t.Run("blank title", func(t *testing.T) {
		in := base
		in.Title = "   "
		assert.Error(t, in.Validate())
	})

	t.Run("negative reward", func(t *testing.T) {
		in := base
		in.ManaReward = -5
		assert.Error(t, in.Validate())
	})

	t.Run("unknown type", func(t *testing.T) {
		in := base
		in.Type = "TREASURE_HUNT"
		assert.Error(t, in.Validate())
	})

	quiz := func() CreateMissionInput {
		in := base
		in.Type = models.MissionTypeQuiz
		in.PassThreshold = 0.8
		in.Questions = []struct {
			Text    string `json:"text"`
			Options []struct {
				Text      string `json:"text"`
				IsCorrect bool   `json:"is_correct"`
			} `json:"options"`
		}{
			{
				Text: "Pick one",
				Options: []struct {
					Text      string `json:"text"`
					IsCorrect bool   `json:"is_correct"`
				}{
					{Text: "right", IsCorrect: true},
					{Text: "wrong"},
				},
			},
		}
		return in
	}

	t.Run("valid quiz", func(t *testing.T) {
		in := quiz()
		assert.NoError(t, in.Validate())
	})

	t.Run("threshold above one", func(t *testing.T) {
		in := quiz()
		in.PassThreshold = 1.5
		assert.Error(t, in.Validate())
	})

	t.Run("quiz without questions", func(t *testing.T) {
		in := quiz()
		in.Questions = nil
		assert.Error(t, in.Validate())
	})

	t.Run("question with two correct options", func(t *testing.T) {
		in := quiz()
		in.Questions[0].Options[1].IsCorrect = true
		assert.Error(t, in.Validate())
	})
}
