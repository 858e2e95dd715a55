package quiz

import (
	"fmt"
	"math"
	"strings"

	"github.com/quizprep/backend/internal/models"
)

// PointsPerCorrect is the raw score awarded per correct answer.
const PointsPerCorrect = 10

// ScoreSummary is the outcome of scoring one submission.
type ScoreSummary struct {
	RawScore       int
	CorrectAnswers int
	FalseAnswers   int
	Answers        []models.ScoredAnswer
}

// ScoreSubmission grades a submission against the issued question set. The
// submitted answers must cover exactly the issued ids, no more and no fewer;
// order is irrelevant, the summary always follows issued order. Answer text
// comparison is case-insensitive with surrounding whitespace ignored.
func ScoreSubmission(issuedIDs []int64, submitted []models.SubmittedAnswer, questions map[int64]models.Question) (*ScoreSummary, error) {
	issued := make(map[int64]bool, len(issuedIDs))
	for _, id := range issuedIDs {
		issued[id] = true
	}

	answers := make(map[int64]string, len(submitted))
	for _, a := range submitted {
		if !issued[a.ID] {
			return nil, fmt.Errorf("%w: question %d was not part of this quiz", ErrAnswerSetMismatch, a.ID)
		}
		if _, dup := answers[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate answer for question %d", ErrAnswerSetMismatch, a.ID)
		}
		answers[a.ID] = a.Answer
	}
	if len(answers) != len(issuedIDs) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrAnswerSetMismatch, len(issuedIDs), len(answers))
	}

	summary := &ScoreSummary{Answers: make([]models.ScoredAnswer, 0, len(issuedIDs))}
	for _, id := range issuedIDs {
		q, ok := questions[id]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", id, ErrQuestionNotFound)
		}

		userAnswer := answers[id]
		correct := normalizeAnswer(userAnswer) == normalizeAnswer(q.CorrectAnswer)
		if correct {
			summary.RawScore += PointsPerCorrect
			summary.CorrectAnswers++
		} else {
			summary.FalseAnswers++
		}

		summary.Answers = append(summary.Answers, models.ScoredAnswer{
			QuestionID:    id,
			UserAnswer:    userAnswer,
			IsCorrect:     correct,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return summary, nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Percentage converts a raw score into a 0..100 percentage rounded to two
// decimals. A zero-question quiz scores 0 rather than dividing by zero.
func Percentage(rawScore, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}
	pct := float64(rawScore) / float64(totalQuestions*PointsPerCorrect) * 100
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return math.Round(pct*100) / 100
}
