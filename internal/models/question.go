package models

import (
	"fmt"
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

type Category string

const (
	CategoryMath     Category = "math"
	CategoryScience  Category = "science"
	CategoryComputer Category = "computer"
	CategorySport    Category = "sport"
	CategoryHistory  Category = "history"
	CategoryGeneral  Category = "general"
)

var ValidCategories = map[Category]bool{
	CategoryMath:     true,
	CategoryScience:  true,
	CategoryComputer: true,
	CategorySport:    true,
	CategoryHistory:  true,
	CategoryGeneral:  true,
}

// OptionsPerQuestion is the fixed size of a question's option set.
const OptionsPerQuestion = 4

// ── Core Structs ───────────────────────────────────────

type Question struct {
	ID            int64      `json:"id"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Level         Difficulty `json:"level"`
	Category      Category   `json:"category"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Normalize lowercases the enum fields and trims surrounding whitespace,
// mirroring what admins actually paste in.
func (q *Question) Normalize() {
	q.Question = strings.TrimSpace(q.Question)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.Level = Difficulty(strings.ToLower(strings.TrimSpace(string(q.Level))))
	q.Category = Category(strings.ToLower(strings.TrimSpace(string(q.Category))))
	for i, opt := range q.Options {
		q.Options[i] = strings.TrimSpace(opt)
	}
}

// Validate checks the structural rules for a question record.
func (q Question) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question must have a value")
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("options must have exactly %d items", OptionsPerQuestion)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("a correct answer is required")
	}
	found := false
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("correct answer must be one of the options")
	}
	if !ValidDifficulties[q.Level] {
		return fmt.Errorf("level must be 'easy', 'medium', or 'hard'")
	}
	if !ValidCategories[q.Category] {
		return fmt.Errorf("invalid category %q", q.Category)
	}
	return nil
}

// ── Client Projections (strip answers for serving) ─────

// QuizQuestion is the shape served when a quiz starts. The correct answer is
// never present here.
type QuizQuestion struct {
	ID       int64    `json:"id"`
	Category Category `json:"category"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (q Question) ToQuizQuestion() QuizQuestion {
	return QuizQuestion{
		ID:       q.ID,
		Category: q.Category,
		Question: q.Question,
		Options:  q.Options,
	}
}

// PracticeQuestion is the single-question practice projection.
type PracticeQuestion struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ── Request Types ─────────────────────────────────────

type StartQuizRequest struct {
	Count int `json:"count"`
}

type SubmittedAnswer struct {
	ID     int64  `json:"id"`
	Answer string `json:"answer"`
}

type SubmitQuizRequest struct {
	Answers []SubmittedAnswer `json:"answers"`
}

type PracticeAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// ── Response Types ────────────────────────────────────

type StartQuizResponse struct {
	SessionID string         `json:"session_id"`
	Questions []QuizQuestion `json:"questions"`
	Total     int            `json:"total"`
}

type SubmitQuizResponse struct {
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	FalseAnswers   int     `json:"false_answers"`
	Message        string  `json:"message"`
}

type PracticeAnswerResponse struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
}

type QuestionListResponse struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}
