package models

import "time"

// ── Result Types ─────────────────────────────────────────

// ScoredAnswer is the per-question record stored with a finalized result.
// The canonical correct answer is always included for audit and display,
// whether or not the user got it right.
type ScoredAnswer struct {
	QuestionID    int64  `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// QuizResult is the durable record of one finished attempt. The user's name
// and email are snapshotted at submission time so later profile edits don't
// rewrite history. Immutable once created.
type QuizResult struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	UserName       string         `json:"user_name"`
	UserEmail      string         `json:"user_email"`
	SessionID      string         `json:"session_id"`
	Score          float64        `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	QuizAnswers    []ScoredAnswer `json:"quiz_answers"`
	AttemptedAt    time.Time      `json:"attempted_at"`
}

type HistoryResponse struct {
	Results []QuizResult `json:"results"`
	Total   int          `json:"total"`
}
