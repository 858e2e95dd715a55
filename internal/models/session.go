package models

import "time"

// ActiveQuiz is the live quiz session for one user. It owns the list of
// issued question ids and nothing else; the full question records are fetched
// fresh at scoring time so an admin edit never scores against stale content.
//
// Sessions are keyed by user in the session store, which is what makes
// "at most one live session per user" structural rather than best-effort.
type ActiveQuiz struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	QuestionIDs []int64   `json:"question_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpiresAt returns the instant the session stops being submittable.
func (a ActiveQuiz) ExpiresAt(ttl time.Duration) time.Time {
	return a.CreatedAt.Add(ttl)
}
