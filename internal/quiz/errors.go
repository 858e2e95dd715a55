package quiz

import "errors"

var (
	// ErrInsufficientData means the question bank cannot satisfy the
	// requested quiz size.
	ErrInsufficientData = errors.New("insufficient question data")

	// ErrNoActiveQuiz means the user has no live session to act on.
	ErrNoActiveQuiz = errors.New("no active quiz")

	// ErrQuizExpired means the session outlived its time window and was
	// discarded.
	ErrQuizExpired = errors.New("quiz expired")

	// ErrAnswerSetMismatch means the submitted answers do not cover exactly
	// the issued question set.
	ErrAnswerSetMismatch = errors.New("answer set mismatch")

	// ErrQuestionNotFound means a referenced question no longer exists.
	ErrQuestionNotFound = errors.New("question not found")
)
