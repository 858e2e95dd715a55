package quiz

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/quizprep/backend/internal/models"
)

// DefaultQuizSize is the number of questions issued when the client does not
// ask for a specific count.
const DefaultQuizSize = 3

// QuestionBank is the slice of the question store the service needs.
type QuestionBank interface {
	Sample(ctx context.Context, n int) ([]models.Question, error)
	RandomQuestion(ctx context.Context) (*models.Question, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error)
}

// ResultRecorder persists finalized attempts.
type ResultRecorder interface {
	Finalize(ctx context.Context, result *models.QuizResult, rawScore int) error
	History(ctx context.Context, userID int64) ([]models.QuizResult, error)
}

// UserDirectory resolves users for result snapshots.
type UserDirectory interface {
	UserByID(id int64, includeInactive bool) (*models.User, error)
}

// Service runs the quiz lifecycle: start, submit, history, practice.
type Service struct {
	bank     QuestionBank
	sessions *SessionStore
	results  ResultRecorder
	users    UserDirectory
}

func NewService(bank QuestionBank, sessions *SessionStore, results ResultRecorder, users UserDirectory) *Service {
	return &Service{bank: bank, sessions: sessions, results: results, users: users}
}

// StartQuiz samples a fresh question set and installs it as the user's active
// session. Starting while a session is live replaces it and restarts the
// expiry clock; the old session can never be submitted again.
func (s *Service) StartQuiz(ctx context.Context, userID int64, count int) (*models.StartQuizResponse, error) {
	if count <= 0 {
		count = DefaultQuizSize
	}

	questions, err := s.bank.Sample(ctx, count)
	if err != nil {
		return nil, err
	}

	session := &models.ActiveQuiz{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	served := make([]models.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		session.QuestionIDs = append(session.QuestionIDs, q.ID)
		served = append(served, q.ToQuizQuestion())
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	return &models.StartQuizResponse{
		SessionID: session.ID,
		Questions: served,
		Total:     len(served),
	}, nil
}

// SubmitQuiz grades the user's answers against their active session, writes
// the durable result, and retires the session. The result is written before
// the session is consumed, so a crash between the two leaves a submittable
// session alongside a stored result rather than a lost attempt.
func (s *Service) SubmitQuiz(ctx context.Context, userID int64, req *models.SubmitQuizRequest) (*models.SubmitQuizResponse, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Redis TTL is the backstop; this check catches a session that is past
	// its window but not yet evicted. Compare-and-delete so a fresh session
	// started meanwhile is left alone.
	if time.Now().After(session.ExpiresAt(s.sessions.TTL())) {
		if _, err := s.sessions.Consume(ctx, session); err != nil {
			log.Printf("[quiz] discard expired session error: %v", err)
		}
		return nil, ErrQuizExpired
	}

	questions, err := s.bank.ByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load quiz questions: %w", err)
	}

	summary, err := ScoreSubmission(session.QuestionIDs, req.Answers, questions)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UserByID(userID, false)
	if err != nil {
		return nil, fmt.Errorf("load user for result: %w", err)
	}

	result := &models.QuizResult{
		UserID:         userID,
		UserName:       user.Name,
		UserEmail:      user.Email,
		SessionID:      session.ID,
		TotalQuestions: len(session.QuestionIDs),
		QuizAnswers:    summary.Answers,
	}
	if err := s.results.Finalize(ctx, result, summary.RawScore); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	// Best effort: the result is already durable, so a cleanup failure only
	// leaves a session the TTL will evict.
	if _, err := s.sessions.Consume(ctx, session); err != nil {
		log.Printf("[quiz] consume session error: %v", err)
	}

	return &models.SubmitQuizResponse{
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: summary.CorrectAnswers,
		FalseAnswers:   summary.FalseAnswers,
		Message:        "Quiz submitted successfully!",
	}, nil
}

// History returns the user's finished attempts, newest first.
func (s *Service) History(ctx context.Context, userID int64) (*models.HistoryResponse, error) {
	results, err := s.results.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.HistoryResponse{Results: results, Total: len(results)}, nil
}

// PracticeQuestion draws a random question with the answer stripped. Practice
// never touches sessions or results.
func (s *Service) PracticeQuestion(ctx context.Context) (*models.PracticeQuestion, error) {
	q, err := s.bank.RandomQuestion(ctx)
	if err != nil {
		return nil, err
	}
	return &models.PracticeQuestion{ID: q.ID, Question: q.Question, Options: q.Options}, nil
}

// CheckAnswer grades a single practice answer and reveals the correct one.
func (s *Service) CheckAnswer(ctx context.Context, req *models.PracticeAnswerRequest) (*models.PracticeAnswerResponse, error) {
	q, err := s.bank.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	return &models.PracticeAnswerResponse{
		IsCorrect:     normalizeAnswer(req.Answer) == normalizeAnswer(q.CorrectAnswer),
		CorrectAnswer: q.CorrectAnswer,
	}, nil
}
