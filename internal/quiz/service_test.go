package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quizprep/backend/internal/models"
)

// ── Fakes ───────────────────────────────────────────────

type fakeBank struct {
	questions []models.Question
}

func (f *fakeBank) Sample(ctx context.Context, n int) ([]models.Question, error) {
	if len(f.questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available to start a quiz", ErrInsufficientData)
	}
	if len(f.questions) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, n, len(f.questions))
	}
	return f.questions[:n], nil
}

func (f *fakeBank) RandomQuestion(ctx context.Context) (*models.Question, error) {
	if len(f.questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available", ErrInsufficientData)
	}
	return &f.questions[0], nil
}

func (f *fakeBank) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	for _, q := range f.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, fmt.Errorf("question %d: %w", id, ErrQuestionNotFound)
}

func (f *fakeBank) ByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error) {
	byID := map[int64]models.Question{}
	for _, q := range f.questions {
		for _, id := range ids {
			if q.ID == id {
				byID[q.ID] = q
			}
		}
	}
	return byID, nil
}

type fakeResults struct {
	finalized []*models.QuizResult
}

func (f *fakeResults) Finalize(ctx context.Context, result *models.QuizResult, rawScore int) error {
	result.ID = int64(len(f.finalized) + 1)
	result.Score = Percentage(rawScore, result.TotalQuestions)
	result.AttemptedAt = time.Now()
	f.finalized = append(f.finalized, result)
	return nil
}

func (f *fakeResults) History(ctx context.Context, userID int64) ([]models.QuizResult, error) {
	results := []models.QuizResult{}
	for i := len(f.finalized) - 1; i >= 0; i-- {
		if f.finalized[i].UserID == userID {
			results = append(results, *f.finalized[i])
		}
	}
	return results, nil
}

type fakeUsers struct{}

func (fakeUsers) UserByID(id int64, includeInactive bool) (*models.User, error) {
	return &models.User{ID: id, Email: "taker@example.com", Name: "Quiz Taker"}, nil
}

func newTestService(t *testing.T, questions ...models.Question) (*Service, *SessionStore, *fakeResults) {
	t.Helper()
	sessions, _ := newTestSessionStore(t)
	results := &fakeResults{}
	svc := NewService(&fakeBank{questions: questions}, sessions, results, fakeUsers{})
	return svc, sessions, results
}

var serviceQuestions = []models.Question{
	{ID: 1, Question: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice", "Lille"}, CorrectAnswer: "Paris", Level: models.DifficultyEasy, Category: models.CategoryGeneral},
	{ID: 2, Question: "2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4", Level: models.DifficultyEasy, Category: models.CategoryMath},
	{ID: 3, Question: "Largest ocean?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectAnswer: "Pacific", Level: models.DifficultyMedium, Category: models.CategoryGeneral},
}

// ── StartQuiz ───────────────────────────────────────────

func TestStartQuizIssuesSession(t *testing.T) {
	svc, sessions, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	resp, err := svc.StartQuiz(ctx, 42, 0)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	if resp.Total != DefaultQuizSize || len(resp.Questions) != DefaultQuizSize {
		t.Errorf("issued %d questions, want default %d", len(resp.Questions), DefaultQuizSize)
	}
	if resp.SessionID == "" {
		t.Error("SessionID is empty")
	}
	for _, q := range resp.Questions {
		if len(q.Options) != models.OptionsPerQuestion {
			t.Errorf("question %d has %d options, want %d", q.ID, len(q.Options), models.OptionsPerQuestion)
		}
	}

	session, err := sessions.Get(ctx, 42)
	if err != nil {
		t.Fatalf("no session stored: %v", err)
	}
	if session.ID != resp.SessionID {
		t.Errorf("stored session ID %q, response says %q", session.ID, resp.SessionID)
	}
	if len(session.QuestionIDs) != DefaultQuizSize {
		t.Errorf("session holds %d question ids, want %d", len(session.QuestionIDs), DefaultQuizSize)
	}
}

func TestStartQuizServedQuestionsHideAnswers(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions...)

	resp, err := svc.StartQuiz(context.Background(), 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	// QuizQuestion has no answer field at all; spot-check the payload shape
	// anyway in case the projection ever changes.
	for _, q := range resp.Questions {
		if q.Question == "" || len(q.Options) == 0 {
			t.Errorf("served question %d is incomplete: %+v", q.ID, q)
		}
	}
}

func TestStartQuizInsufficientQuestions(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions[0])

	_, err := svc.StartQuiz(context.Background(), 42, 3)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestStartQuizEmptyBank(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.StartQuiz(context.Background(), 42, 3)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestStartQuizReplacesActiveSession(t *testing.T) {
	svc, sessions, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	first, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}
	second, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	if first.SessionID == second.SessionID {
		t.Error("restart reused the same session id")
	}

	session, err := sessions.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if session.ID != second.SessionID {
		t.Errorf("live session is %q, want the restarted one %q", session.ID, second.SessionID)
	}
}

// ── SubmitQuiz ──────────────────────────────────────────

func submitAll(resp *models.StartQuizResponse, answerFor func(id int64) string) *models.SubmitQuizRequest {
	req := &models.SubmitQuizRequest{}
	for _, q := range resp.Questions {
		req.Answers = append(req.Answers, models.SubmittedAnswer{ID: q.ID, Answer: answerFor(q.ID)})
	}
	return req
}

func correctAnswerFor(id int64) string {
	for _, q := range serviceQuestions {
		if q.ID == id {
			return q.CorrectAnswer
		}
	}
	return ""
}

func TestSubmitQuizHappyPath(t *testing.T) {
	svc, sessions, results := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	started, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	resp, err := svc.SubmitQuiz(ctx, 42, submitAll(started, correctAnswerFor))
	if err != nil {
		t.Fatalf("SubmitQuiz error: %v", err)
	}

	if resp.Score != 100 {
		t.Errorf("Score = %v, want 100", resp.Score)
	}
	if resp.CorrectAnswers != 3 || resp.FalseAnswers != 0 {
		t.Errorf("correct/false = %d/%d, want 3/0", resp.CorrectAnswers, resp.FalseAnswers)
	}
	if resp.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", resp.TotalQuestions)
	}

	// Result is durable with user snapshot and per-question breakdown.
	if len(results.finalized) != 1 {
		t.Fatalf("finalized %d results, want 1", len(results.finalized))
	}
	stored := results.finalized[0]
	if stored.UserName != "Quiz Taker" || stored.UserEmail != "taker@example.com" {
		t.Errorf("result snapshot = %q/%q, want user name and email", stored.UserName, stored.UserEmail)
	}
	if stored.SessionID != started.SessionID {
		t.Errorf("result session = %q, want %q", stored.SessionID, started.SessionID)
	}
	if len(stored.QuizAnswers) != 3 {
		t.Errorf("stored %d answers, want 3", len(stored.QuizAnswers))
	}

	// Session is consumed.
	if _, err := sessions.Get(ctx, 42); !errors.Is(err, ErrNoActiveQuiz) {
		t.Errorf("session after submit: err = %v, want ErrNoActiveQuiz", err)
	}
}

func TestSubmitQuizNoActiveSession(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions...)

	req := &models.SubmitQuizRequest{Answers: []models.SubmittedAnswer{{ID: 1, Answer: "Paris"}}}
	_, err := svc.SubmitQuiz(context.Background(), 42, req)
	if !errors.Is(err, ErrNoActiveQuiz) {
		t.Errorf("err = %v, want ErrNoActiveQuiz", err)
	}
}

func TestSubmitQuizSecondSubmitFails(t *testing.T) {
	svc, _, results := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	started, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	req := submitAll(started, correctAnswerFor)
	if _, err := svc.SubmitQuiz(ctx, 42, req); err != nil {
		t.Fatalf("first SubmitQuiz error: %v", err)
	}

	_, err = svc.SubmitQuiz(ctx, 42, req)
	if !errors.Is(err, ErrNoActiveQuiz) {
		t.Errorf("second submit err = %v, want ErrNoActiveQuiz", err)
	}
	if len(results.finalized) != 1 {
		t.Errorf("finalized %d results after double submit, want 1", len(results.finalized))
	}
}

func TestSubmitQuizExpiredSession(t *testing.T) {
	svc, sessions, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	// A session whose clock ran out but whose key has not been evicted yet.
	stale := &models.ActiveQuiz{
		ID:          "stale",
		UserID:      42,
		QuestionIDs: []int64{1, 2, 3},
		CreatedAt:   time.Now().Add(-SessionTTL - time.Minute),
	}
	if err := sessions.Put(ctx, stale); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	req := &models.SubmitQuizRequest{Answers: []models.SubmittedAnswer{
		{ID: 1, Answer: "Paris"}, {ID: 2, Answer: "4"}, {ID: 3, Answer: "Pacific"},
	}}
	_, err := svc.SubmitQuiz(ctx, 42, req)
	if !errors.Is(err, ErrQuizExpired) {
		t.Errorf("err = %v, want ErrQuizExpired", err)
	}

	// The stale session is gone; a retry reports no active quiz.
	if _, err := sessions.Get(ctx, 42); !errors.Is(err, ErrNoActiveQuiz) {
		t.Errorf("session after expiry: err = %v, want ErrNoActiveQuiz", err)
	}
}

func TestExpiredDiscardLeavesReplacement(t *testing.T) {
	svc, sessions, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	stale := &models.ActiveQuiz{
		ID:          "stale",
		UserID:      42,
		QuestionIDs: []int64{1, 2, 3},
		CreatedAt:   time.Now().Add(-SessionTTL - time.Minute),
	}
	if err := sessions.Put(ctx, stale); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	// A submit handler has loaded the stale session, and before it discards
	// it the user starts a fresh quiz.
	loaded, err := sessions.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	started, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	// Discarding the stale session must not touch the fresh one.
	ok, err := sessions.Consume(ctx, loaded)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if ok {
		t.Error("Consume = true for stale session, want false")
	}

	live, err := sessions.Get(ctx, 42)
	if err != nil {
		t.Fatalf("fresh session disappeared: %v", err)
	}
	if live.ID != started.SessionID {
		t.Errorf("live session = %q, want the fresh one %q", live.ID, started.SessionID)
	}
}

func TestSubmitQuizMismatchPreservesSession(t *testing.T) {
	svc, sessions, results := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	started, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	// One answer short.
	req := &models.SubmitQuizRequest{Answers: []models.SubmittedAnswer{
		{ID: started.Questions[0].ID, Answer: "Paris"},
	}}
	_, err = svc.SubmitQuiz(ctx, 42, req)
	if !errors.Is(err, ErrAnswerSetMismatch) {
		t.Fatalf("err = %v, want ErrAnswerSetMismatch", err)
	}

	// The user can fix the submission and try again.
	if _, err := sessions.Get(ctx, 42); err != nil {
		t.Errorf("session should survive a mismatched submission: %v", err)
	}
	if len(results.finalized) != 0 {
		t.Errorf("finalized %d results on mismatch, want 0", len(results.finalized))
	}

	resp, err := svc.SubmitQuiz(ctx, 42, submitAll(started, correctAnswerFor))
	if err != nil {
		t.Fatalf("retry SubmitQuiz error: %v", err)
	}
	if resp.Score != 100 {
		t.Errorf("retry Score = %v, want 100", resp.Score)
	}
}

// ── History ─────────────────────────────────────────────

func TestHistoryNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		started, err := svc.StartQuiz(ctx, 42, 3)
		if err != nil {
			t.Fatalf("StartQuiz error: %v", err)
		}
		if _, err := svc.SubmitQuiz(ctx, 42, submitAll(started, correctAnswerFor)); err != nil {
			t.Fatalf("SubmitQuiz error: %v", err)
		}
	}

	history, err := svc.History(ctx, 42)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if history.Total != 2 || len(history.Results) != 2 {
		t.Fatalf("history has %d results, want 2", len(history.Results))
	}
	if history.Results[0].ID <= history.Results[1].ID {
		t.Errorf("history order = [%d %d], want newest first", history.Results[0].ID, history.Results[1].ID)
	}
}

func TestHistoryEmptyForNewUser(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions...)

	history, err := svc.History(context.Background(), 42)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if history.Total != 0 || len(history.Results) != 0 {
		t.Errorf("history = %+v, want empty", history)
	}
}

// ── Practice ────────────────────────────────────────────

func TestPracticeDoesNotTouchSessions(t *testing.T) {
	svc, sessions, _ := newTestService(t, serviceQuestions...)
	ctx := context.Background()

	started, err := svc.StartQuiz(ctx, 42, 3)
	if err != nil {
		t.Fatalf("StartQuiz error: %v", err)
	}

	if _, err := svc.PracticeQuestion(ctx); err != nil {
		t.Fatalf("PracticeQuestion error: %v", err)
	}
	resp, err := svc.CheckAnswer(ctx, &models.PracticeAnswerRequest{QuestionID: 1, Answer: "paris"})
	if err != nil {
		t.Fatalf("CheckAnswer error: %v", err)
	}
	if !resp.IsCorrect || resp.CorrectAnswer != "Paris" {
		t.Errorf("CheckAnswer = %+v, want correct with answer revealed", resp)
	}

	session, err := sessions.Get(ctx, 42)
	if err != nil {
		t.Fatalf("active session disappeared after practice: %v", err)
	}
	if session.ID != started.SessionID {
		t.Errorf("session changed after practice: %q != %q", session.ID, started.SessionID)
	}
}

func TestCheckAnswerUnknownQuestion(t *testing.T) {
	svc, _, _ := newTestService(t, serviceQuestions...)

	_, err := svc.CheckAnswer(context.Background(), &models.PracticeAnswerRequest{QuestionID: 404, Answer: "x"})
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("err = %v, want ErrQuestionNotFound", err)
	}
}
