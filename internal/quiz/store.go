package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/quizprep/backend/internal/models"
)

// Store owns the questions table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const questionCols = `id, question, options, correct_answer, level, category, created_at, updated_at`

func scanQuestion(row interface{ Scan(...interface{}) error }) (*models.Question, error) {
	var q models.Question
	err := row.Scan(
		&q.ID, &q.Question, pq.Array(&q.Options), &q.CorrectAnswer,
		&q.Level, &q.Category, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	return scanQuestion(s.db.QueryRowContext(ctx,
		`INSERT INTO questions (question, options, correct_answer, level, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+questionCols,
		q.Question, pq.Array(q.Options), q.CorrectAnswer, q.Level, q.Category,
	))
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d: %w", id, ErrQuestionNotFound)
	}
	return q, err
}

// ListQuestions returns a page of the bank plus the unpaged total.
func (s *Store) ListQuestions(ctx context.Context, limit, offset int) ([]models.Question, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

func (s *Store) UpdateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	updated, err := scanQuestion(s.db.QueryRowContext(ctx,
		`UPDATE questions
		 SET question = $1, options = $2, correct_answer = $3, level = $4, category = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING `+questionCols,
		q.Question, pq.Array(q.Options), q.CorrectAnswer, q.Level, q.Category, q.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d: %w", q.ID, ErrQuestionNotFound)
	}
	return updated, err
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %d: %w", id, ErrQuestionNotFound)
	}
	return nil
}

// Sample draws n distinct random questions. A short bank is an error, not a
// smaller quiz: issuing fewer questions than asked for would silently change
// the scoring denominator.
func (s *Store) Sample(ctx context.Context, n int) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions ORDER BY RANDOM() LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available to start a quiz", ErrInsufficientData)
	}
	if len(questions) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, n, len(questions))
	}
	return questions, nil
}

// RandomQuestion draws one question for practice mode.
func (s *Store) RandomQuestion(ctx context.Context) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions ORDER BY RANDOM() LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no questions available", ErrInsufficientData)
	}
	return q, err
}

// ByIDs fetches the given questions in one round trip. Ids that no longer
// exist are silently absent from the result; the scorer decides whether that
// matters.
func (s *Store) ByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = ANY($1)`, pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]models.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = *q
	}
	return byID, rows.Err()
}
