package quiz

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/quizprep/backend/internal/models"
)

// ResultStore owns the quiz_results and quiz_result_answers tables. Results
// are append-only; nothing here updates or deletes.
type ResultStore struct {
	db *sql.DB
}

func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// Finalize persists a finished attempt: the result row plus its per-question
// answers, in one transaction. The percentage is computed here from the raw
// score so every stored result went through the same conversion.
func (s *ResultStore) Finalize(ctx context.Context, result *models.QuizResult, rawScore int) error {
	if len(result.QuizAnswers) != result.TotalQuestions {
		return fmt.Errorf("result has %d answers for %d questions", len(result.QuizAnswers), result.TotalQuestions)
	}
	result.Score = Percentage(rawScore, result.TotalQuestions)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO quiz_results (user_id, user_name, user_email, session_id, score, total_questions, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, attempted_at`,
		result.UserID, result.UserName, result.UserEmail, result.SessionID, result.Score, result.TotalQuestions,
	).Scan(&result.ID, &result.AttemptedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	for i, a := range result.QuizAnswers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_result_answers (result_id, position, question_id, user_answer, is_correct, correct_answer)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			result.ID, i, a.QuestionID, a.UserAnswer, a.IsCorrect, a.CorrectAnswer,
		)
		if err != nil {
			return fmt.Errorf("insert result answer: %w", err)
		}
	}

	return tx.Commit()
}

// History returns all of a user's results, newest first, with their answer
// breakdowns attached.
func (s *ResultStore) History(ctx context.Context, userID int64) ([]models.QuizResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, user_name, user_email, session_id, score, total_questions, attempted_at
		 FROM quiz_results
		 WHERE user_id = $1
		 ORDER BY attempted_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.QuizResult{}
	resultIDs := []int64{}
	for rows.Next() {
		var r models.QuizResult
		err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.UserEmail, &r.SessionID,
			&r.Score, &r.TotalQuestions, &r.AttemptedAt)
		if err != nil {
			return nil, err
		}
		r.QuizAnswers = []models.ScoredAnswer{}
		results = append(results, r)
		resultIDs = append(resultIDs, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return results, nil
	}

	answerRows, err := s.db.QueryContext(ctx,
		`SELECT result_id, question_id, user_answer, is_correct, correct_answer
		 FROM quiz_result_answers
		 WHERE result_id = ANY($1)
		 ORDER BY result_id, position`,
		pq.Array(resultIDs),
	)
	if err != nil {
		return nil, err
	}
	defer answerRows.Close()

	byResult := make(map[int64][]models.ScoredAnswer, len(results))
	for answerRows.Next() {
		var resultID int64
		var a models.ScoredAnswer
		if err := answerRows.Scan(&resultID, &a.QuestionID, &a.UserAnswer, &a.IsCorrect, &a.CorrectAnswer); err != nil {
			return nil, err
		}
		byResult[resultID] = append(byResult[resultID], a)
	}
	if err := answerRows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if answers, ok := byResult[results[i].ID]; ok {
			results[i].QuizAnswers = answers
		}
	}
	return results, nil
}
