package models

import "testing"

func validQuestion() Question {
	return Question{
		Question:      "Capital of France?",
		Options:       []string{"Paris", "Lyon", "Nice", "Lille"},
		CorrectAnswer: "Paris",
		Level:         DifficultyEasy,
		Category:      CategoryGeneral,
	}
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Question)
		wantErr bool
	}{
		{"valid", func(q *Question) {}, false},
		{"empty text", func(q *Question) { q.Question = "" }, true},
		{"too few options", func(q *Question) { q.Options = q.Options[:3] }, true},
		{"too many options", func(q *Question) { q.Options = append(q.Options, "Marseille") }, true},
		{"no correct answer", func(q *Question) { q.CorrectAnswer = "" }, true},
		{"answer not an option", func(q *Question) { q.CorrectAnswer = "Berlin" }, true},
		{"bad level", func(q *Question) { q.Level = "impossible" }, true},
		{"bad category", func(q *Question) { q.Category = "astrology" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuestionNormalize(t *testing.T) {
	q := Question{
		Question:      "  Capital of France?  ",
		Options:       []string{" Paris ", "Lyon", "Nice", "Lille"},
		CorrectAnswer: " Paris ",
		Level:         " Easy ",
		Category:      " GENERAL ",
	}
	q.Normalize()

	if q.Question != "Capital of France?" {
		t.Errorf("Question = %q", q.Question)
	}
	if q.Options[0] != "Paris" || q.CorrectAnswer != "Paris" {
		t.Errorf("options/answer not trimmed: %q %q", q.Options[0], q.CorrectAnswer)
	}
	if q.Level != DifficultyEasy || q.Category != CategoryGeneral {
		t.Errorf("enums not normalized: %q %q", q.Level, q.Category)
	}
	if err := q.Validate(); err != nil {
		t.Errorf("normalized question should validate: %v", err)
	}
}

func TestToQuizQuestionStripsAnswer(t *testing.T) {
	q := validQuestion()
	q.ID = 7

	served := q.ToQuizQuestion()
	if served.ID != 7 || served.Question != q.Question {
		t.Errorf("projection lost fields: %+v", served)
	}
	if len(served.Options) != OptionsPerQuestion {
		t.Errorf("projection has %d options, want %d", len(served.Options), OptionsPerQuestion)
	}
}
