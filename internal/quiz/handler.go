package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/quizprep/backend/internal/models"
)

type Handler struct {
	service *Service
	store   *Store
}

func NewHandler(service *Service, store *Store) *Handler {
	return &Handler{service: service, store: store}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// RegisterProtectedRoutes wires the quiz lifecycle endpoints. All of them
// need an authenticated user.
func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/quiz/start", h.StartQuiz).Methods("POST")
	r.HandleFunc("/quiz/submit", h.SubmitQuiz).Methods("POST")
	r.HandleFunc("/quiz/history", h.History).Methods("GET")
	r.HandleFunc("/questions/random", h.PracticeQuestion).Methods("GET")
	r.HandleFunc("/questions/submit-answer", h.CheckAnswer).Methods("POST")
}

// RegisterAdminRoutes wires the question bank CRUD. The full records carry
// the correct answers, so reads are admin-only too.
func (h *Handler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/questions", h.CreateQuestion).Methods("POST")
	r.HandleFunc("/questions", h.ListQuestions).Methods("GET")
	r.HandleFunc("/questions/{id:[0-9]+}", h.GetQuestion).Methods("GET")
	r.HandleFunc("/questions/{id:[0-9]+}", h.UpdateQuestion).Methods("PATCH")
	r.HandleFunc("/questions/{id:[0-9]+}", h.DeleteQuestion).Methods("DELETE")
}

// ── Quiz Lifecycle Handlers ─────────────────────────────

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	// An empty body means a default-size quiz.
	var req models.StartQuizRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}

	resp, err := h.service.StartQuiz(r.Context(), userID, req.Count)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.Printf("[handler] StartQuiz error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start quiz"})
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "answers are required"})
		return
	}

	resp, err := h.service.SubmitQuiz(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoActiveQuiz), errors.Is(err, ErrQuizExpired):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No active quiz found. Please start a new quiz, or your active quiz might have expired."})
		case errors.Is(err, ErrAnswerSetMismatch):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrQuestionNotFound):
			// Unlike the practice lookup, a vanished question here means the
			// whole attempt is unscorable; the client's move is a new quiz,
			// so this reads as a bad submission rather than a missing
			// resource.
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "A quiz question no longer exists. Please start a new quiz."})
		default:
			log.Printf("[handler] SubmitQuiz error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to submit quiz"})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.History(r.Context(), userID)
	if err != nil {
		log.Printf("[handler] History error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get quiz history"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ── Practice Handlers ───────────────────────────────────

func (h *Handler) PracticeQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.PracticeQuestion(r.Context())
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.Printf("[handler] PracticeQuestion error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get practice question"})
		return
	}

	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.PracticeAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.QuestionID == 0 || req.Answer == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "question_id and answer are required"})
		return
	}

	resp, err := h.service.CheckAnswer(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
			return
		}
		log.Printf("[handler] CheckAnswer error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to check answer"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ── Admin Handlers ──────────────────────────────────────

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	q.Normalize()
	if err := q.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	created, err := h.store.CreateQuestion(r.Context(), &q)
	if err != nil {
		if isDuplicateKey(err) {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "A question with this text already exists"})
			return
		}
		log.Printf("[handler] CreateQuestion error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create question"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	offset := intQueryParam(query, "offset", 0)

	questions, total, err := h.store.ListQuestions(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[handler] ListQuestions error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list questions"})
		return
	}

	writeJSON(w, http.StatusOK, models.QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      offset/limit + 1,
		PageSize:  limit,
	})
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return
	}

	q, err := h.store.GetQuestion(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
		return
	}

	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return
	}

	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	q.ID = id
	q.Normalize()
	if err := q.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	updated, err := h.store.UpdateQuestion(r.Context(), &q)
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
			return
		}
		if isDuplicateKey(err) {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "A question with this text already exists"})
			return
		}
		log.Printf("[handler] UpdateQuestion error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update question"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return
	}

	if err := h.store.DeleteQuestion(r.Context(), id); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
			return
		}
		log.Printf("[handler] DeleteQuestion error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to delete question"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
