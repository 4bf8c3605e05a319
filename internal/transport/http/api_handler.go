package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// APIHandler serves the REST surface for uploading, taking and grading quizzes.
type APIHandler struct {
	service        *app.QuizService
	validate       *validator.Validate
	maxUploadBytes int64
	log            zerolog.Logger
}

// defaultMaxUploadBytes applies when no upload limit is configured.
const defaultMaxUploadBytes = 1 << 20

func NewAPIHandler(service *app.QuizService, maxUploadBytes int64, log zerolog.Logger) *APIHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &APIHandler{
		service:        service,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "api").Logger(),
	}
}

type submissionRequest struct {
	SessionID string            `json:"session_id" validate:"omitempty,max=128"`
	Answers   map[string]string `json:"answers" validate:"required,dive,keys,required,endkeys"`
}

// Upload accepts a quiz document as the raw request body or as the "file" field of a
// multipart form.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	raw, err := h.readDocument(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "quiz document too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.service.Upload(r.Context(), raw)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz.Summary())
}

func (h *APIHandler) readDocument(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file required")
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *APIHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(quiz))
}

func (h *APIHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	state, quiz, err := h.service.StartSession(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionPayload(state, quiz))
}

func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "submission too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid submission body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := h.service.Submit(r.Context(), chi.URLParam(r, "quizID"), req.SessionID, domain.AnswerSet(req.Answers))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *APIHandler) Result(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Result(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
