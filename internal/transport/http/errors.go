package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizdeck/internal/domain"
	"github.com/rs/zerolog"
)

// errorResponse carries Kind and Question for validation failures and
// QuestionID and OptionID for option mismatches.
type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Question   int    `json:"question,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
	OptionID   string `json:"optionId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var verr *domain.ValidationError
	var mismatch *domain.MismatchError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Kind: string(verr.Kind), Question: verr.Question})
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: mismatch.Error(), QuestionID: mismatch.QuestionID, OptionID: mismatch.OptionID})
	case errors.Is(err, domain.ErrQuestionNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrMalformedJSON):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadySubmitted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
