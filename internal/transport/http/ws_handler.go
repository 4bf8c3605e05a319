package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler runs one interactive quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS starts a session for ?quizId= and plays it over the connection. Clients send
// "answer" and "submit" messages; the server answers with "selected" and "result". When
// the quiz has a time limit the draft is submitted automatically at the deadline.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	state, quiz, err := h.service.StartSession(ctx, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := state.SessionID
	log := h.log.With().Str("quiz_id", quizID).Str("session_id", sessionID).Logger()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	timerDone := make(chan struct{})
	var finished atomic.Bool

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				failed = true
				_ = conn.Close()
			}
		}
	}()

	submit := func(ctx context.Context) (outboundMessage[any], error) {
		report, err := h.service.SubmitDraft(ctx, sessionID)
		if err != nil {
			return errorMessage(err), err
		}
		finished.Store(true)
		return outboundMessage[any]{Type: "result", Payload: report}, nil
	}

	payload := newSessionPayload(state, quiz)
	go func() {
		defer close(timerDone)
		if payload.Deadline == nil {
			return
		}
		timer := time.NewTimer(time.Until(*payload.Deadline))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-closeSignals:
			return
		}
		if finished.Load() {
			return
		}
		msg, err := submit(ctx)
		switch {
		case err == nil:
			log.Info().Msg("time limit reached, draft submitted")
		case errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrSessionNotFound):
			// A client submit racing the deadline won.
			return
		}
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: payload}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var answer answerPayload
			if err := json.Unmarshal(inbound.Payload, &answer); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if _, err := h.service.Select(ctx, sessionID, answer.QuestionID, answer.OptionID); err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "selected", Payload: answer}
		case "submit":
			msg, _ := submit(ctx)
			send <- msg
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-timerDone
	close(send)
	<-writerDone
}
