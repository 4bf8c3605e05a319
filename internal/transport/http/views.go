package http

import (
	"time"

	"quizdeck/internal/domain"
)

// quizView is what players see. Correct flags never leave the server before grading.
type quizView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	TimeLimit *int           `json:"timeLimit,omitempty"`
	Questions []questionView `json:"questions"`
	CreatedAt time.Time      `json:"createdAt"`
}

type questionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Options []optionView `json:"options"`
}

type optionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func playerView(quiz domain.Quiz) quizView {
	view := quizView{
		ID:        quiz.ID,
		Title:     quiz.Title,
		TimeLimit: quiz.TimeLimit,
		Questions: make([]questionView, 0, len(quiz.Questions)),
		CreatedAt: quiz.CreatedAt,
	}
	for _, q := range quiz.Questions {
		qv := questionView{ID: q.ID, Text: q.Text, Options: make([]optionView, 0, len(q.Options))}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, optionView{ID: o.ID, Text: o.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

type sessionPayload struct {
	SessionID string     `json:"sessionId"`
	Quiz      quizView   `json:"quiz"`
	StartedAt time.Time  `json:"startedAt"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

func newSessionPayload(state domain.SessionState, quiz domain.Quiz) sessionPayload {
	payload := sessionPayload{SessionID: state.SessionID, Quiz: playerView(quiz), StartedAt: state.StartedAt}
	if deadline, ok := state.Deadline(quiz); ok {
		payload.Deadline = &deadline
	}
	return payload
}
