package domain

import (
	"math"
	"time"
)

// Option represents a possible answer for a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID       string   `json:"id"`
	QuizID   string   `json:"quizId"`
	Position int      `json:"position"`
	Text     string   `json:"text"`
	Options  []Option `json:"options"`
}

// Option returns the option with the given ID if it belongs to the question.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// CorrectOption returns the option flagged as correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is a titled, ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	TimeLimit *int       `json:"timeLimit,omitempty"` // seconds, advisory
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Question looks a question up by ID.
func (q Quiz) Question(questionID string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return Question{}, false
}

// OptionCount is the total number of options across all questions.
func (q Quiz) OptionCount() int {
	n := 0
	for _, question := range q.Questions {
		n += len(question.Options)
	}
	return n
}

// Summary is the listing view of a quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		TimeLimit:     q.TimeLimit,
		QuestionCount: len(q.Questions),
		CreatedAt:     q.CreatedAt,
	}
}

// QuizSummary is returned by quiz listings.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TimeLimit     *int      `json:"timeLimit,omitempty"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnswerSet maps question IDs to the chosen option ID for one session.
type AnswerSet map[string]string

// SubmittedAnswer is the persisted fact of one answered question.
type SubmittedAnswer struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
	Correct    bool   `json:"correct"`
}

// Submission is the append-only record of one grading pass.
type Submission struct {
	SessionID   string            `json:"sessionId"`
	QuizID      string            `json:"quizId"`
	Answers     []SubmittedAnswer `json:"answers"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// AnswerSet rebuilds the submitted mapping from the stored answers.
func (s Submission) AnswerSet() AnswerSet {
	set := make(AnswerSet, len(s.Answers))
	for _, a := range s.Answers {
		set[a.QuestionID] = a.OptionID
	}
	return set
}

// QuestionResult is the per-question grading trace.
type QuestionResult struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId,omitempty"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
}

// ScoreReport summarizes a graded answer set. It is always derived from a quiz and an answer set.
type ScoreReport struct {
	QuizID    string           `json:"quizId"`
	SessionID string           `json:"sessionId,omitempty"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Results   []QuestionResult `json:"results"`
}

// SessionState describes an in-progress quiz-taking session.
type SessionState struct {
	SessionID string    `json:"sessionId"`
	QuizID    string    `json:"quizId"`
	StartedAt time.Time `json:"startedAt"`
	Answers   AnswerSet `json:"answers"`
}

// Deadline returns the time the session expires for quizzes with a time limit.
func (s SessionState) Deadline(quiz Quiz) (time.Time, bool) {
	if quiz.TimeLimit == nil || *quiz.TimeLimit <= 0 {
		return time.Time{}, false
	}
	// Limits too long to express as a time.Duration never expire.
	limit := int64(*quiz.TimeLimit)
	if limit > math.MaxInt64/int64(time.Second) {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(limit) * time.Second), true
}

// Event types published after quiz lifecycle changes.
const (
	EventQuizCreated = "quiz.created"
	EventQuizGraded  = "quiz.graded"
)

// Event is the payload published to the message broker.
type Event struct {
	Type       string    `json:"type"`
	QuizID     string    `json:"quizId"`
	SessionID  string    `json:"sessionId,omitempty"`
	Score      int       `json:"score,omitempty"`
	Total      int       `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
