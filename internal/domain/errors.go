package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedJSON is returned when an upload is not parseable JSON.
	ErrMalformedJSON = errors.New("malformed quiz document")
	// ErrInvalidQuiz is wrapped by every ValidationError.
	ErrInvalidQuiz = errors.New("invalid quiz document")
	// ErrPersistence indicates the quiz graph or a submission could not be committed.
	ErrPersistence = errors.New("persistence failure")
	// ErrCrossQuestionOption is wrapped by MismatchError.
	ErrCrossQuestionOption = errors.New("option does not belong to question")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionExpired is returned when answers arrive after the quiz time limit.
	ErrSessionExpired = errors.New("quiz session expired")
	// ErrAlreadySubmitted is returned when a session submits a second time.
	ErrAlreadySubmitted = errors.New("answers already submitted for session")
	// ErrSubmissionNotFound indicates no stored answers exist for a session.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// ValidationKind names the ingestion rule a document violated.
type ValidationKind string

const (
	RootNotObject       ValidationKind = "root_not_object"
	MissingTitle        ValidationKind = "missing_title"
	QuestionsNotList    ValidationKind = "questions_not_list"
	MissingQuestionText ValidationKind = "missing_question_text"
	TooFewOptions       ValidationKind = "too_few_options"
	MissingAnswer       ValidationKind = "missing_answer"
	AnswerNotInteger    ValidationKind = "answer_not_integer"
	AnswerOutOfRange    ValidationKind = "answer_out_of_range"
)

var kindMessages = map[ValidationKind]string{
	RootNotObject:       "document root must be an object",
	MissingTitle:        "missing title",
	QuestionsNotList:    "questions must be a list",
	MissingQuestionText: "missing question text",
	TooFewOptions:       "at least two options are required",
	MissingAnswer:       "missing answer",
	AnswerNotInteger:    "answer must be an integer",
	AnswerOutOfRange:    "answer out of range",
}

// ValidationError reports the first violated ingestion rule.
// Question is the 1-based position of the offending question, or 0 for document-level rules.
type ValidationError struct {
	Kind     ValidationKind
	Question int
}

func (e *ValidationError) Error() string {
	msg := kindMessages[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Question > 0 {
		return fmt.Sprintf("question %d: %s", e.Question, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalidQuiz }

// MismatchError is returned when a submitted option belongs to a different question (or to none).
type MismatchError struct {
	QuestionID string
	OptionID   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("option %s does not belong to question %s", e.OptionID, e.QuestionID)
}

func (e *MismatchError) Unwrap() error { return ErrCrossQuestionOption }
