package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quizdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuizWriter commits a complete quiz graph in a single transaction.
type QuizWriter interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Build maps a document into a quiz graph without touching storage.
// The document is validated first, so the graph is never built from bad input.
func Build(doc any, newID func() string) (domain.Quiz, error) {
	if err := Validate(doc); err != nil {
		return domain.Quiz{}, err
	}
	if newID == nil {
		newID = NewID
	}
	root := doc.(map[string]any)
	items := root["questions"].([]any)

	quiz := domain.Quiz{
		ID:        newID(),
		Title:     asText(root["title"]),
		Questions: make([]domain.Question, 0, len(items)),
	}
	if raw, ok := root["time_limit"]; ok {
		// time_limit is advisory; anything that is not a platform-sized integer is dropped.
		if limit, ok := asInt(raw); ok && int64(int(limit)) == limit {
			v := int(limit)
			quiz.TimeLimit = &v
		}
	}

	for i, item := range items {
		q := item.(map[string]any)
		options := q["options"].([]any)
		answer, _ := asInt(q["answer"])

		question := domain.Question{
			ID:       newID(),
			QuizID:   quiz.ID,
			Position: i,
			Text:     asText(q["question"]),
			Options:  make([]domain.Option, 0, len(options)),
		}
		for j, opt := range options {
			question.Options = append(question.Options, domain.Option{
				ID:         newID(),
				QuestionID: question.ID,
				Position:   j,
				Text:       asText(opt),
				Correct:    int64(j) == answer,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

// asText keeps strings as they are and renders any other JSON value as its JSON text.
func asText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Materializer turns validated documents into persisted quizzes.
type Materializer struct {
	writer QuizWriter
	newID  func() string
	now    func() time.Time
	log    zerolog.Logger
}

func NewMaterializer(writer QuizWriter, log zerolog.Logger) *Materializer {
	return &Materializer{
		writer: writer,
		newID:  NewID,
		now:    time.Now,
		log:    log.With().Str("component", "materializer").Logger(),
	}
}

// NewMaterializerWithIDs lets the caller control identities and creation timestamps.
func NewMaterializerWithIDs(writer QuizWriter, log zerolog.Logger, newID func() string, now func() time.Time) *Materializer {
	m := NewMaterializer(writer, log)
	m.newID = newID
	m.now = now
	return m
}

// Materialize builds the quiz graph and commits it. When the commit fails the error
// wraps domain.ErrPersistence and no quiz is returned.
func (m *Materializer) Materialize(ctx context.Context, doc any) (domain.Quiz, error) {
	quiz, err := Build(doc, m.newID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.CreatedAt = m.now().UTC()

	if err := m.writer.CreateQuiz(ctx, quiz); err != nil {
		m.log.Error().Err(err).Str("quiz_id", quiz.ID).Msg("quiz commit failed")
		return domain.Quiz{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	m.log.Info().
		Str("quiz_id", quiz.ID).
		Int("questions", len(quiz.Questions)).
		Int("options", quiz.OptionCount()).
		Msg("quiz materialized")
	return quiz, nil
}
