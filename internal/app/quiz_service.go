package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizdeck/internal/domain"
	"quizdeck/internal/grading"
	"quizdeck/internal/ingest"
	"github.com/rs/zerolog"
)

// QuizStore persists quiz graphs (in-memory, Postgres, etc).
type QuizStore interface {
	ingest.QuizWriter
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AnswerStore keeps the append-only record of graded submissions.
type AnswerStore interface {
	// AppendSubmission stores all answers of a session at once. A second call for the
	// same session must fail with domain.ErrAlreadySubmitted.
	AppendSubmission(ctx context.Context, submission domain.Submission) error
	LoadSubmission(ctx context.Context, sessionID string) (domain.Submission, error)
}

// DraftStore holds the answers picked so far in an interactive session.
type DraftStore interface {
	Start(ctx context.Context, state domain.SessionState) error
	Get(ctx context.Context, sessionID string) (domain.SessionState, error)
	Select(ctx context.Context, sessionID, questionID, optionID string) error
	Discard(ctx context.Context, sessionID string) error
}

// EventPublisher announces quiz lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Metrics receives ingestion and grading outcomes.
type Metrics interface {
	ObserveUpload(outcome string)
	ObserveGrade(report domain.ScoreReport)
}

// Upload outcomes reported to Metrics.
const (
	UploadCreated   = "created"
	UploadMalformed = "malformed"
	UploadInvalid   = "invalid"
	UploadFailed    = "failed"
)

// QuizService contains the core quiz use cases.
type QuizService struct {
	quizStore    QuizStore
	quizzes      QuizRepository
	answers      AnswerStore
	drafts       DraftStore
	materializer *ingest.Materializer
	publisher    EventPublisher
	metrics      Metrics
	now          func() time.Time
	newID        func() string
	log          zerolog.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

func WithPublisher(p EventPublisher) Option { return func(s *QuizService) { s.publisher = p } }
func WithMetrics(m Metrics) Option          { return func(s *QuizService) { s.metrics = m } }

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *QuizService) { s.now = now } }

// WithIDs is test-only for deterministic session and entity identities.
func WithIDs(newID func() string) Option { return func(s *QuizService) { s.newID = newID } }

func NewQuizService(store QuizStore, quizzes QuizRepository, answers AnswerStore, drafts DraftStore, log zerolog.Logger, opts ...Option) *QuizService {
	s := &QuizService{
		quizStore: store,
		quizzes:   quizzes,
		answers:   answers,
		drafts:    drafts,
		publisher: noopPublisher{},
		metrics:   noopMetrics{},
		now:       time.Now,
		newID:     ingest.NewID,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.materializer = ingest.NewMaterializerWithIDs(store, log, s.newID, s.now)
	return s
}

// Upload decodes, validates and materializes an uploaded quiz document.
func (s *QuizService) Upload(ctx context.Context, raw []byte) (domain.Quiz, error) {
	doc, err := ingest.Decode(raw)
	if err != nil {
		s.metrics.ObserveUpload(UploadMalformed)
		s.log.Warn().Err(err).Msg("rejected malformed quiz document")
		return domain.Quiz{}, err
	}

	quiz, err := s.materializer.Materialize(ctx, doc)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveUpload(UploadInvalid)
			s.log.Warn().
				Str("kind", string(verr.Kind)).
				Int("question", verr.Question).
				Msg("rejected invalid quiz document")
		} else {
			s.metrics.ObserveUpload(UploadFailed)
		}
		return domain.Quiz{}, err
	}

	s.metrics.ObserveUpload(UploadCreated)
	s.publish(ctx, domain.Event{Type: domain.EventQuizCreated, QuizID: quiz.ID, Total: len(quiz.Questions), OccurredAt: quiz.CreatedAt})
	return quiz, nil
}

// GetQuiz returns a materialized quiz.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuizzes returns quiz summaries, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.quizStore.ListQuizzes(ctx)
}

// StartSession opens a quiz-taking session with an empty answer draft.
func (s *QuizService) StartSession(ctx context.Context, quizID string) (domain.SessionState, domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionState{}, domain.Quiz{}, err
	}
	state := domain.SessionState{
		SessionID: s.newID(),
		QuizID:    quiz.ID,
		StartedAt: s.now().UTC(),
		Answers:   domain.AnswerSet{},
	}
	if err := s.drafts.Start(ctx, state); err != nil {
		return domain.SessionState{}, domain.Quiz{}, fmt.Errorf("start session: %w", err)
	}
	s.log.Debug().Str("quiz_id", quiz.ID).Str("session_id", state.SessionID).Msg("session started")
	return state, quiz, nil
}

// Select records the chosen option for one question in a session draft.
// Options that do not belong to the question are rejected immediately.
func (s *QuizService) Select(ctx context.Context, sessionID, questionID, optionID string) (domain.SessionState, error) {
	state, err := s.drafts.Get(ctx, sessionID)
	if err != nil {
		return domain.SessionState{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, state.QuizID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if deadline, ok := state.Deadline(quiz); ok && s.now().After(deadline) {
		return domain.SessionState{}, domain.ErrSessionExpired
	}

	question, ok := quiz.Question(questionID)
	if !ok {
		return domain.SessionState{}, domain.ErrQuestionNotFound
	}
	if _, ok := question.Option(optionID); !ok {
		return domain.SessionState{}, &domain.MismatchError{QuestionID: questionID, OptionID: optionID}
	}

	if err := s.drafts.Select(ctx, sessionID, questionID, optionID); err != nil {
		return domain.SessionState{}, err
	}
	if state.Answers == nil {
		state.Answers = domain.AnswerSet{}
	}
	state.Answers[questionID] = optionID
	return state, nil
}

// Submit grades answers for a session and records them. Nothing is recorded when
// grading fails, and a session can only submit once.
func (s *QuizService) Submit(ctx context.Context, quizID, sessionID string, answers domain.AnswerSet) (domain.ScoreReport, error) {
	if sessionID == "" {
		sessionID = s.newID()
	} else {
		state, err := s.drafts.Get(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			// Submissions without a started session are allowed.
		case err != nil:
			return domain.ScoreReport{}, fmt.Errorf("load session draft: %w", err)
		case state.QuizID != quizID:
			return domain.ScoreReport{}, domain.ErrSessionNotFound
		}
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ScoreReport{}, err
	}

	submission, report, err := grading.Record(quiz, sessionID, answers, s.now().UTC())
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID).Str("session_id", sessionID).Msg("submission rejected")
		return domain.ScoreReport{}, err
	}

	if err := s.answers.AppendSubmission(ctx, submission); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			return domain.ScoreReport{}, err
		}
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("recording submission failed")
		return domain.ScoreReport{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	if err := s.drafts.Discard(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("discarding session draft failed")
	}

	s.metrics.ObserveGrade(report)
	s.publish(ctx, domain.Event{
		Type:       domain.EventQuizGraded,
		QuizID:     quizID,
		SessionID:  sessionID,
		Score:      report.Score,
		Total:      report.Total,
		OccurredAt: submission.SubmittedAt,
	})
	s.log.Info().
		Str("quiz_id", quizID).
		Str("session_id", sessionID).
		Int("score", report.Score).
		Int("total", report.Total).
		Msg("submission graded")
	return report, nil
}

// SubmitDraft submits whatever the session draft currently holds.
func (s *QuizService) SubmitDraft(ctx context.Context, sessionID string) (domain.ScoreReport, error) {
	state, err := s.drafts.Get(ctx, sessionID)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	return s.Submit(ctx, state.QuizID, sessionID, state.Answers)
}

// Result re-grades the stored submission of a session.
func (s *QuizService) Result(ctx context.Context, quizID, sessionID string) (domain.ScoreReport, error) {
	submission, err := s.answers.LoadSubmission(ctx, sessionID)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	if submission.QuizID != quizID {
		return domain.ScoreReport{}, domain.ErrSubmissionNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	return grading.Replay(quiz, submission)
}

func (s *QuizService) publish(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).Str("event", event.Type).Str("quiz_id", event.QuizID).Msg("publishing event failed")
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveUpload(string)            {}
func (noopMetrics) ObserveGrade(domain.ScoreReport) {}
