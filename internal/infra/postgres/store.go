package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID           string    `bun:"id,pk,type:uuid"`
	Title        string    `bun:"title,notnull"`
	TimeLimitSec *int64    `bun:"time_limit_sec"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID       string `bun:"id,pk,type:uuid"`
	QuizID   string `bun:"quiz_id,type:uuid,notnull"`
	Position int    `bun:"position,notnull"`
	Text     string `bun:"text,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:options"`

	ID         string `bun:"id,pk,type:uuid"`
	QuestionID string `bun:"question_id,type:uuid,notnull"`
	Position   int    `bun:"position,notnull"`
	Text       string `bun:"text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

type gradingSessionRow struct {
	bun.BaseModel `bun:"table:grading_sessions"`

	SessionID   string    `bun:"session_id,pk"`
	QuizID      string    `bun:"quiz_id,type:uuid,notnull"`
	SubmittedAt time.Time `bun:"submitted_at,notnull"`
}

type submittedAnswerRow struct {
	bun.BaseModel `bun:"table:submitted_answers"`

	SessionID  string `bun:"session_id,pk"`
	QuestionID string `bun:"question_id,pk,type:uuid"`
	OptionID   string `bun:"option_id,type:uuid,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

type quizSummaryRow struct {
	ID            string    `bun:"id"`
	Title         string    `bun:"title"`
	TimeLimitSec  *int64    `bun:"time_limit_sec"`
	CreatedAt     time.Time `bun:"created_at"`
	QuestionCount int       `bun:"question_count"`
}

// Store writes quiz graphs and graded submissions through bun. Every write runs in a
// single transaction so readers never see a partial quiz or a partial submission.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions := make([]questionRow, 0, len(quiz.Questions))
	options := make([]optionRow, 0, quiz.OptionCount())
	for _, q := range quiz.Questions {
		questions = append(questions, questionRow{ID: q.ID, QuizID: quiz.ID, Position: q.Position, Text: q.Text})
		for _, o := range q.Options {
			options = append(options, optionRow{ID: o.ID, QuestionID: q.ID, Position: o.Position, Text: o.Text, IsCorrect: o.Correct})
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &quizRow{ID: quiz.ID, Title: quiz.Title, TimeLimitSec: toSeconds(quiz.TimeLimit), CreatedAt: quiz.CreatedAt}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(questions) > 0 {
			if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		if len(options) > 0 {
			if _, err := tx.NewInsert().Model(&options).Exec(ctx); err != nil {
				return fmt.Errorf("insert options: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var rows []quizSummaryRow
	err := s.db.NewSelect().
		TableExpr("quizzes AS q").
		ColumnExpr("q.id::text AS id, q.title, q.time_limit_sec, q.created_at").
		ColumnExpr("(SELECT COUNT(*) FROM questions WHERE questions.quiz_id = q.id) AS question_count").
		OrderExpr("q.created_at DESC, q.id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	summaries := make([]domain.QuizSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, domain.QuizSummary{
			ID:            r.ID,
			Title:         r.Title,
			TimeLimit:     fromSeconds(r.TimeLimitSec),
			QuestionCount: r.QuestionCount,
			CreatedAt:     r.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *Store) AppendSubmission(ctx context.Context, submission domain.Submission) error {
	if _, err := uuid.Parse(submission.QuizID); err != nil {
		return domain.ErrQuizNotFound
	}
	answers := make([]submittedAnswerRow, 0, len(submission.Answers))
	for _, a := range submission.Answers {
		answers = append(answers, submittedAnswerRow{
			SessionID:  submission.SessionID,
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
			IsCorrect:  a.Correct,
		})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		session := &gradingSessionRow{
			SessionID:   submission.SessionID,
			QuizID:      submission.QuizID,
			SubmittedAt: submission.SubmittedAt,
		}
		if _, err := tx.NewInsert().Model(session).Exec(ctx); err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&answers).Exec(ctx)
		return err
	})
	switch pgCode(err) {
	case "":
	case uniqueViolation:
		return domain.ErrAlreadySubmitted
	case foreignKeyViolation:
		return domain.ErrQuizNotFound
	}
	if err != nil {
		return fmt.Errorf("append submission: %w", err)
	}
	return nil
}

func (s *Store) LoadSubmission(ctx context.Context, sessionID string) (domain.Submission, error) {
	session := new(gradingSessionRow)
	err := s.db.NewSelect().
		Model(session).
		ColumnExpr("session_id, quiz_id::text AS quiz_id, submitted_at").
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}

	var rows []submittedAnswerRow
	err = s.db.NewSelect().
		Model(&rows).
		ColumnExpr("sa.session_id, sa.question_id::text AS question_id, sa.option_id::text AS option_id, sa.is_correct").
		ModelTableExpr("submitted_answers AS sa").
		Join("JOIN questions AS q ON q.id = sa.question_id").
		Where("sa.session_id = ?", sessionID).
		OrderExpr("q.position").
		Scan(ctx)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submitted answers: %w", err)
	}

	submission := domain.Submission{
		SessionID:   session.SessionID,
		QuizID:      session.QuizID,
		SubmittedAt: session.SubmittedAt.UTC(),
		Answers:     make([]domain.SubmittedAnswer, 0, len(rows)),
	}
	for _, r := range rows {
		submission.Answers = append(submission.Answers, domain.SubmittedAnswer{
			QuestionID: r.QuestionID,
			OptionID:   r.OptionID,
			Correct:    r.IsCorrect,
		})
	}
	return submission, nil
}

func toSeconds(limit *int) *int64 {
	if limit == nil {
		return nil
	}
	v := int64(*limit)
	return &v
}

func fromSeconds(limit *int64) *int {
	if limit == nil {
		return nil
	}
	v := int(*limit)
	return &v
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}
