package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads quiz graphs from Postgres, preserving question and option order.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	// One snapshot for the quiz row and its graph.
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	quiz := domain.Quiz{ID: quizID}
	var createdAt time.Time
	var limit *int64
	err = tx.QueryRow(ctx,
		`SELECT title, time_limit_sec, created_at FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.Title, &limit, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.CreatedAt = createdAt.UTC()
	quiz.TimeLimit = fromSeconds(limit)

	rows, err := tx.Query(ctx,
		`SELECT q.id::text, q.position, q.text, o.id::text, o.position, o.text, o.is_correct
		 FROM questions q
		 JOIN options o ON o.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY q.position, o.position`, quizID,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q domain.Question
		var o domain.Option
		if err := rows.Scan(&q.ID, &q.Position, &q.Text, &o.ID, &o.Position, &o.Text, &o.Correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		n := len(quiz.Questions)
		if n == 0 || quiz.Questions[n-1].ID != q.ID {
			q.QuizID = quizID
			quiz.Questions = append(quiz.Questions, q)
			n++
		}
		o.QuestionID = q.ID
		quiz.Questions[n-1].Options = append(quiz.Questions[n-1].Options, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	return quiz, nil
}
