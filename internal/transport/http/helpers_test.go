package http

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
	"github.com/rs/zerolog"
)

func newTestService(t *testing.T, quizzes ...domain.Quiz) *app.QuizService {
	t.Helper()
	store := memory.NewStore()
	for _, quiz := range quizzes {
		if err := store.CreateQuiz(context.Background(), quiz); err != nil {
			t.Fatalf("seed quiz: %v", err)
		}
	}
	repo := memory.NewQuizRepository(store, time.Minute)
	return app.NewQuizService(store, repo, store, memory.NewDraftStore(), zerolog.New(io.Discard))
}

func newTestServer(t *testing.T, cfg RouterConfig, quizzes ...domain.Quiz) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewRouter(newTestService(t, quizzes...), cfg, zerolog.New(io.Discard)))
	t.Cleanup(server.Close)
	return server
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Basics",
		Questions: []domain.Question{
			{
				ID:     "q1",
				QuizID: "quiz-1",
				Text:   "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", QuestionID: "q1", Position: 0, Text: "3"},
					{ID: "o2", QuestionID: "q1", Position: 1, Text: "4", Correct: true},
				},
			},
			{
				ID:       "q2",
				QuizID:   "quiz-1",
				Position: 1,
				Text:     "Capital of France?",
				Options: []domain.Option{
					{ID: "o3", QuestionID: "q2", Position: 0, Text: "Paris", Correct: true},
					{ID: "o4", QuestionID: "q2", Position: 1, Text: "Rome"},
				},
			},
		},
	}
}

func timedQuiz(seconds int) domain.Quiz {
	quiz := sampleQuiz()
	quiz.TimeLimit = &seconds
	return quiz
}
