package memory

import (
	"context"
	"sort"
	"sync"

	"quizdeck/internal/domain"
)

// Store keeps quizzes and graded submissions in process memory.
// It implements app.QuizStore, app.AnswerStore and QuizLoader.
type Store struct {
	mu          sync.RWMutex
	quizzes     map[string]domain.Quiz
	submissions map[string]domain.Submission
}

func NewStore() *Store {
	return &Store{
		quizzes:     make(map[string]domain.Quiz),
		submissions: make(map[string]domain.Submission),
	}
}

// CreateQuiz stores the whole graph under one lock, so readers never observe a partial quiz.
func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	summaries := make([]domain.QuizSummary, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (s *Store) AppendSubmission(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[submission.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	if _, ok := s.submissions[submission.SessionID]; ok {
		return domain.ErrAlreadySubmitted
	}
	submission.Answers = append([]domain.SubmittedAnswer(nil), submission.Answers...)
	s.submissions[submission.SessionID] = submission
	return nil
}

func (s *Store) LoadSubmission(_ context.Context, sessionID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[sessionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	submission.Answers = append([]domain.SubmittedAnswer(nil), submission.Answers...)
	return submission, nil
}

func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	out := quiz
	if quiz.TimeLimit != nil {
		limit := *quiz.TimeLimit
		out.TimeLimit = &limit
	}
	out.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}
