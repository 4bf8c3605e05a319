package memory

import (
	"context"
	"sync"

	"quizdeck/internal/domain"
)

// DraftStore is an in-memory implementation of app.DraftStore.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]domain.SessionState
}

func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]domain.SessionState),
	}
}

func (s *DraftStore) Start(_ context.Context, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Answers = copyAnswers(state.Answers)
	s.drafts[state.SessionID] = state
	return nil
}

func (s *DraftStore) Get(_ context.Context, sessionID string) (domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.drafts[sessionID]
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	state.Answers = copyAnswers(state.Answers)
	return state, nil
}

func (s *DraftStore) Select(_ context.Context, sessionID, questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.drafts[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	state.Answers[questionID] = optionID
	return nil
}

func (s *DraftStore) Discard(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.drafts, sessionID)
	return nil
}

func copyAnswers(in domain.AnswerSet) domain.AnswerSet {
	out := make(domain.AnswerSet, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
