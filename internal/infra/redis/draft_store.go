package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quizdeck/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DraftStore keeps interactive session drafts in Redis so any instance can serve the session.
//
//	HSET quiz:session:{sessionID}         quiz_id {quizID} started_at {unix nanos}
//	HSET quiz:session:{sessionID}:answers {questionID} {optionID}
//
// Both keys share the session TTL, refreshed on every selection.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) Start(ctx context.Context, state domain.SessionState) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.metaKey(state.SessionID),
		"quiz_id", state.QuizID,
		"started_at", state.StartedAt.UnixNano(),
	)
	pipe.Del(ctx, s.answersKey(state.SessionID))
	for questionID, optionID := range state.Answers {
		pipe.HSet(ctx, s.answersKey(state.SessionID), questionID, optionID)
	}
	s.expire(ctx, pipe, state.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session draft: %w", err)
	}
	return nil
}

func (s *DraftStore) Get(ctx context.Context, sessionID string) (domain.SessionState, error) {
	pipe := s.client.Pipeline()
	metaCmd := pipe.HGetAll(ctx, s.metaKey(sessionID))
	answersCmd := pipe.HGetAll(ctx, s.answersKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.SessionState{}, fmt.Errorf("load session draft: %w", err)
	}

	meta := metaCmd.Val()
	quizID, ok := meta["quiz_id"]
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	var startedAt time.Time
	if nanos, err := strconv.ParseInt(meta["started_at"], 10, 64); err == nil {
		startedAt = time.Unix(0, nanos).UTC()
	}

	answers := make(domain.AnswerSet, len(answersCmd.Val()))
	for questionID, optionID := range answersCmd.Val() {
		answers[questionID] = optionID
	}
	return domain.SessionState{
		SessionID: sessionID,
		QuizID:    quizID,
		StartedAt: startedAt,
		Answers:   answers,
	}, nil
}

func (s *DraftStore) Select(ctx context.Context, sessionID, questionID, optionID string) error {
	exists, err := s.client.Exists(ctx, s.metaKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session draft: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.answersKey(sessionID), questionID, optionID)
	s.expire(ctx, pipe, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store selection: %w", err)
	}
	return nil
}

func (s *DraftStore) Discard(ctx context.Context, sessionID string) error {
	removed, err := s.client.Del(ctx, s.metaKey(sessionID), s.answersKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("discard session draft: %w", err)
	}
	if removed == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *DraftStore) expire(ctx context.Context, pipe redis.Pipeliner, sessionID string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, s.metaKey(sessionID), s.ttl)
	pipe.Expire(ctx, s.answersKey(sessionID), s.ttl)
}

func (s *DraftStore) metaKey(sessionID string) string {
	return "quiz:session:" + sessionID
}

func (s *DraftStore) answersKey(sessionID string) string {
	return "quiz:session:" + sessionID + ":answers"
}
