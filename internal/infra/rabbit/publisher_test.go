package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quizdeck/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kind       string
	durable    bool
	declareErr error
	sent       []published
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name)
	c.kind = kind
	c.durable = durable
	return c.declareErr
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := NewPublisher(ch, "quiz.events")
	require.NoError(t, err)
	require.Equal(t, []string{"quiz.events"}, ch.declared)
	require.Equal(t, amqp.ExchangeTopic, ch.kind)
	require.True(t, ch.durable)
}

func TestPublisherDeclareFailure(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := NewPublisher(ch, "quiz.events")
	require.ErrorContains(t, err, "access refused")
}

func TestPublisherRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "quiz.events")
	require.NoError(t, err)

	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	event := domain.Event{Type: domain.EventQuizGraded, QuizID: "quiz-1", SessionID: "s1", Score: 1, Total: 2, OccurredAt: at}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	require.Equal(t, "quiz.events", sent.exchange)
	require.Equal(t, "quiz.graded", sent.key)
	require.Equal(t, "application/json", sent.msg.ContentType)
	require.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(sent.msg.Body, &decoded))
	require.Equal(t, event, decoded)

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}
