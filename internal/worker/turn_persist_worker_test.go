package worker

import (
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/model"
)

type memTurnStore struct {
	messages []model.Message
	err      error
}

func (s *memTurnStore) CreateBatch(messages []model.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, messages...)
	return nil
}

type recordingAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAcknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func turnDelivery(t *testing.T, ack amqp.Acknowledger) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(model.RecordedTurn{Messages: []model.Message{
		{ID: "m1", SectionID: "s1", Role: model.RoleUser, Content: "q"},
		{ID: "m2", SectionID: "s1", Role: model.RoleAssistant, Content: "a"},
	}})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestHandleDeliveryPersistsAndAcks(t *testing.T) {
	store := &memTurnStore{}
	ack := &recordingAcknowledger{}
	w := NewTurnPersistWorker(nil, store, "q", nil)

	w.handleDelivery(turnDelivery(t, ack))

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	require.Len(t, store.messages, 2)
	assert.Equal(t, "m1", store.messages[0].ID)
	assert.Equal(t, "m2", store.messages[1].ID)
}

func TestHandleDeliveryStoreFailureRequeues(t *testing.T) {
	store := &memTurnStore{err: errors.New("mysql gone away")}
	ack := &recordingAcknowledger{}
	w := NewTurnPersistWorker(nil, store, "q", nil)

	w.handleDelivery(turnDelivery(t, ack))

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue, "transient store failures must not discard the turn")
}

func TestHandleDeliveryUndecodablePayloadIsDropped(t *testing.T) {
	store := &memTurnStore{}
	ack := &recordingAcknowledger{}
	w := NewTurnPersistWorker(nil, store, "q", nil)

	w.handleDelivery(amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue, "a payload that can never decode must not loop forever")
	assert.Empty(t, store.messages)
}
