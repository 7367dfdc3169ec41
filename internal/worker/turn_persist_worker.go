package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragchat/internal/model"
)

// TurnStore is the slice of the message store the worker writes through.
type TurnStore interface {
	CreateBatch(messages []model.Message) error
}

// TurnPersistWorker drains the turn queue and writes each recorded exchange
// to the message store in one batch insert. A turn is acked only after both
// rows are stored; a failed write is requeued so the turn is redelivered
// whole, while an undecodable payload is dropped since it can never succeed.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	store     TurnStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, store TurnStore, queueName string, logger *zap.Logger) *TurnPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handleDelivery(d)
			}
		}
	}()

	return nil
}

func (w *TurnPersistWorker) handleDelivery(d amqp.Delivery) {
	var turn model.RecordedTurn
	if err := json.Unmarshal(d.Body, &turn); err != nil {
		w.logger.Error("worker decode turn failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.store.CreateBatch(turn.Messages); err != nil {
		w.logger.Error("worker persist turn failed, requeueing", zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
