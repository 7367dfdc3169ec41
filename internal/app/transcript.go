package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/model"
)

// assistantOffset keeps the assistant turn strictly after the user turn even
// when the backing store rounds timestamps to whole seconds.
const assistantOffset = 100 * time.Millisecond

// TurnPublisher hands a recorded turn to the persistence pipeline in one
// batch, so there is no window where only half the exchange is visible.
type TurnPublisher interface {
	Publish(ctx context.Context, turn model.RecordedTurn) error
}

// TranscriptCache is an optional read-through cache for section transcripts.
type TranscriptCache interface {
	Get(ctx context.Context, sectionID string) ([]model.Message, bool, error)
	Set(ctx context.Context, sectionID string, messages []model.Message) error
	Invalidate(ctx context.Context, sectionID string) error
}

type TranscriptRecorder struct {
	publisher TurnPublisher
	messages  MessageStore
	cache     TranscriptCache
	logger    *zap.Logger
}

func NewTranscriptRecorder(publisher TurnPublisher, messages MessageStore, cache TranscriptCache, logger *zap.Logger) *TranscriptRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptRecorder{
		publisher: publisher,
		messages:  messages,
		cache:     cache,
		logger:    logger,
	}
}

// RecordTurn appends the user message and the assistant answer as one batch.
// The assistant timestamp is strictly after the user's. A publish failure is
// reported to the caller, who decides whether it is fatal; by the time a
// turn is recorded the answer has usually already been delivered.
func (r *TranscriptRecorder) RecordTurn(ctx context.Context, sectionID, userContent, assistantContent string) error {
	userTime := time.Now()
	turn := model.RecordedTurn{
		Messages: []model.Message{
			{
				ID:        uuid.NewString(),
				SectionID: sectionID,
				Role:      model.RoleUser,
				Content:   userContent,
				CreatedAt: userTime,
			},
			{
				ID:        uuid.NewString(),
				SectionID: sectionID,
				Role:      model.RoleAssistant,
				Content:   assistantContent,
				CreatedAt: userTime.Add(assistantOffset),
			},
		},
	}

	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, sectionID); err != nil {
			r.logger.Warn("invalidate transcript cache failed",
				zap.String("section_id", sectionID), zap.Error(err))
		}
	}

	if err := r.publisher.Publish(ctx, turn); err != nil {
		return &UpstreamError{Op: "record turn", Err: err}
	}
	return nil
}

// List returns the section transcript oldest first.
func (r *TranscriptRecorder) List(ctx context.Context, sectionID string, limit int) ([]model.Message, error) {
	if sectionID == "" {
		return nil, NewValidationError("session_id is required")
	}

	if r.cache != nil && limit <= 0 {
		if cached, hit, err := r.cache.Get(ctx, sectionID); err == nil && hit {
			return cached, nil
		}
	}

	messages, err := r.messages.ListBySectionID(sectionID, limit)
	if err != nil {
		return nil, &UpstreamError{Op: "list transcript", Err: err}
	}

	if r.cache != nil && limit <= 0 {
		if err := r.cache.Set(ctx, sectionID, messages); err != nil {
			r.logger.Warn("cache transcript failed",
				zap.String("section_id", sectionID), zap.Error(err))
		}
	}
	return messages, nil
}
