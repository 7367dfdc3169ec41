package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/ai"
	"ragchat/internal/model"
)

// Retriever turns a query into ranked context passages.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]Context, error)
}

// Answerer generates a grounded answer from history plus contexts.
type Answerer interface {
	Answer(ctx context.Context, input AnswerInput) (string, error)
	AnswerStream(ctx context.Context, input AnswerInput) (ai.Stream, error)
}

type AskRequest struct {
	SectionID string            `json:"session_id"`
	Messages  []Turn            `json:"messages"`
	Language  string            `json:"language,omitempty"`
	Options   GenerationOptions `json:"options,omitempty"`
}

type AskResult struct {
	Answer   string    `json:"answer"`
	Sources  []string  `json:"sources"`
	Contexts []Context `json:"contexts"`
}

// Recorder persists one completed exchange.
type Recorder interface {
	RecordTurn(ctx context.Context, sectionID, userContent, assistantContent string) error
}

// AskService runs one question end to end: validate, retrieve, generate,
// record, respond.
type AskService struct {
	retriever Retriever
	answerer  Answerer
	recorder  Recorder
	logger    *zap.Logger
}

func NewAskService(retriever Retriever, answerer Answerer, recorder Recorder, logger *zap.Logger) *AskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskService{
		retriever: retriever,
		answerer:  answerer,
		recorder:  recorder,
		logger:    logger,
	}
}

// Validate reports every violation at once rather than stopping at the
// first. The "no user message" check runs only once the basic shape holds,
// and is reported as its own distinct violation.
func (s *AskService) Validate(req AskRequest) *ValidationError {
	var violations []string
	if len(req.Messages) == 0 {
		violations = append(violations, "messages is required")
	}
	if strings.TrimSpace(req.SectionID) == "" {
		violations = append(violations, "session_id is required")
	}
	if len(violations) > 0 {
		return NewValidationError(violations...)
	}

	if lastUserTurn(req.Messages) == nil {
		return NewValidationError("no user message found")
	}
	return nil
}

// Ask answers synchronously.
func (s *AskService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if verr := s.Validate(req); verr != nil {
		return nil, verr
	}
	query := lastUserTurn(req.Messages)

	contexts, err := s.retriever.Retrieve(ctx, query.Content, 0)
	if err != nil {
		return nil, err
	}

	answer, err := s.answerer.Answer(ctx, AnswerInput{
		History:  req.Messages,
		Contexts: contexts,
		Language: req.Language,
		Options:  req.Options,
	})
	if err != nil {
		return nil, err
	}

	s.persistTurn(ctx, req.SectionID, query.Content, answer)
	return buildResult(answer, contexts), nil
}

// AskStream answers via the fragment producer, forwarding each fragment to
// emit. The turn is persisted only after the stream drains cleanly; a
// truncated answer (consumer gone, upstream fault) is not saved, keeping the
// transcript faithful to completed exchanges.
func (s *AskService) AskStream(ctx context.Context, req AskRequest, emit func(fragment string) error) (*AskResult, error) {
	if verr := s.Validate(req); verr != nil {
		return nil, verr
	}
	query := lastUserTurn(req.Messages)

	contexts, err := s.retriever.Retrieve(ctx, query.Content, 0)
	if err != nil {
		return nil, err
	}

	stream, err := s.answerer.AnswerStream(ctx, AnswerInput{
		History:  req.Messages,
		Contexts: contexts,
		Language: req.Language,
		Options:  req.Options,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		fragment := stream.Text()
		full.WriteString(fragment)
		if err := emit(fragment); err != nil {
			// Consumer stopped draining; abandon generation, skip persistence.
			return nil, &UpstreamError{Op: "forward answer fragment", Err: err}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, &UpstreamError{Op: "drain answer stream", Err: err}
	}

	answer := strings.TrimSpace(full.String())
	s.persistTurn(ctx, req.SectionID, query.Content, answer)
	return buildResult(answer, contexts), nil
}

// persistTurn records the exchange. The answer was already produced (and in
// the streaming path already delivered), so a storage hiccup is logged as a
// warning, never surfaced to the end user.
func (s *AskService) persistTurn(ctx context.Context, sectionID, question, answer string) {
	if err := s.recorder.RecordTurn(ctx, sectionID, question, answer); err != nil {
		s.logger.Warn("transcript persistence failed, answer already delivered",
			zap.String("session_id", sectionID), zap.Error(err))
	}
}

func lastUserTurn(messages []Turn) *Turn {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return &messages[i]
		}
	}
	return nil
}

func buildResult(answer string, contexts []Context) *AskResult {
	seen := make(map[string]struct{}, len(contexts))
	sources := make([]string, 0, len(contexts))
	for _, c := range contexts {
		if _, ok := seen[c.Title]; ok {
			continue
		}
		seen[c.Title] = struct{}{}
		sources = append(sources, c.Title)
	}
	return &AskResult{
		Answer:   answer,
		Sources:  sources,
		Contexts: contexts,
	}
}
