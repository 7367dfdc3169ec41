package app

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/ai"
	"ragchat/internal/model"
)

const (
	LanguageVI = "vi"
	LanguageEN = "en"
)

const systemPromptVI = `Bạn là một trợ lý tri thức: điềm tĩnh, chính xác và trả lời bằng tiếng Việt.

Bạn chỉ trả lời dựa trên ngữ cảnh được cung cấp từ kho tài liệu.

Hướng dẫn:
- Trả lời ngắn gọn, rõ ràng và trung thực.
- Nếu thông tin không có trong ngữ cảnh, hãy trả lời: "Tôi không chắc về điều đó dựa trên những gì đang có."
- Không suy đoán hay tạo ra thông tin không có trong nguồn tham khảo.
- Trích dẫn tên tài liệu khi có thể.`

const systemPromptEN = `You are a knowledge assistant: calm, precise, and grounded.

You answer only from the context passages provided from the document corpus.

Guidelines:
- Answer concisely, clearly, and honestly.
- If the information is not in the context, reply: "I am not certain about that based on what I have."
- Do not speculate or invent information absent from the sources.
- Cite the source title where possible.`

// Generator is the language-model collaborator the answer engine drives.
type Generator interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
	StreamComplete(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error)
}

// GenerationOptions is the per-request options bag.
type GenerationOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type AnswerService struct {
	generator       Generator
	defaultModel    string
	defaultLanguage string
	temperature     float64
	maxTokens       int
}

func NewAnswerService(generator Generator, defaultModel, defaultLanguage string, temperature float64, maxTokens int) *AnswerService {
	return &AnswerService{
		generator:       generator,
		defaultModel:    defaultModel,
		defaultLanguage: defaultLanguage,
		temperature:     temperature,
		maxTokens:       maxTokens,
	}
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AnswerInput struct {
	History  []Turn
	Contexts []Context
	Language string
	Options  GenerationOptions
}

// Answer blocks until the full text is available.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (string, error) {
	answer, err := s.generator.Complete(ctx, s.buildRequest(input))
	if err != nil {
		return "", &UpstreamError{Op: "generate answer", Err: err}
	}
	return strings.TrimSpace(answer), nil
}

// AnswerStream returns the fragment producer for the same request. Fragments
// concatenated in arrival order reconstruct the full answer; the caller must
// Close the stream.
func (s *AnswerService) AnswerStream(ctx context.Context, input AnswerInput) (ai.Stream, error) {
	stream, err := s.generator.StreamComplete(ctx, s.buildRequest(input))
	if err != nil {
		return nil, &UpstreamError{Op: "generate answer stream", Err: err}
	}
	return stream, nil
}

// buildRequest assembles the generation request: language-selected system
// instruction, one context-injection system message when passages were
// retrieved, then the conversation history oldest to newest.
func (s *AnswerService) buildRequest(input AnswerInput) ai.CompletionRequest {
	language := input.Language
	if language == "" {
		language = s.defaultLanguage
	}

	messages := make([]ai.ChatMessage, 0, len(input.History)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: systemPrompt(language),
	})

	if len(input.Contexts) > 0 {
		var b strings.Builder
		b.WriteString("Here is the relevant context from our knowledge base:\n")
		for _, ctx := range input.Contexts {
			fmt.Fprintf(&b, "\nSource: %s\nContent: %s\n", ctx.Title, ctx.Content)
		}
		messages = append(messages, ai.ChatMessage{Role: "system", Content: b.String()})
	}

	for _, turn := range input.History {
		role := turn.Role
		if role == "" {
			role = model.RoleUser
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: turn.Content})
	}

	req := ai.CompletionRequest{
		Model:       s.defaultModel,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages:    messages,
	}
	if input.Options.Model != "" {
		req.Model = input.Options.Model
	}
	if input.Options.Temperature > 0 {
		req.Temperature = input.Options.Temperature
	}
	if input.Options.MaxTokens > 0 {
		req.MaxTokens = input.Options.MaxTokens
	}
	return req
}

func systemPrompt(language string) string {
	if language == LanguageEN {
		return systemPromptEN
	}
	return systemPromptVI
}
