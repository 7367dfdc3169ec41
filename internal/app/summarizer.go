package app

import (
	"context"
	"strings"

	"ragchat/internal/ai"
)

const summaryPromptVI = `Bạn là một trợ lý AI chuyên tóm tắt nội dung cuộc trò chuyện.
Nhiệm vụ của bạn là tạo một tiêu đề ngắn gọn (không quá 10 từ) dựa trên tin nhắn đầu tiên của cuộc trò chuyện.
Tiêu đề phải phản ánh chính xác nội dung chính, dùng ngôn ngữ tự nhiên, không có dấu câu ở cuối,
và không chứa các từ thừa như "Cuộc trò chuyện về..." hoặc "Hỏi về...".
Chỉ trả về tiêu đề, không giải thích thêm.`

const summaryPromptEN = `You are an AI assistant specialized in summarizing conversations.
Create a concise title (no more than 10 words) based on the first message of the conversation.
The title must accurately reflect the main content, use natural language, not end with punctuation,
and not include filler like "Conversation about..." or "Question about...".
Return only the title, no additional explanation.`

const maxTitleWords = 10

// TitleSummarizer derives a short section title from the seed messages of a
// conversation.
type TitleSummarizer struct {
	generator Generator
	model     string
}

func NewTitleSummarizer(generator Generator, model string) *TitleSummarizer {
	return &TitleSummarizer{generator: generator, model: model}
}

// Summarize returns a non-empty title of at most ten words with no trailing
// punctuation.
func (s *TitleSummarizer) Summarize(ctx context.Context, turns []Turn, language string) (string, error) {
	var b strings.Builder
	b.WriteString("Here is the conversation:\n")
	for _, turn := range turns {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	prompt := summaryPromptVI
	if language == LanguageEN {
		prompt = summaryPromptEN
	}

	raw, err := s.generator.Complete(ctx, ai.CompletionRequest{
		Model:       s.model,
		Temperature: 0.7,
		MaxTokens:   50,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return "", &UpstreamError{Op: "generate summary", Err: err}
	}
	return cleanTitle(raw), nil
}

// cleanTitle enforces the title contract regardless of how well the model
// followed instructions.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.TrimRight(title, ".,!?:;")

	words := strings.Fields(title)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return strings.Join(words, " ")
}
