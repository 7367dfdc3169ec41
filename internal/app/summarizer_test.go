package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/model"
)

func TestSummarizeEnforcesTitleContract(t *testing.T) {
	gen := &captureGenerator{response: `"This Is A Very Long Title With Far Too Many Words In It!"`}
	summarizer := NewTitleSummarizer(gen, "summary-model")

	title, err := summarizer.Summarize(context.Background(), []Turn{
		{Role: model.RoleUser, Content: "first message"},
	}, LanguageEN)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(strings.Fields(title)), 10)
	assert.False(t, strings.HasSuffix(title, "!"))
	assert.False(t, strings.HasPrefix(title, `"`))
}

func TestSummarizeBuildsConversationPrompt(t *testing.T) {
	gen := &captureGenerator{response: "Refund Policy"}
	summarizer := NewTitleSummarizer(gen, "summary-model")

	_, err := summarizer.Summarize(context.Background(), []Turn{
		{Role: model.RoleUser, Content: "what is the refund policy?"},
		{Role: model.RoleAssistant, Content: "refunds within 30 days"},
	}, LanguageEN)
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "summary-model", req.Model)
	assert.Equal(t, 50, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "user: what is the refund policy?")
	assert.Contains(t, req.Messages[1].Content, "assistant: refunds within 30 days")
}

func TestSummarizeLanguageSelectsPrompt(t *testing.T) {
	gen := &captureGenerator{response: "title"}
	summarizer := NewTitleSummarizer(gen, "summary-model")

	_, err := summarizer.Summarize(context.Background(), nil, LanguageEN)
	require.NoError(t, err)
	assert.Contains(t, gen.requests[0].Messages[0].Content, "summarizing conversations")

	_, err = summarizer.Summarize(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Contains(t, gen.requests[1].Messages[0].Content, "tóm tắt")
}

func TestSummarizeFailure(t *testing.T) {
	gen := &captureGenerator{err: errors.New("model unavailable")}
	summarizer := NewTitleSummarizer(gen, "summary-model")

	_, err := summarizer.Summarize(context.Background(), nil, LanguageEN)
	require.Error(t, err)
	var uerr *UpstreamError
	assert.ErrorAs(t, err, &uerr)
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"Quoted Title"`, "Quoted Title"},
		{"Trailing punctuation!?.", "Trailing punctuation"},
		{"  padded  ", "padded"},
		{"one two three four five six seven eight nine ten eleven", "one two three four five six seven eight nine ten"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanTitle(tc.in), "input %q", tc.in)
	}
}
