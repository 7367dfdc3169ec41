package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/transport/http/response"
)

type AskHandler struct {
	askService *app.AskService
}

type AskTurnRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type AskRequest struct {
	SessionID string           `json:"session_id"`
	Messages  []AskTurnRequest `json:"messages"`
	Language  string           `json:"language"`
	Model     string           `json:"model"`
}

func NewAskHandler(askService *app.AskService) *AskHandler {
	return &AskHandler{askService: askService}
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.askService.Ask(c.Request.Context(), toAskRequest(req))
	if err != nil {
		writeAskError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AskHandler) AskStream(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	askReq := toAskRequest(req)
	if verr := h.askService.Validate(askReq); verr != nil {
		response.ValidationFailed(c, verr.Violations)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	result, err := h.askService.AskStream(c.Request.Context(), askReq, func(fragment string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(fragment) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if _, writeErr := c.Writer.Write([]byte(fmt.Sprintf("event: error\ndata: %s\n\n", sanitizeSSE(err.Error())))); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(result.Answer) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func toAskRequest(req AskRequest) app.AskRequest {
	turns := make([]app.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		turns = append(turns, app.Turn{Role: m.Role, Content: m.Content})
	}
	return app.AskRequest{
		SectionID: req.SessionID,
		Messages:  turns,
		Language:  req.Language,
		Options:   app.GenerationOptions{Model: req.Model},
	}
}

func writeAskError(c *gin.Context, err error) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Violations)
	case app.IsNotFound(err):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "answer generation failed")
	}
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
