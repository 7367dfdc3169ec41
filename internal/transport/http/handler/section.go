package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/transport/http/response"
)

type SectionHandler struct {
	sectionService *app.SectionService
	transcripts    *app.TranscriptRecorder
}

type CreateSectionRequest struct {
	ID       string           `json:"id" binding:"max=64"`
	Title    string           `json:"title" binding:"max=255"`
	Order    int              `json:"order"`
	Language string           `json:"language" binding:"max=8"`
	Messages []AskTurnRequest `json:"messages"`
}

type UpdateSectionRequest struct {
	Title string `json:"title" binding:"max=255"`
	Order *int   `json:"order"`
}

func NewSectionHandler(sectionService *app.SectionService, transcripts *app.TranscriptRecorder) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		transcripts:    transcripts,
	}
}

func (h *SectionHandler) Create(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	seed := make([]app.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		seed = append(seed, app.Turn{Role: m.Role, Content: m.Content})
	}

	section, err := h.sectionService.Create(c.Request.Context(), app.CreateSectionInput{
		ID:       req.ID,
		Title:    req.Title,
		Order:    req.Order,
		Author:   author,
		Language: req.Language,
		Seed:     seed,
	})
	if err != nil {
		writeContentError(c, err, "create section failed")
		return
	}
	response.OK(c, section)
}

func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.sectionService.Get(c.Param("id"))
	if err != nil {
		writeContentError(c, err, "get section failed")
		return
	}
	response.OK(c, section)
}

func (h *SectionHandler) List(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, offset := getPageParams(c)
	sections, total, err := h.sectionService.List(author, limit, offset)
	if err != nil {
		writeContentError(c, err, "list sections failed")
		return
	}
	response.OK(c, gin.H{"sections": sections, "total": total})
}

func (h *SectionHandler) Update(c *gin.Context) {
	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	id := c.Param("id")
	ok := h.sectionService.Update(id, app.UpdateSectionInput{
		Title: req.Title,
		Order: req.Order,
	})
	if !ok {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "section "+id+" not found")
		return
	}
	response.OK(c, gin.H{"updated": true})
}

func (h *SectionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.sectionService.Delete(id) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "section "+id+" not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Transcript returns the section's messages oldest first.
func (h *SectionHandler) Transcript(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	messages, err := h.transcripts.List(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeContentError(c, err, "list transcript failed")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}
