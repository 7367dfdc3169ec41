package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/transport/http/response"
)

type DocumentHandler struct {
	contentService *app.ContentService
}

type CreateDocumentRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Content     string `json:"content" binding:"required"`
	Description string `json:"description" binding:"max=1024"`
	FileID      string `json:"file_id" binding:"max=64"`
}

type UpdateDocumentRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Content     string `json:"content"`
	Description string `json:"description" binding:"max=1024"`
}

func NewDocumentHandler(contentService *app.ContentService) *DocumentHandler {
	return &DocumentHandler{contentService: contentService}
}

func (h *DocumentHandler) Create(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.contentService.CreateDocument(c.Request.Context(), app.CreateDocumentInput{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		FileID:      req.FileID,
		Author:      author,
	})
	if err != nil {
		writeContentError(c, err, "create document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.contentService.GetDocument(c.Param("id"))
	if err != nil {
		writeContentError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := getPageParams(c)
	docs, total, err := h.contentService.ListDocuments(limit, offset)
	if err != nil {
		writeContentError(c, err, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs, "total": total})
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.contentService.UpdateDocument(c.Request.Context(), c.Param("id"), app.UpdateDocumentInput{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
	})
	if err != nil {
		writeContentError(c, err, "update document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.contentService.DeleteDocument(id); err != nil {
		writeContentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}
