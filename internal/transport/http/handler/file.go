package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/pkg/pdfextract"
	"ragchat/internal/transport/http/response"
)

const maxUploadBytes = 10 << 20

type FileHandler struct {
	contentService *app.ContentService
	extract        func(r io.Reader) (string, error)
}

type CreateFileRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Path string `json:"path" binding:"max=1024"`
}

type UpdateFileRequest struct {
	Name string `json:"name" binding:"max=255"`
	Path string `json:"path" binding:"max=1024"`
}

func NewFileHandler(contentService *app.ContentService) *FileHandler {
	return &FileHandler{
		contentService: contentService,
		extract:        pdfextract.ExtractText,
	}
}

func (h *FileHandler) Create(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	file, err := h.contentService.CreateFile(app.CreateFileInput{
		Name:   req.Name,
		Path:   req.Path,
		Author: author,
	})
	if err != nil {
		writeContentError(c, err, "create file failed")
		return
	}

	response.OK(c, file)
}

// Upload ingests a PDF end to end: extract, chunk, embed, index.
func (h *FileHandler) Upload(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file exceeds 10MB limit")
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only pdf files are supported")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "open uploaded file failed")
		return
	}
	defer src.Close()

	text, err := h.extract(src)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "extract pdf text failed")
		return
	}

	result, err := h.contentService.Ingest(c.Request.Context(), app.IngestInput{
		Author:      author,
		Name:        fileHeader.Filename,
		Path:        fileHeader.Filename,
		Description: c.PostForm("description"),
		Content:     text,
	})
	if err != nil {
		writeContentError(c, err, "ingest file failed")
		return
	}

	response.OK(c, result)
}

func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.contentService.GetFile(c.Param("id"))
	if err != nil {
		writeContentError(c, err, "get file failed")
		return
	}
	response.OK(c, file)
}

func (h *FileHandler) List(c *gin.Context) {
	author, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, offset := getPageParams(c)
	files, total, err := h.contentService.ListFiles(author, limit, offset)
	if err != nil {
		writeContentError(c, err, "list files failed")
		return
	}

	response.OK(c, gin.H{"files": files, "total": total})
}

func (h *FileHandler) Update(c *gin.Context) {
	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	file, err := h.contentService.UpdateFile(c.Param("id"), app.UpdateFileInput{
		Name: req.Name,
		Path: req.Path,
	})
	if err != nil {
		writeContentError(c, err, "update file failed")
		return
	}
	response.OK(c, file)
}

func (h *FileHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.contentService.DeleteFile(id); err != nil {
		var cerr *app.ConsistencyError
		if errors.As(err, &cerr) {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, cerr.Error())
			return
		}
		writeContentError(c, err, "delete file failed")
		return
	}
	response.OK(c, gin.H{"deleted_file_id": id})
}

func writeContentError(c *gin.Context, err error, fallback string) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Violations)
	case app.IsNotFound(err):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func getPageParams(c *gin.Context) (limit, offset int) {
	limit = 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
