package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/app"
	"ragchat/internal/model"
	"ragchat/internal/transport/http/middleware"
)

type fakeFileStore struct {
	files map[string]*model.File
}

func (s *fakeFileStore) Create(file *model.File) error {
	s.files[file.ID] = file
	return nil
}

func (s *fakeFileStore) GetByID(id string) (*model.File, error) {
	return s.files[id], nil
}

func (s *fakeFileStore) ListByAuthor(author string, limit, offset int) ([]model.File, int64, error) {
	var out []model.File
	for _, f := range s.files {
		if f.Author == author {
			out = append(out, *f)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeFileStore) Update(id string, fields map[string]interface{}) error { return nil }

func (s *fakeFileStore) DeleteByID(id string) error {
	delete(s.files, id)
	return nil
}

type fakeDocumentStore struct {
	docs []model.Document
}

func (s *fakeDocumentStore) Create(doc *model.Document) error {
	s.docs = append(s.docs, *doc)
	return nil
}

func (s *fakeDocumentStore) CreateBatch(docs []model.Document) error {
	s.docs = append(s.docs, docs...)
	return nil
}

func (s *fakeDocumentStore) GetByID(id string) (*model.Document, error) { return nil, nil }

func (s *fakeDocumentStore) List(limit, offset int) ([]model.Document, int64, error) {
	return s.docs, int64(len(s.docs)), nil
}

func (s *fakeDocumentStore) Update(string, map[string]interface{}) error {
	return nil
}

func (s *fakeDocumentStore) DeleteByID(string) error {
	return nil
}

func (s *fakeDocumentStore) DeleteByFileID(string) error {
	return nil
}

func (s *fakeDocumentStore) CountByFileID(string) (int64, error) {
	return int64(len(s.docs)), nil
}

type fakeIntentStore struct{}

func (fakeIntentStore) Create(*model.DeletionIntent) error {
	return nil
}

func (fakeIntentStore) List() ([]model.DeletionIntent, error) {
	return nil, nil
}

func (fakeIntentStore) DeleteByID(string) error {
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (fakeEmbedder) EmbedBatch(_ context.Context, _ string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type wholeTextChunker struct{}

func (wholeTextChunker) Split(text string) []string { return []string{text} }

type uploadFixture struct {
	router *gin.Engine
	files  *fakeFileStore
}

func newUploadFixture() *uploadFixture {
	gin.SetMode(gin.TestMode)
	files := &fakeFileStore{files: map[string]*model.File{}}
	service := app.NewContentService(files, &fakeDocumentStore{}, fakeIntentStore{},
		fakeEmbedder{}, wholeTextChunker{}, "embed-model", nil)

	h := NewFileHandler(service)
	h.extract = func(io.Reader) (string, error) { return "extracted body text", nil }

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(middleware.ContextUserIDKey, "user-1") })
	router.POST("/files/upload", h.Upload)
	return &uploadFixture{router: router, files: files}
}

func multipartUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 payload"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("description", "quarterly handbook"))
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadRecordsSourcePath(t *testing.T) {
	f := newUploadFixture()
	body, contentType := multipartUpload(t, "handbook.pdf")

	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.files.files, 1)
	for _, file := range f.files.files {
		assert.Equal(t, "handbook.pdf", file.Name)
		assert.Equal(t, "handbook.pdf", file.Path)
		assert.Equal(t, "user-1", file.Author)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newUploadFixture()
	body, contentType := multipartUpload(t, "notes.txt")

	req := httptest.NewRequest(http.MethodPost, "/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.files.files)
}
