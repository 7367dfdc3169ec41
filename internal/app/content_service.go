package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/model"
)

const embeddingBatchSize = 10 // embedding APIs commonly cap array input size

var errEmbeddingCountMismatch = errors.New("embedding count mismatch")

// FileStore is the slice of the content store the lifecycle manager needs
// for files.
type FileStore interface {
	Create(file *model.File) error
	GetByID(id string) (*model.File, error)
	ListByAuthor(author string, limit, offset int) ([]model.File, int64, error)
	Update(id string, fields map[string]interface{}) error
	DeleteByID(id string) error
}

type DocumentStore interface {
	Create(doc *model.Document) error
	CreateBatch(docs []model.Document) error
	GetByID(id string) (*model.Document, error)
	List(limit, offset int) ([]model.Document, int64, error)
	Update(id string, fields map[string]interface{}) error
	DeleteByID(id string) error
	DeleteByFileID(fileID string) error
	CountByFileID(fileID string) (int64, error)
}

type IntentStore interface {
	Create(intent *model.DeletionIntent) error
	List() ([]model.DeletionIntent, error)
	DeleteByID(id string) error
}

type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// TextChunker splits raw extracted text into ordered fragments.
type TextChunker interface {
	Split(text string) []string
}

type ContentService struct {
	files          FileStore
	documents      DocumentStore
	intents        IntentStore
	embedder       Embedder
	chunker        TextChunker
	embeddingModel string
	logger         *zap.Logger
}

func NewContentService(
	files FileStore,
	documents DocumentStore,
	intents IntentStore,
	embedder Embedder,
	chunker TextChunker,
	embeddingModel string,
	logger *zap.Logger,
) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		files:          files,
		documents:      documents,
		intents:        intents,
		embedder:       embedder,
		chunker:        chunker,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
}

type CreateFileInput struct {
	Name   string
	Path   string
	Author string
}

func (s *ContentService) CreateFile(input CreateFileInput) (*model.File, error) {
	var violations []string
	if strings.TrimSpace(input.Author) == "" {
		violations = append(violations, "author is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		violations = append(violations, "name is required")
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	now := time.Now()
	file := &model.File{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Path:      strings.TrimSpace(input.Path),
		Author:    strings.TrimSpace(input.Author),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.files.Create(file); err != nil {
		return nil, &UpstreamError{Op: "create file", Err: err}
	}
	return file, nil
}

func (s *ContentService) GetFile(id string) (*model.File, error) {
	file, err := s.files.GetByID(id)
	if err != nil {
		return nil, &UpstreamError{Op: "get file", Err: err}
	}
	if file == nil {
		return nil, &NotFoundError{Resource: "file", ID: id}
	}
	return file, nil
}

func (s *ContentService) ListFiles(author string, limit, offset int) ([]model.File, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	files, total, err := s.files.ListByAuthor(author, limit, offset)
	if err != nil {
		return nil, 0, &UpstreamError{Op: "list files", Err: err}
	}
	return files, total, nil
}

type UpdateFileInput struct {
	Name string
	Path string
}

// UpdateFile merges only the supplied non-empty fields and always refreshes
// updated_at.
func (s *ContentService) UpdateFile(id string, input UpdateFileInput) (*model.File, error) {
	existing, err := s.GetFile(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if name := strings.TrimSpace(input.Name); name != "" {
		fields["name"] = name
	}
	if path := strings.TrimSpace(input.Path); path != "" {
		fields["path"] = path
	}
	if err := s.files.Update(existing.ID, fields); err != nil {
		return nil, &UpstreamError{Op: "update file", Err: err}
	}
	return s.GetFile(id)
}

// DeleteFile removes a file and every document referencing it. The cascade
// is delete-children-then-parent guarded by an intent row: if the children
// are gone but the parent delete fails, a ConsistencyError surfaces and the
// intent stays behind for the reconciliation pass to finish.
func (s *ContentService) DeleteFile(id string) error {
	file, err := s.files.GetByID(id)
	if err != nil {
		return &UpstreamError{Op: "delete file", Err: err}
	}
	if file == nil {
		return &NotFoundError{Resource: "file", ID: id}
	}

	intent := &model.DeletionIntent{
		ID:        uuid.NewString(),
		FileID:    file.ID,
		CreatedAt: time.Now(),
	}
	if err := s.intents.Create(intent); err != nil {
		return &UpstreamError{Op: "record deletion intent", Err: err}
	}

	if err := s.documents.DeleteByFileID(file.ID); err != nil {
		// Children intact, parent intact: plain upstream failure. The intent
		// row is redundant but harmless; reconciliation will re-run the same
		// idempotent deletes.
		return &UpstreamError{Op: "delete documents of file", Err: err}
	}
	if err := s.files.DeleteByID(file.ID); err != nil {
		return &ConsistencyError{Op: "file delete cascade", Err: err}
	}

	if err := s.intents.DeleteByID(intent.ID); err != nil {
		s.logger.Warn("clear deletion intent failed",
			zap.String("file_id", file.ID), zap.Error(err))
	}
	return nil
}

// ReconcileDeletions finishes cascades interrupted mid-flight (for example
// by a crash between child and parent deletion). Runs at startup.
func (s *ContentService) ReconcileDeletions() error {
	intents, err := s.intents.List()
	if err != nil {
		return &UpstreamError{Op: "list deletion intents", Err: err}
	}

	for _, intent := range intents {
		if err := s.documents.DeleteByFileID(intent.FileID); err != nil {
			s.logger.Warn("reconcile: delete documents failed",
				zap.String("file_id", intent.FileID), zap.Error(err))
			continue
		}
		if err := s.files.DeleteByID(intent.FileID); err != nil {
			s.logger.Warn("reconcile: delete file failed",
				zap.String("file_id", intent.FileID), zap.Error(err))
			continue
		}
		if err := s.intents.DeleteByID(intent.ID); err != nil {
			s.logger.Warn("reconcile: clear intent failed",
				zap.String("file_id", intent.FileID), zap.Error(err))
			continue
		}
		s.logger.Info("reconciled interrupted file deletion",
			zap.String("file_id", intent.FileID))
	}
	return nil
}

type IngestInput struct {
	Author      string
	Name        string
	Path        string
	Description string
	Content     string
}

type IngestResult struct {
	File       model.File `json:"file"`
	ChunkCount int        `json:"chunk_count"`
}

// Ingest turns one uploaded source into a File plus one vector-indexed
// Document per chunk.
func (s *ContentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	var violations []string
	if strings.TrimSpace(input.Author) == "" {
		violations = append(violations, "author is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		violations = append(violations, "content is empty")
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Untitled"
	}

	chunks := s.chunker.Split(input.Content)
	if len(chunks) == 0 {
		return nil, NewValidationError("content has no extractable text")
	}

	file, err := s.CreateFile(CreateFileInput{
		Name:   name,
		Path:   input.Path,
		Author: input.Author,
	})
	if err != nil {
		return nil, err
	}

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		// The file row exists without documents at this point. That window
		// is allowed for failed ingestion; the caller can retry or delete.
		return nil, err
	}

	now := time.Now()
	docs := make([]model.Document, len(chunks))
	for i := range chunks {
		docs[i] = model.Document{
			ID:          uuid.NewString(),
			Title:       file.Name,
			Content:     chunks[i],
			Description: strings.TrimSpace(input.Description),
			FileID:      file.ID,
			Author:      file.Author,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		docs[i].SetEmbedding(embeddings[i])
	}
	if err := s.documents.CreateBatch(docs); err != nil {
		return nil, &UpstreamError{Op: "store documents", Err: err}
	}

	s.logger.Info("ingested file",
		zap.String("file_id", file.ID),
		zap.String("author", file.Author),
		zap.Int("chunks", len(docs)))

	return &IngestResult{File: *file, ChunkCount: len(docs)}, nil
}

func (s *ContentService) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	var embeddings [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batched, err := s.embedder.EmbedBatch(ctx, s.embeddingModel, chunks[i:end])
		if err != nil {
			return nil, &UpstreamError{Op: "embed chunks", Err: err}
		}
		embeddings = append(embeddings, batched...)
	}
	if len(embeddings) != len(chunks) {
		return nil, &UpstreamError{Op: "embed chunks", Err: errEmbeddingCountMismatch}
	}
	return embeddings, nil
}

type CreateDocumentInput struct {
	Title       string
	Content     string
	Description string
	FileID      string
	Author      string
}

func (s *ContentService) CreateDocument(ctx context.Context, input CreateDocumentInput) (*model.Document, error) {
	var violations []string
	if strings.TrimSpace(input.Author) == "" {
		violations = append(violations, "author is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		violations = append(violations, "content is empty")
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	if input.FileID != "" {
		owner, err := s.files.GetByID(input.FileID)
		if err != nil {
			return nil, &UpstreamError{Op: "resolve owning file", Err: err}
		}
		if owner == nil {
			return nil, &NotFoundError{Resource: "file", ID: input.FileID}
		}
	}

	embedding, err := s.embedder.Embed(ctx, s.embeddingModel, input.Content)
	if err != nil {
		return nil, &UpstreamError{Op: "embed document", Err: err}
	}

	now := time.Now()
	doc := &model.Document{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		Description: strings.TrimSpace(input.Description),
		FileID:      input.FileID,
		Author:      strings.TrimSpace(input.Author),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.SetEmbedding(embedding)
	if err := s.documents.Create(doc); err != nil {
		return nil, &UpstreamError{Op: "create document", Err: err}
	}
	return doc, nil
}

func (s *ContentService) GetDocument(id string) (*model.Document, error) {
	doc, err := s.documents.GetByID(id)
	if err != nil {
		return nil, &UpstreamError{Op: "get document", Err: err}
	}
	if doc == nil {
		return nil, &NotFoundError{Resource: "document", ID: id}
	}
	return doc, nil
}

type UpdateDocumentInput struct {
	Title       string
	Content     string
	Description string
}

// UpdateDocument merges non-empty fields. A content change re-embeds so the
// index never serves a stale vector.
func (s *ContentService) UpdateDocument(ctx context.Context, id string, input UpdateDocumentInput) (*model.Document, error) {
	existing, err := s.GetDocument(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if title := strings.TrimSpace(input.Title); title != "" {
		fields["title"] = title
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		fields["description"] = desc
	}
	if content := strings.TrimSpace(input.Content); content != "" && content != existing.Content {
		embedding, err := s.embedder.Embed(ctx, s.embeddingModel, content)
		if err != nil {
			return nil, &UpstreamError{Op: "embed document", Err: err}
		}
		reindexed := model.Document{}
		reindexed.SetEmbedding(embedding)
		fields["content"] = content
		fields["embedding"] = reindexed.Embedding
	}

	if err := s.documents.Update(existing.ID, fields); err != nil {
		return nil, &UpstreamError{Op: "update document", Err: err}
	}
	return s.GetDocument(id)
}

func (s *ContentService) DeleteDocument(id string) error {
	if _, err := s.GetDocument(id); err != nil {
		return err
	}
	if err := s.documents.DeleteByID(id); err != nil {
		return &UpstreamError{Op: "delete document", Err: err}
	}
	return nil
}

// ListDocuments returns one page plus the total count.
func (s *ContentService) ListDocuments(limit, offset int) ([]model.Document, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	docs, total, err := s.documents.List(limit, offset)
	if err != nil {
		return nil, 0, &UpstreamError{Op: "list documents", Err: err}
	}
	return docs, total, nil
}
