package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/model"
)

type memFileStore struct {
	files     map[string]*model.File
	deleteErr error
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string]*model.File{}}
}

func (s *memFileStore) Create(file *model.File) error {
	copied := *file
	s.files[file.ID] = &copied
	return nil
}

func (s *memFileStore) GetByID(id string) (*model.File, error) {
	file, ok := s.files[id]
	if !ok {
		return nil, nil
	}
	copied := *file
	return &copied, nil
}

func (s *memFileStore) ListByAuthor(author string, limit, offset int) ([]model.File, int64, error) {
	var all []model.File
	for _, f := range s.files {
		if f.Author == author {
			all = append(all, *f)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memFileStore) Update(id string, fields map[string]interface{}) error {
	file, ok := s.files[id]
	if !ok {
		return nil
	}
	if name, ok := fields["name"].(string); ok {
		file.Name = name
	}
	if path, ok := fields["path"].(string); ok {
		file.Path = path
	}
	return nil
}

func (s *memFileStore) DeleteByID(id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.files, id)
	return nil
}

type memDocumentStore struct {
	docs map[string]*model.Document
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{docs: map[string]*model.Document{}}
}

func (s *memDocumentStore) Create(doc *model.Document) error {
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *memDocumentStore) CreateBatch(docs []model.Document) error {
	for i := range docs {
		copied := docs[i]
		s.docs[docs[i].ID] = &copied
	}
	return nil
}

func (s *memDocumentStore) GetByID(id string) (*model.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (s *memDocumentStore) List(limit, offset int) ([]model.Document, int64, error) {
	var all []model.Document
	for _, d := range s.docs {
		all = append(all, *d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memDocumentStore) Update(id string, fields map[string]interface{}) error {
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	if title, ok := fields["title"].(string); ok {
		doc.Title = title
	}
	if content, ok := fields["content"].(string); ok {
		doc.Content = content
	}
	if desc, ok := fields["description"].(string); ok {
		doc.Description = desc
	}
	if embedding, ok := fields["embedding"].(string); ok {
		doc.Embedding = embedding
	}
	return nil
}

func (s *memDocumentStore) DeleteByID(id string) error {
	delete(s.docs, id)
	return nil
}

func (s *memDocumentStore) DeleteByFileID(fileID string) error {
	for id, doc := range s.docs {
		if doc.FileID == fileID {
			delete(s.docs, id)
		}
	}
	return nil
}

func (s *memDocumentStore) CountByFileID(fileID string) (int64, error) {
	var n int64
	for _, doc := range s.docs {
		if doc.FileID == fileID {
			n++
		}
	}
	return n, nil
}

type memIntentStore struct {
	intents map[string]*model.DeletionIntent
}

func newMemIntentStore() *memIntentStore {
	return &memIntentStore{intents: map[string]*model.DeletionIntent{}}
}

func (s *memIntentStore) Create(intent *model.DeletionIntent) error {
	copied := *intent
	s.intents[intent.ID] = &copied
	return nil
}

func (s *memIntentStore) List() ([]model.DeletionIntent, error) {
	var all []model.DeletionIntent
	for _, i := range s.intents {
		all = append(all, *i)
	}
	return all, nil
}

func (s *memIntentStore) DeleteByID(id string) error {
	delete(s.intents, id)
	return nil
}

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, _ string, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

type fixedChunker struct {
	chunks []string
}

func (c *fixedChunker) Split(string) []string { return c.chunks }

type contentFixture struct {
	files    *memFileStore
	docs     *memDocumentStore
	intents  *memIntentStore
	embedder *stubEmbedder
	svc      *ContentService
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	f := &contentFixture{
		files:    newMemFileStore(),
		docs:     newMemDocumentStore(),
		intents:  newMemIntentStore(),
		embedder: &stubEmbedder{},
	}
	f.svc = NewContentService(
		f.files, f.docs, f.intents, f.embedder,
		&fixedChunker{chunks: []string{"chunk one", "chunk two"}},
		"test-embedding-model", nil,
	)
	return f
}

func TestCreateFileRequiresAuthorAndName(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.CreateFile(CreateFileInput{})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"author is required", "name is required"}, verr.Violations)
}

func TestCreateAndGetFile(t *testing.T) {
	f := newContentFixture(t)

	created, err := f.svc.CreateFile(CreateFileInput{Name: "  handbook.pdf ", Author: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "handbook.pdf", created.Name)

	got, err := f.svc.GetFile(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetFileNotFound(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.GetFile("missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestUpdateFileMergesOnlyProvidedFields(t *testing.T) {
	f := newContentFixture(t)
	created, err := f.svc.CreateFile(CreateFileInput{Name: "a.pdf", Path: "/tmp/a.pdf", Author: "user-1"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateFile(created.ID, UpdateFileInput{Name: "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", updated.Name)
	assert.Equal(t, "/tmp/a.pdf", updated.Path, "unspecified field untouched")
}

func TestDeleteFileCascadesDocuments(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	file, err := f.svc.CreateFile(CreateFileInput{Name: "a.pdf", Author: "user-1"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateDocument(ctx, CreateDocumentInput{
			Content: "some passage",
			FileID:  file.ID,
			Author:  "user-1",
		})
		require.NoError(t, err)
	}
	orphan, err := f.svc.CreateDocument(ctx, CreateDocumentInput{Content: "unrelated", Author: "user-1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteFile(file.ID))

	count, err := f.docs.CountByFileID(file.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.GetFile(file.ID)
	assert.True(t, IsNotFound(err))

	still, err := f.svc.GetDocument(orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, still.ID, "documents of other files survive")

	intents, err := f.intents.List()
	require.NoError(t, err)
	assert.Empty(t, intents, "completed cascade clears its intent")
}

func TestDeleteFileParentFailureIsConsistencyError(t *testing.T) {
	f := newContentFixture(t)
	file, err := f.svc.CreateFile(CreateFileInput{Name: "a.pdf", Author: "user-1"})
	require.NoError(t, err)

	f.files.deleteErr = errors.New("lock wait timeout")
	err = f.svc.DeleteFile(file.ID)
	require.Error(t, err)

	var cerr *ConsistencyError
	assert.ErrorAs(t, err, &cerr)

	intents, listErr := f.intents.List()
	require.NoError(t, listErr)
	assert.Len(t, intents, 1, "intent survives for reconciliation")
}

func TestReconcileDeletionsFinishesInterruptedCascade(t *testing.T) {
	f := newContentFixture(t)
	file, err := f.svc.CreateFile(CreateFileInput{Name: "a.pdf", Author: "user-1"})
	require.NoError(t, err)
	_, err = f.svc.CreateDocument(context.Background(), CreateDocumentInput{
		Content: "passage", FileID: file.ID, Author: "user-1",
	})
	require.NoError(t, err)

	f.files.deleteErr = errors.New("lock wait timeout")
	require.Error(t, f.svc.DeleteFile(file.ID))

	f.files.deleteErr = nil
	require.NoError(t, f.svc.ReconcileDeletions())

	_, err = f.svc.GetFile(file.ID)
	assert.True(t, IsNotFound(err))
	intents, err := f.intents.List()
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestDeleteFileNotFound(t *testing.T) {
	f := newContentFixture(t)
	err := f.svc.DeleteFile("missing")
	assert.True(t, IsNotFound(err))
}

func TestIngestCreatesFileAndDocuments(t *testing.T) {
	f := newContentFixture(t)

	result, err := f.svc.Ingest(context.Background(), IngestInput{
		Author:  "user-1",
		Name:    "handbook.pdf",
		Path:    "handbook.pdf",
		Content: "chunk one\n\nchunk two",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, "handbook.pdf", result.File.Path)

	count, err := f.docs.CountByFileID(result.File.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	docs, _, err := f.svc.ListDocuments(10, 0)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.NotEmpty(t, doc.Embedding)
		assert.Equal(t, result.File.ID, doc.FileID)
	}
}

func TestIngestValidation(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Ingest(context.Background(), IngestInput{})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"author is required", "content is empty"}, verr.Violations)
}

func TestIngestEmbedFailureLeavesFileWithoutDocuments(t *testing.T) {
	f := newContentFixture(t)
	f.embedder.err = errors.New("quota exceeded")

	_, err := f.svc.Ingest(context.Background(), IngestInput{
		Author:  "user-1",
		Name:    "handbook.pdf",
		Content: "text",
	})
	require.Error(t, err)

	files, total, listErr := f.svc.ListFiles("user-1", 10, 0)
	require.NoError(t, listErr)
	assert.EqualValues(t, 1, total)
	count, countErr := f.docs.CountByFileID(files[0].ID)
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestCreateDocumentUnknownFile(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.CreateDocument(context.Background(), CreateDocumentInput{
		Content: "passage",
		FileID:  "missing",
		Author:  "user-1",
	})
	assert.True(t, IsNotFound(err))
}

func TestUpdateDocumentReembedsOnContentChange(t *testing.T) {
	f := newContentFixture(t)
	doc, err := f.svc.CreateDocument(context.Background(), CreateDocumentInput{
		Content: "original passage",
		Author:  "user-1",
	})
	require.NoError(t, err)
	callsBefore := f.embedder.calls

	updated, err := f.svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentInput{
		Content: "a considerably longer replacement passage",
	})
	require.NoError(t, err)
	assert.Greater(t, f.embedder.calls, callsBefore)
	assert.NotEqual(t, doc.Embedding, updated.Embedding)

	callsBefore = f.embedder.calls
	_, err = f.svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentInput{Title: "New Title"})
	require.NoError(t, err)
	assert.Equal(t, callsBefore, f.embedder.calls, "title-only update keeps vector")
}

func TestListDocumentsPagination(t *testing.T) {
	f := newContentFixture(t)
	for i := 0; i < 25; i++ {
		_, err := f.svc.CreateDocument(context.Background(), CreateDocumentInput{
			Content: strings.Repeat("x", i+1),
			Author:  "user-1",
		})
		require.NoError(t, err)
	}

	page, total, err := f.svc.ListDocuments(10, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page, 5)
}
