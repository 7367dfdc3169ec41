package app

import (
	"context"

	"ragchat/internal/model"
)

// DocumentSearcher is the vector-similarity slice of the content store.
type DocumentSearcher interface {
	SearchSimilar(query []float32, limit int, certainty float64) ([]model.Document, error)
}

// Context is one retrieved passage handed to the answer engine.
type Context struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

type RetrievalService struct {
	searcher       DocumentSearcher
	embedder       Embedder
	embeddingModel string
	certainty      float64
	topK           int
}

func NewRetrievalService(searcher DocumentSearcher, embedder Embedder, embeddingModel string, certainty float64, topK int) *RetrievalService {
	if certainty <= 0 || certainty > 1 {
		certainty = 0.7
	}
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalService{
		searcher:       searcher,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		certainty:      certainty,
		topK:           topK,
	}
}

// Retrieve returns the ranked passages for a query. An empty result is a
// normal outcome, not an error: it means nothing in the corpus cleared the
// certainty floor, and the answer engine is expected to refuse to speculate.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, limit int) ([]Context, error) {
	if limit <= 0 {
		limit = s.topK
	}

	queryVec, err := s.embedder.Embed(ctx, s.embeddingModel, query)
	if err != nil {
		return nil, &UpstreamError{Op: "embed query", Err: err}
	}

	docs, err := s.searcher.SearchSimilar(queryVec, limit, s.certainty)
	if err != nil {
		return nil, &UpstreamError{Op: "search documents", Err: err}
	}

	contexts := make([]Context, len(docs))
	for i, doc := range docs {
		contexts[i] = Context{
			Title:       doc.Title,
			Content:     doc.Content,
			Description: doc.Description,
		}
	}
	return contexts, nil
}
