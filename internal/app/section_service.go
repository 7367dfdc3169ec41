package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/model"
)

type SectionStore interface {
	Create(section *model.Section) error
	GetByID(id string) (*model.Section, error)
	ListByAuthor(author string, limit, offset int) ([]model.Section, int64, error)
	Update(id string, fields map[string]interface{}) (bool, error)
	DeleteByID(id string) (bool, error)
}

type MessageStore interface {
	CreateBatch(messages []model.Message) error
	ListBySectionID(sectionID string, limit int) ([]model.Message, error)
	DeleteBySectionID(sectionID string) error
}

// Summarizer derives a section title when the caller supplied none.
type Summarizer interface {
	Summarize(ctx context.Context, turns []Turn, language string) (string, error)
}

type SectionService struct {
	sections   SectionStore
	messages   MessageStore
	summarizer Summarizer
	logger     *zap.Logger
}

func NewSectionService(sections SectionStore, messages MessageStore, summarizer Summarizer, logger *zap.Logger) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{
		sections:   sections,
		messages:   messages,
		summarizer: summarizer,
		logger:     logger,
	}
}

type CreateSectionInput struct {
	ID       string
	Title    string
	Order    int
	Author   string
	Language string
	Seed     []Turn
}

// Create persists a section and re-reads it to return the canonical object.
// An empty title is derived from the seed messages; the title is never empty
// after creation.
func (s *SectionService) Create(ctx context.Context, input CreateSectionInput) (*model.Section, error) {
	if strings.TrimSpace(input.Author) == "" {
		return nil, NewValidationError("author is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		generated, err := s.summarizer.Summarize(ctx, input.Seed, input.Language)
		if err != nil {
			s.logger.Warn("title summarization failed, using fallback", zap.Error(err))
		}
		title = strings.TrimSpace(generated)
		if title == "" {
			title = fallbackTitle(input.Seed)
		}
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	section := &model.Section{
		ID:        id,
		Title:     title,
		Order:     input.Order,
		Author:    strings.TrimSpace(input.Author),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sections.Create(section); err != nil {
		return nil, &UpstreamError{Op: "create section", Err: err}
	}

	created, err := s.sections.GetByID(section.ID)
	if err != nil {
		return nil, &UpstreamError{Op: "read back section", Err: err}
	}
	if created == nil {
		return nil, &NotFoundError{Resource: "section", ID: section.ID}
	}
	return created, nil
}

func (s *SectionService) Get(id string) (*model.Section, error) {
	section, err := s.sections.GetByID(id)
	if err != nil {
		return nil, &UpstreamError{Op: "get section", Err: err}
	}
	if section == nil {
		return nil, &NotFoundError{Resource: "section", ID: id}
	}
	return section, nil
}

// List returns the author's sections newest first, plus the total count.
func (s *SectionService) List(author string, limit, offset int) ([]model.Section, int64, error) {
	if strings.TrimSpace(author) == "" {
		return nil, 0, NewValidationError("author is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	sections, total, err := s.sections.ListByAuthor(author, limit, offset)
	if err != nil {
		return nil, 0, &UpstreamError{Op: "list sections", Err: err}
	}
	return sections, total, nil
}

type UpdateSectionInput struct {
	Title string
	Order *int
}

// Update merges the supplied fields and reports whether the section existed.
func (s *SectionService) Update(id string, input UpdateSectionInput) bool {
	fields := map[string]interface{}{"updated_at": time.Now()}
	if title := strings.TrimSpace(input.Title); title != "" {
		fields["title"] = title
	}
	if input.Order != nil {
		fields["sort_order"] = *input.Order
	}

	ok, err := s.sections.Update(id, fields)
	if err != nil {
		s.logger.Error("update section failed", zap.String("section_id", id), zap.Error(err))
		return false
	}
	return ok
}

// Delete removes the section and its messages, and reports whether the
// section existed. Messages are cascaded deliberately: a transcript without
// its section is unreachable by any caller.
func (s *SectionService) Delete(id string) bool {
	if err := s.messages.DeleteBySectionID(id); err != nil {
		s.logger.Error("delete section messages failed", zap.String("section_id", id), zap.Error(err))
		return false
	}
	ok, err := s.sections.DeleteByID(id)
	if err != nil {
		s.logger.Error("delete section failed", zap.String("section_id", id), zap.Error(err))
		return false
	}
	return ok
}

func fallbackTitle(seed []Turn) string {
	for _, turn := range seed {
		if turn.Role == model.RoleUser {
			if title := cleanTitle(turn.Content); title != "" {
				return title
			}
		}
	}
	return "New Conversation"
}
