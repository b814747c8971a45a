package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"omrscan/internal/domain"
	"omrscan/internal/omr"
	"omrscan/internal/port"
)

// TemplateCreateInput is the DTO for template creation requests.
type TemplateCreateInput struct {
	Name           string
	Description    string
	TotalQuestions int
	AnswerKey      json.RawMessage
}

// TemplateService defines the answer-key template management contract.
type TemplateService interface {
	Create(ctx context.Context, input TemplateCreateInput) (*domain.Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
	List(ctx context.Context, offset, limit int) ([]domain.Template, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateService struct {
	templateRepo port.TemplateRepository
}

// NewTemplateService creates a new TemplateService implementation.
func NewTemplateService(templateRepo port.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) Create(ctx context.Context, input TemplateCreateInput) (*domain.Template, error) {
	key, err := omr.ParseKey(input.AnswerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnswerKey, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: no entries", domain.ErrInvalidAnswerKey)
	}

	totalQuestions := input.TotalQuestions
	if totalQuestions == 0 {
		totalQuestions = len(key)
	}

	tpl := &domain.Template{
		ID:             uuid.New(),
		Name:           input.Name,
		Description:    input.Description,
		TotalQuestions: totalQuestions,
		AnswerKey:      input.AnswerKey,
	}

	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	log.Printf("templateService.Create: created template %s (%d questions)", tpl.ID, tpl.TotalQuestions)
	return tpl, nil
}

func (s *templateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	return s.templateRepo.GetByID(ctx, id)
}

func (s *templateService) List(ctx context.Context, offset, limit int) ([]domain.Template, int, error) {
	return s.templateRepo.List(ctx, offset, limit)
}

func (s *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.templateRepo.Delete(ctx, id)
}
