package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"omrscan/internal/config"
	"omrscan/internal/domain"
	"omrscan/internal/omr"
	"omrscan/internal/port"
)

// AnswerKeyCreateInput is the DTO for creating an answer key from a
// photographed key sheet.
type AnswerKeyCreateInput struct {
	Name        string
	Description string
	Image       []byte
}

// AnswerKeyService defines the answer key management contract.
type AnswerKeyService interface {
	CreateFromImage(ctx context.Context, input AnswerKeyCreateInput) (*domain.AnswerKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnswerKey, error)
	List(ctx context.Context, offset, limit int) ([]domain.AnswerKey, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type answerKeyService struct {
	keyRepo   port.AnswerKeyRepository
	processor *omr.Processor
	cfg       *config.S3Config
}

// NewAnswerKeyService creates a new AnswerKeyService implementation.
func NewAnswerKeyService(keyRepo port.AnswerKeyRepository, processor *omr.Processor, cfg *config.S3Config) AnswerKeyService {
	return &answerKeyService{keyRepo: keyRepo, processor: processor, cfg: cfg}
}

func (s *answerKeyService) CreateFromImage(ctx context.Context, input AnswerKeyCreateInput) (*domain.AnswerKey, error) {
	contentType, err := validateImage(input.Image, s.cfg.MaxFileSizeMB)
	if err != nil {
		return nil, err
	}

	log.Printf("answerKeyService.CreateFromImage: extracting key %q from %d bytes", input.Name, len(input.Image))

	res := s.processor.Process(ctx, input.Image, contentType, omr.AnswerKeySheet(), nil)
	if res.Failed() {
		return nil, failureToError(res.Failure)
	}

	if len(res.Extraction.AnswerKey) == 0 {
		return nil, fmt.Errorf("%w: model found no marked answers", domain.ErrInvalidAnswerKey)
	}

	encoded, err := json.Marshal(res.Extraction.AnswerKey)
	if err != nil {
		return nil, fmt.Errorf("encoding answer key: %w", err)
	}

	description := input.Description
	if description == "" {
		description = res.Extraction.Description
	}

	key := &domain.AnswerKey{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: description,
		AnswerKey:   encoded,
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	log.Printf("answerKeyService.CreateFromImage: created key %s with %d answers",
		key.ID, len(res.Extraction.AnswerKey))
	return key, nil
}

func (s *answerKeyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnswerKey, error) {
	return s.keyRepo.GetByID(ctx, id)
}

func (s *answerKeyService) List(ctx context.Context, offset, limit int) ([]domain.AnswerKey, int, error) {
	return s.keyRepo.List(ctx, offset, limit)
}

func (s *answerKeyService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.keyRepo.Delete(ctx, id)
}

// failureToError maps a region failure onto the domain error taxonomy for
// single-invocation paths, where the failure is fatal for the request.
func failureToError(f *omr.Failure) error {
	switch f.Kind {
	case omr.FailureUnavailable:
		return fmt.Errorf("%w: %s", port.ErrVisionUnavailable, f.Message)
	default:
		return fmt.Errorf("%w: %s", domain.ErrExtractionFailed, f.Message)
	}
}
