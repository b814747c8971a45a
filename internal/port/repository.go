package port

import (
	"context"

	"github.com/google/uuid"

	"omrscan/internal/domain"
)

// TemplateRepository defines the contract for answer-key template persistence.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *domain.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
	GetByName(ctx context.Context, name string) (*domain.Template, error)
	List(ctx context.Context, offset, limit int) ([]domain.Template, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnswerKeyRepository defines the contract for answer key persistence.
type AnswerKeyRepository interface {
	Create(ctx context.Context, key *domain.AnswerKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnswerKey, error)
	List(ctx context.Context, offset, limit int) ([]domain.AnswerKey, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SheetRepository defines the contract for scored sheet persistence.
type SheetRepository interface {
	Create(ctx context.Context, sheet *domain.Sheet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error)
	List(ctx context.Context, offset, limit int) ([]domain.Sheet, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
