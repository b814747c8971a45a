package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"omrscan/internal/domain"
	"omrscan/internal/port"
)

type templateRepo struct {
	db *sqlx.DB
}

// NewTemplateRepo creates a new PostgreSQL-backed TemplateRepository.
func NewTemplateRepo(db *sqlx.DB) port.TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, tpl *domain.Template) error {
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := `INSERT INTO templates
		(id, name, description, total_questions, answer_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		tpl.ID, tpl.Name, tpl.Description, tpl.TotalQuestions, tpl.AnswerKey,
		tpl.CreatedAt, tpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("templateRepo.Create: %w", err)
	}
	return nil
}

func (r *templateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	var tpl domain.Template
	err := r.db.GetContext(ctx, &tpl, "SELECT * FROM templates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("templateRepo.GetByID: %w", err)
	}
	return &tpl, nil
}

func (r *templateRepo) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	var tpl domain.Template
	err := r.db.GetContext(ctx, &tpl, "SELECT * FROM templates WHERE name = $1", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("templateRepo.GetByName: %w", err)
	}
	return &tpl, nil
}

func (r *templateRepo) List(ctx context.Context, offset, limit int) ([]domain.Template, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM templates"); err != nil {
		return nil, 0, fmt.Errorf("templateRepo.List count: %w", err)
	}

	var templates []domain.Template
	err := r.db.SelectContext(ctx, &templates,
		"SELECT * FROM templates ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("templateRepo.List: %w", err)
	}
	return templates, total, nil
}

func (r *templateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("templateRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
