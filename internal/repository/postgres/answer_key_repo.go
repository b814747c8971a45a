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

type answerKeyRepo struct {
	db *sqlx.DB
}

// NewAnswerKeyRepo creates a new PostgreSQL-backed AnswerKeyRepository.
func NewAnswerKeyRepo(db *sqlx.DB) port.AnswerKeyRepository {
	return &answerKeyRepo{db: db}
}

func (r *answerKeyRepo) Create(ctx context.Context, key *domain.AnswerKey) error {
	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now

	query := `INSERT INTO answer_keys
		(id, name, description, answer_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		key.ID, key.Name, key.Description, key.AnswerKey, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		return fmt.Errorf("answerKeyRepo.Create: %w", err)
	}
	return nil
}

func (r *answerKeyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnswerKey, error) {
	var key domain.AnswerKey
	err := r.db.GetContext(ctx, &key, "SELECT * FROM answer_keys WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnswerKeyNotFound
		}
		return nil, fmt.Errorf("answerKeyRepo.GetByID: %w", err)
	}
	return &key, nil
}

func (r *answerKeyRepo) List(ctx context.Context, offset, limit int) ([]domain.AnswerKey, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM answer_keys"); err != nil {
		return nil, 0, fmt.Errorf("answerKeyRepo.List count: %w", err)
	}

	var keys []domain.AnswerKey
	err := r.db.SelectContext(ctx, &keys,
		"SELECT * FROM answer_keys ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("answerKeyRepo.List: %w", err)
	}
	return keys, total, nil
}

func (r *answerKeyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM answer_keys WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("answerKeyRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrAnswerKeyNotFound
	}
	return nil
}
