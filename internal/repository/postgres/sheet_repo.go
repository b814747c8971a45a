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

type sheetRepo struct {
	db *sqlx.DB
}

// NewSheetRepo creates a new PostgreSQL-backed SheetRepository.
func NewSheetRepo(db *sqlx.DB) port.SheetRepository {
	return &sheetRepo{db: db}
}

func (r *sheetRepo) Create(ctx context.Context, sheet *domain.Sheet) error {
	sheet.CreatedAt = time.Now().UTC()

	query := `INSERT INTO sheets
		(id, template_id, student_name, roll_number, exam_date, other_details, responses,
		 image_bucket, image_key, correct_count, wrong_count, unanswered_count,
		 total_questions, percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		sheet.ID, sheet.TemplateID, sheet.StudentName, sheet.RollNumber, sheet.ExamDate,
		sheet.OtherDetails, sheet.Responses, sheet.ImageBucket, sheet.ImageKey,
		sheet.CorrectCount, sheet.WrongCount, sheet.UnansweredCount,
		sheet.TotalQuestions, sheet.Percentage, sheet.CreatedAt)
	if err != nil {
		return fmt.Errorf("sheetRepo.Create: %w", err)
	}
	return nil
}

func (r *sheetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error) {
	var sheet domain.Sheet
	err := r.db.GetContext(ctx, &sheet, "SELECT * FROM sheets WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSheetNotFound
		}
		return nil, fmt.Errorf("sheetRepo.GetByID: %w", err)
	}
	return &sheet, nil
}

func (r *sheetRepo) List(ctx context.Context, offset, limit int) ([]domain.Sheet, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sheets"); err != nil {
		return nil, 0, fmt.Errorf("sheetRepo.List count: %w", err)
	}

	var sheets []domain.Sheet
	err := r.db.SelectContext(ctx, &sheets,
		"SELECT * FROM sheets ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sheetRepo.List: %w", err)
	}
	return sheets, total, nil
}

func (r *sheetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sheets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("sheetRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSheetNotFound
	}
	return nil
}
