package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Template represents a named answer-key template that sheets are graded against.
type Template struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	TotalQuestions int             `db:"total_questions" json:"total_questions"`
	AnswerKey      json.RawMessage `db:"answer_key" json:"answer_key"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// AnswerKey represents a stored reference answer set, usually extracted from a
// photographed key sheet.
type AnswerKey struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	AnswerKey   json.RawMessage `db:"answer_key" json:"answer_key"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Sheet represents one processed and scored answer sheet.
// Identity fields are pointers: nil means the value was absent from every
// source; empty strings are never stored.
type Sheet struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	TemplateID      uuid.UUID       `db:"template_id" json:"template_id"`
	StudentName     *string         `db:"student_name" json:"student_name"`
	RollNumber      *string         `db:"roll_number" json:"roll_number"`
	ExamDate        *string         `db:"exam_date" json:"exam_date"`
	OtherDetails    json.RawMessage `db:"other_details" json:"other_details"`
	Responses       json.RawMessage `db:"responses" json:"responses"`
	ImageBucket     string          `db:"image_bucket" json:"-"`
	ImageKey        string          `db:"image_key" json:"-"`
	ImageURL        string          `db:"-" json:"image_url,omitempty"`
	CorrectCount    int             `db:"correct_count" json:"correct_count"`
	WrongCount      int             `db:"wrong_count" json:"wrong_count"`
	UnansweredCount int             `db:"unanswered_count" json:"unanswered_count"`
	TotalQuestions  int             `db:"total_questions" json:"total_questions"`
	Percentage      string          `db:"percentage" json:"percentage"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
