package omr

import (
	"encoding/json"
	"fmt"
)

// Extraction is the partial schema of a successful model payload. Every field
// is optional: the model's output shape is not contractually guaranteed, so
// absent, null, or oddly-typed fields decode to their zero values instead of
// failing the whole payload.
type Extraction struct {
	StudentName    *string        `json:"student_name"`
	RollNumber     *string        `json:"roll_number"`
	ExamDate       *string        `json:"exam_date"`
	OtherDetails   map[string]any `json:"other_details"`
	Responses      ResponseMap    `json:"responses"`
	AnswerKey      ResponseMap    `json:"answer_key"`
	TotalQuestions int            `json:"total_questions"`
	Description    string         `json:"description"`
}

// DecodeExtraction decodes an isolated payload into the Extraction schema.
func DecodeExtraction(payload json.RawMessage) (*Extraction, error) {
	var ex Extraction
	if err := json.Unmarshal(payload, &ex); err != nil {
		return nil, fmt.Errorf("payload does not match extraction schema: %w", err)
	}
	return &ex, nil
}

// ResponseMap maps question numbers to selected option labels. Models
// occasionally emit numbers or null where a label belongs; those are coerced
// to strings (null becomes "", which downstream counts as unanswered).
type ResponseMap map[string]string

// UnmarshalJSON coerces loosely-typed response values onto strings.
func (m *ResponseMap) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ResponseMap, len(raw))
	for q, v := range raw {
		s, err := coerceString(v)
		if err != nil {
			return fmt.Errorf("response entry %q: %w", q, err)
		}
		out[q] = s
	}
	*m = out
	return nil
}
