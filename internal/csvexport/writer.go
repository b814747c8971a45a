package csvexport

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"omrscan/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Student Name",
	"Roll Number",
	"Exam Date",
	"Correct",
	"Wrong",
	"Unanswered",
	"Total Questions",
	"Percentage",
	"Responses",
	"Processed At",
}

// Writer wraps csv.Writer for exporting scored sheets as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteSheets converts a batch of scored sheets to CSV rows and writes them.
func (w *Writer) WriteSheets(sheets []domain.Sheet) error {
	for i := range sheets {
		row := sheetToRow(&sheets[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// sheetToRow converts one sheet to a row. Absent identity fields export as
// empty cells, and responses are flattened to "1:A; 2:B" in question order.
func sheetToRow(sheet *domain.Sheet) []string {
	row := make([]string, len(columns))

	row[0] = deref(sheet.StudentName)
	row[1] = deref(sheet.RollNumber)
	row[2] = deref(sheet.ExamDate)
	row[3] = strconv.Itoa(sheet.CorrectCount)
	row[4] = strconv.Itoa(sheet.WrongCount)
	row[5] = strconv.Itoa(sheet.UnansweredCount)
	row[6] = strconv.Itoa(sheet.TotalQuestions)
	row[7] = sheet.Percentage
	row[8] = flattenResponses(sheet.Responses)
	row[9] = sheet.CreatedAt.Format(time.RFC3339)

	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// flattenResponses renders the responses JSON as "q:option" pairs sorted
// numerically, falling back to lexical order for non-numeric keys.
func flattenResponses(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var responses map[string]string
	if err := json.Unmarshal(raw, &responses); err != nil {
		return ""
	}

	questions := make([]string, 0, len(responses))
	for q := range responses {
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		a, aerr := strconv.Atoi(questions[i])
		b, berr := strconv.Atoi(questions[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return questions[i] < questions[j]
	})

	out := ""
	for i, q := range questions {
		if i > 0 {
			out += "; "
		}
		out += q + ":" + responses[q]
	}
	return out
}
