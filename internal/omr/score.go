package omr

import (
	"fmt"
	"strings"
)

// ScoredSheet is the derived result of grading one response set against a
// reference key. The pipeline never persists it; that is the caller's job.
type ScoredSheet struct {
	Responses       ResponseMap
	CorrectCount    int
	WrongCount      int
	UnansweredCount int
	TotalQuestions  int
	Percentage      string
}

// Score grades responses against the answer key.
//
// One unanswered policy applies on every path: a response whose value is empty
// or whitespace-only counts as unanswered, and so does a key question with no
// response entry at all. A non-empty response is correct when it equals the
// expected option after trimming and case folding, and wrong otherwise,
// including when the key has no expected answer for that question number.
//
// TotalQuestions is always the key's cardinality, never the response set's,
// and the percentage never divides by zero.
func Score(responses ResponseMap, key Key) ScoredSheet {
	scored := ScoredSheet{
		Responses:      responses,
		TotalQuestions: len(key),
	}

	answered := make(map[string]bool, len(responses))
	for q, value := range responses {
		nq := NormalizeQuestion(q)
		answered[nq] = true

		value = strings.TrimSpace(value)
		if value == "" {
			scored.UnansweredCount++
			continue
		}
		expected, ok := key[nq]
		if ok && strings.EqualFold(value, strings.TrimSpace(expected)) {
			scored.CorrectCount++
		} else {
			scored.WrongCount++
		}
	}

	for q := range key {
		if !answered[q] {
			scored.UnansweredCount++
		}
	}

	percentage := 0.0
	if scored.TotalQuestions > 0 {
		percentage = float64(scored.CorrectCount) / float64(scored.TotalQuestions) * 100
	}
	scored.Percentage = fmt.Sprintf("%.2f%%", percentage)
	return scored
}
