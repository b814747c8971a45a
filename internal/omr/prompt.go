package omr

import (
	"encoding/json"
	"fmt"
)

// buildPrompt returns the extraction instructions for a region variant,
// appending the reference answer key when one is supplied. Layout hints in the
// ranged prompt materially affect extraction accuracy and must stay in sync
// with the sheet design the frontend crops against.
func buildPrompt(v Variant, refKey Key) string {
	var prompt string
	switch v.Kind {
	case VariantIdentityOnly:
		prompt = identityPrompt
	case VariantQuestionRange:
		count := v.End - v.Start + 1
		prompt = fmt.Sprintf(rangePromptFmt, v.Start, v.End, count)
	case VariantAnswerKey:
		prompt = answerKeyPrompt
	default:
		prompt = fullSheetPrompt
	}

	if len(refKey) > 0 && v.Kind != VariantIdentityOnly {
		if encoded, err := json.Marshal(refKey); err == nil {
			prompt += "\n\nReference answer key (for context only, do not copy from it): " + string(encoded)
		}
	}
	return prompt
}

const fullSheetPrompt = `Analyze this OMR (Optical Mark Recognition) answer sheet image and extract the following information:

1. Student/Exam details:
   - Name
   - Roll number
   - Exam date (if visible)
   - Any other identifying information

2. Question responses:
   - For each question, identify which option (A, B, C, D, ...) is marked
   - If no option is marked, use an empty string for that question

Return ONLY a JSON object with this structure:
{
  "student_name": "extracted name or null",
  "roll_number": "extracted roll number or null",
  "exam_date": "extracted date or null",
  "other_details": {},
  "responses": {
    "1": "A",
    "2": "B"
  }
}

Focus on accuracy. Check grey-scale shading carefully; a partially filled bubble still counts as marked.`

const identityPrompt = `Extract ONLY the student's name (and roll number and exam date if clearly present) from this cropped exam sheet region.

Return strict JSON:
{
  "student_name": string | null,
  "roll_number": string | null,
  "exam_date": string | null
}

If uncertain about a field, use null.`

const rangePromptFmt = `Analyze this cropped OMR sheet region containing questions %d through %d. That is %d questions, arranged in one or more vertical columns and numbered top to bottom within each column. This is an OMR sheet: check the grey-scale shading of each bubble carefully and report the marked option.

Return strict JSON with a "responses" object mapping each question number to its selected option letter, using an empty string when no option is marked:
{
  "responses": {
    "%%d": "A"
  }
}

Report only questions in the stated range.`

const answerKeyPrompt = `Analyze this OMR sheet image which contains the answer key (the correct answers).

Extract every marked answer and return ONLY a JSON object:
{
  "answer_key": {
    "1": "A",
    "2": "B"
  },
  "total_questions": <number>,
  "description": "brief description if visible"
}

Return only valid JSON.`
