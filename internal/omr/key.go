package omr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key is a reference answer key: question number (normalized string) mapped to
// the expected option label. The pipeline only ever reads it.
type Key map[string]string

// ParseKey decodes a stored answer-key payload into a Key. Question numbers
// and options both arrive from heterogeneous sources (model output, Excel
// imports, caller JSON) so values may be JSON strings or numbers; anything
// else is rejected.
func ParseKey(raw json.RawMessage) (Key, error) {
	if len(raw) == 0 {
		return Key{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding answer key: %w", err)
	}
	key := make(Key, len(m))
	for q, v := range m {
		label, err := coerceString(v)
		if err != nil {
			return nil, fmt.Errorf("answer key entry %q: %w", q, err)
		}
		key[NormalizeQuestion(q)] = label
	}
	return key, nil
}

// NormalizeQuestion maps the different spellings of a question number
// ("7", " 7 ", "07", 7.0 rendered as "7") onto one canonical string so lookups
// across sources agree.
func NormalizeQuestion(q string) string {
	q = strings.TrimSpace(q)
	if n, err := strconv.Atoi(q); err == nil {
		return strconv.Itoa(n)
	}
	return q
}

func coerceString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), nil
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
