// Command seedkey converts an answer key Excel file into a SQL seed file.
// The first sheet must have a question number in column A and the correct
// option in column B, one question per row, with an optional header row.
// Usage: go run ./cmd/seedkey <key.xlsx> <key name>
// Output: db/seeds/answer_keys.sql
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: seedkey <key.xlsx> <key name>")
	}
	xlsxPath := os.Args[1]
	keyName := os.Args[2]
	outPath := "db/seeds/answer_keys.sql"

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	key, err := parseKeySheet(f)
	if err != nil {
		return fmt.Errorf("parse key sheet: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("no question rows found in %s", xlsxPath)
	}

	encoded, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	lines := []string{
		"-- Answer key seed data generated from Excel.",
		fmt.Sprintf("-- %d questions from %s.", len(key), xlsxPath),
		"BEGIN;",
		"",
		fmt.Sprintf(
			"INSERT INTO answer_keys (id, name, description, answer_key) VALUES ('%s', '%s', '', '%s');",
			uuid.New(), sqlEscape(keyName), sqlEscape(string(encoded)),
		),
		"",
		"COMMIT;",
	}
	for _, line := range lines {
		if _, werr := fmt.Fprintln(out, line); werr != nil {
			return fmt.Errorf("write seed file: %w", werr)
		}
	}

	log.Printf("Generated %q with %d questions in %s", keyName, len(key), outPath)
	return nil
}

// parseKeySheet reads question/answer pairs from the first sheet. Rows whose
// first cell is not a number are skipped, which also drops header rows.
func parseKeySheet(f *excelize.File) (map[string]string, error) {
	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	key := make(map[string]string)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		q := strings.TrimSpace(row[0])
		a := strings.ToUpper(strings.TrimSpace(row[1]))
		n, err := strconv.Atoi(q)
		if err != nil || a == "" {
			continue
		}
		key[strconv.Itoa(n)] = a
	}
	return key, nil
}

func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
