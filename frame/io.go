package frame

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReadCSV reads a frame from CSV with a header row. Empty fields are nil.
// Each column is parsed as int64, float64 or bool when every non-empty
// field parses as that type, and kept as string otherwise. NaN and Inf
// are accepted as floats.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("frame: csv has no header row")
		}
		return nil, fmt.Errorf("frame: read csv header: %w", err)
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("frame: read csv: %w", err)
	}

	data := make([][]any, len(header))
	for c := range header {
		raw := make([]string, len(records))
		for r, rec := range records {
			raw[r] = rec[c]
		}
		data[c] = parseColumn(raw)
	}
	return build(header, data)
}

func parseColumn(raw []string) []any {
	parsers := []func(string) (any, bool){parseInt, parseFloat, parseBool}
	for _, parse := range parsers {
		if out, ok := parseAll(raw, parse); ok {
			return out
		}
	}
	out, _ := parseAll(raw, func(s string) (any, bool) { return s, true })
	return out
}

func parseAll(raw []string, parse func(string) (any, bool)) ([]any, bool) {
	out := make([]any, len(raw))
	for i, s := range raw {
		if s == "" {
			continue
		}
		v, ok := parse(s)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseInt(s string) (any, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

func parseFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func parseBool(s string) (any, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}

// ReadSQL runs query and collects the result set into a frame. NULLs are
// nil; []byte values become strings and times RFC 3339 strings.
func ReadSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*Frame, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("frame: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("frame: columns: %w", err)
	}

	data := make([][]any, len(columns))
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("frame: scan: %w", err)
		}
		for i, v := range cells {
			switch x := v.(type) {
			case []byte:
				v = string(x)
			case time.Time:
				v = x.Format(time.RFC3339Nano)
			}
			cell, err := normalize(v)
			if err != nil {
				return nil, fmt.Errorf("frame: column %q: %w", columns[i], err)
			}
			data[i] = append(data[i], cell)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("frame: rows: %w", err)
	}
	for i := range data {
		if data[i] == nil {
			data[i] = []any{}
		}
	}
	return build(columns, data)
}
