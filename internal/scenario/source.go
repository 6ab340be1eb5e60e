package scenario

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/drosengarten/bulwark/frame"
)

var errNoSource = errors.New("data source must set one of csv, sqlite or columns")

// Frame loads the frame the source describes. Relative paths resolve
// against dir.
func (d DataSource) Frame(ctx context.Context, dir string) (*frame.Frame, error) {
	set := 0
	if d.CSV != "" {
		set++
	}
	if d.SQLite != nil {
		set++
	}
	if len(d.Columns) > 0 {
		set++
	}
	if set != 1 {
		return nil, errNoSource
	}

	switch {
	case d.CSV != "":
		f, err := os.Open(resolve(dir, d.CSV))
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer func() { _ = f.Close() }()
		df, err := frame.ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", d.CSV, err)
		}
		return df, nil

	case d.SQLite != nil:
		if d.SQLite.Query == "" {
			return nil, fmt.Errorf("sqlite source %s: no query", d.SQLite.Path)
		}
		path := resolve(dir, d.SQLite.Path)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", d.SQLite.Path, err)
		}
		defer func() { _ = db.Close() }()
		df, err := frame.ReadSQL(ctx, db, d.SQLite.Query)
		if err != nil {
			return nil, fmt.Errorf("query sqlite %s: %w", d.SQLite.Path, err)
		}
		return df, nil
	}

	df, err := frame.New(d.Columns, d.Rows...)
	if err != nil {
		return nil, fmt.Errorf("inline data: %w", err)
	}
	return df, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func (d DataSource) file(dir string) string {
	switch {
	case d.CSV != "":
		return resolve(dir, d.CSV)
	case d.SQLite != nil:
		return resolve(dir, d.SQLite.Path)
	}
	return ""
}

// Inputs returns the data files s reads, in case order and without
// duplicates.
func (s *Scenario) Inputs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d DataSource) {
		if p := d.file(s.dir); p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(s.Data)
	for _, c := range s.Cases {
		for _, name := range sortedNames(c.Frames) {
			add(c.Frames[name])
		}
	}
	return out
}

func sortedNames(m map[string]DataSource) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
