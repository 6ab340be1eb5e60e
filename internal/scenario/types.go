package scenario

// SQLSource reads a frame from a SQLite database.
type SQLSource struct {
	Path  string `yaml:"path" toml:"path"`
	Query string `yaml:"query" toml:"query"`
}

// DataSource names where a frame comes from. Exactly one of CSV, SQLite
// or Columns is set. Paths are relative to the scenario file.
type DataSource struct {
	CSV     string     `yaml:"csv,omitempty" toml:"csv,omitempty"`
	SQLite  *SQLSource `yaml:"sqlite,omitempty" toml:"sqlite,omitempty"`
	Columns []string   `yaml:"columns,omitempty" toml:"columns,omitempty"`
	Rows    [][]any    `yaml:"rows,omitempty" toml:"rows,omitempty"`
}

// Case is one check applied to the scenario data.
type Case struct {
	Check   string                `yaml:"check" toml:"check"`
	Args    []any                 `yaml:"args,omitempty" toml:"args,omitempty"`
	Params  map[string]any        `yaml:"params,omitempty" toml:"params,omitempty"`
	Frames  map[string]DataSource `yaml:"frames,omitempty" toml:"frames,omitempty"`
	Locate  any                   `yaml:"locate,omitempty" toml:"locate,omitempty"`
	Enabled *bool                 `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Expect  string                `yaml:"expect" toml:"expect"`
	Purpose string                `yaml:"purpose,omitempty" toml:"purpose,omitempty"`
}

// Scenario is a named collection of checks against one data set.
type Scenario struct {
	Name  string     `yaml:"name" toml:"name"`
	Data  DataSource `yaml:"data" toml:"data"`
	Cases []Case     `yaml:"cases" toml:"cases"`

	dir string
}

// Case outcomes.
const (
	Pass  = "pass"
	Fail  = "fail"
	Error = "error"
)

// CaseResult is the outcome of evaluating one case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Check    string `json:"check"`
	Locator  string `json:"locator"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	ID     string       `json:"id"`
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
