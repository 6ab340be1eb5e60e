package scenario

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/drosengarten/bulwark/decorators"
	"github.com/drosengarten/bulwark/frame"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ordersFrame(t *testing.T) *frame.Frame {
	t.Helper()
	df, err := frame.New([]string{"id", "price", "status"},
		[]any{1, 9.5, "open"},
		[]any{2, 12.0, "closed"},
		[]any{3, math.NaN(), "open"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return df
}

func TestAllCasesPass(t *testing.T) {
	s := &Scenario{
		Name: "orders",
		Cases: []Case{
			{Check: "HasColumns", Args: []any{[]any{"id", "price"}}, Expect: "pass"},
			{Check: "HasNoNans", Params: map[string]any{"columns": []any{"id"}}, Expect: "pass"},
			{Check: "HasNoNans", Expect: "fail"},
			{Check: "IsShape", Args: []any{[]any{3, -1}}, Expect: "pass"},
		},
	}

	result := Run(context.Background(), s, ordersFrame(t), Options{})
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
	if result.Passed != 4 {
		t.Errorf("expected 4 passed, got %d", result.Passed)
	}
	if _, err := uuid.Parse(result.ID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", result.ID, err)
	}
}

func TestFailedAssertionDetected(t *testing.T) {
	s := &Scenario{
		Name: "wrong expectation",
		Cases: []Case{
			// price has a NaN, so the check fails but the case expects pass.
			{Check: "HasNoNans", Params: map[string]any{"columns": []any{"price"}}, Expect: "pass"},
		},
	}

	result := Run(context.Background(), s, ordersFrame(t), Options{})
	if result.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", result.Failed)
	}
	c := result.Cases[0]
	if c.Actual != Fail {
		t.Errorf("actual: got %s", c.Actual)
	}
	if !strings.Contains(c.Reason, "price") {
		t.Errorf("reason should name the column: %q", c.Reason)
	}
}

func TestConfigurationErrorsAreErrors(t *testing.T) {
	s := &Scenario{
		Name: "bad config",
		Cases: []Case{
			{Check: "NoSuchCheck", Expect: "error"},
			{Check: "HasNoNans", Params: map[string]any{"colums": []any{"id"}}, Expect: "error"},
			{Check: "HasNoNans", Locate: 1.5, Expect: "error"},
			{Check: "HasNoNans", Locate: "frame", Expect: "error"},
			{Check: "HasNoNans", Locate: 1, Expect: "error"},
			{Check: "IsSameAs", Params: map[string]any{"df_to_compare": map[string]any{"columns": []any{"id"}}}, Expect: "error"},
		},
	}

	result := Run(context.Background(), s, ordersFrame(t), Options{})
	for _, c := range result.Cases {
		if !c.Passed {
			t.Errorf("case %d (%s): expected error, got %s: %s", c.Index, c.Check, c.Actual, c.Reason)
		}
	}
}

func TestLocators(t *testing.T) {
	off := false
	s := &Scenario{
		Name: "locators",
		Cases: []Case{
			{Check: "HasNoNans", Locate: "df", Expect: "fail"},
			{Check: "HasNoNans", Locate: 0, Expect: "fail"},
			{Check: "HasNoNans", Locate: -2, Expect: "fail"},
			{Check: "HasNoNans", Enabled: &off, Expect: "pass"},
		},
	}

	result := Run(context.Background(), s, ordersFrame(t), Options{})
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
	if got := result.Cases[1].Locator; got != "0" {
		t.Errorf("locator string: got %q", got)
	}
	if got := result.Cases[3].Locator; got != "result" {
		t.Errorf("locator string: got %q", got)
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	var events []decorators.Event
	s := &Scenario{
		Name: "observed",
		Cases: []Case{
			{Check: "HasUniqueIndex", Expect: "pass"},
			{Check: "HasNoNans", Expect: "fail"},
		},
	}

	Run(context.Background(), s, ordersFrame(t), Options{
		Observer: func(e decorators.Event) { events = append(events, e) },
	})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Outcome != decorators.OutcomePassed || events[1].Outcome != decorators.OutcomeFailed {
		t.Errorf("outcomes: %s, %s", events[0].Outcome, events[1].Outcome)
	}
}

func TestLoadAndRunFromFile(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "orders.csv", "id,price\n1,9.5\n2,12\n")
	path := writeScenario(t, dir, "test.yaml", `
name: "file test"
data:
  csv: orders.csv
cases:
  - check: HasDtypes
    params:
      items: {id: int64, price: float64}
    expect: pass
  - check: HasValsWithinRange
    args: [{price: [0, 10]}]
    expect: fail
  - check: IsMonotonic
    params: {columns: [id], strict: true}
    locate: df
    expect: pass
`)

	result, err := LoadAndRun(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
	if result.File != path {
		t.Errorf("expected file path set, got %q", result.File)
	}
}

func TestLoadAndRunTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "test.toml", `
name = "toml test"

[data]
columns = ["region", "sales"]
rows = [["north", 10], ["south", 20]]

[[cases]]
check = "HasSetWithinVals"
expect = "pass"
[cases.params.items]
region = ["north", "south", "east"]

[[cases]]
check = "IsShape"
args = [[3, 2]]
expect = "fail"
`)

	result, err := LoadAndRun(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 cases, got %d", result.Total)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
}

func TestLoadAndRunSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "orders.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		"CREATE TABLE orders (id INTEGER, customer TEXT)",
		"INSERT INTO orders VALUES (1, 'a'), (2, 'a'), (3, 'b')",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	path := writeScenario(t, dir, "db.yaml", `
name: "sqlite test"
data:
  sqlite:
    path: orders.db
    query: SELECT id, customer FROM orders ORDER BY id
cases:
  - check: OneToMany
    args: [customer, id]
    expect: pass
  - check: HasNoX
    args: [[b]]
    expect: fail
`)

	result, err := LoadAndRun(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
}

func TestFramesParams(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "expected.csv", "id,price\n1,9.5\n2,12\n")
	writeScenario(t, dir, "other.csv", "id,price\n1,9.5\n")
	path := writeScenario(t, dir, "same.yaml", `
name: "compare"
data:
  csv: expected.csv
cases:
  - check: IsSameAs
    frames:
      df_to_compare: {csv: expected.csv}
    expect: pass
  - check: IsSameAs
    frames:
      df_to_compare: {csv: other.csv}
    expect: fail
  - check: IsSameAs
    frames:
      df_to_compare: {csv: missing.csv}
    expect: error
`)

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	inputs := s.Inputs()
	if len(inputs) != 3 {
		t.Errorf("expected 3 inputs, got %v", inputs)
	}

	result, err := LoadAndRun(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
}

func TestInvalidScenarioYAML(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.yaml", ":::not yaml\x00")

	_, err := LoadAndRun(context.Background(), filepath.Join(dir, "bad.yaml"), Options{})
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestMissingDataSource(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "nodata.yaml", `
name: "no data"
cases:
  - check: HasUniqueIndex
    expect: pass
`)

	if _, err := LoadAndRun(context.Background(), path, Options{}); err == nil {
		t.Error("expected error for scenario without data")
	}
}

func TestEmptyCasesList(t *testing.T) {
	s := &Scenario{
		Name:  "empty",
		Cases: []Case{},
	}

	result := Run(context.Background(), s, ordersFrame(t), Options{})
	if result.Total != 0 {
		t.Errorf("expected 0 total, got %d", result.Total)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failed, got %d", result.Failed)
	}
}

func TestMultipleScenariosViaGlob(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", `
name: "scenario A"
data: {columns: [x], rows: [[1], [2]]}
cases:
  - check: HasUniqueIndex
    expect: pass
`)
	writeScenario(t, dir, "b.yaml", `
name: "scenario B"
data: {columns: [x], rows: [[1], [1]]}
cases:
  - check: IsMonotonic
    params: {strict: true}
    expect: fail
`)

	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	totalPassed := 0
	for _, m := range matches {
		r, err := LoadAndRun(context.Background(), m, Options{})
		if err != nil {
			t.Fatal(err)
		}
		totalPassed += r.Passed
	}
	if totalPassed != 2 {
		t.Errorf("expected 2 total passed across scenarios, got %d", totalPassed)
	}
}
