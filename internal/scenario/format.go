package scenario

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// FormatText renders a list of run results as human-readable text.
func FormatText(results []*RunResult) string {
	var b strings.Builder

	totalFiles := len(results)
	fmt.Fprintf(&b, "Checking %d scenario file", totalFiles)
	if totalFiles != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	totalCases := 0
	totalPassed := 0
	failedScenarios := 0

	for _, r := range results {
		totalCases += r.Total
		totalPassed += r.Passed

		if r.Failed == 0 {
			fmt.Fprintf(&b, "  PASS  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
			continue
		}
		failedScenarios++
		fmt.Fprintf(&b, "  FAIL  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
		for _, c := range r.Cases {
			if c.Passed {
				continue
			}
			fmt.Fprintf(&b, "    FAIL  case %d: %-24s %-12s expected %s, got %s\n",
				c.Index, c.Check, c.Locator, c.Expected, c.Actual)
			if c.Reason != "" {
				fmt.Fprintf(&b, "          %s\n", truncate(c.Reason, 100))
			}
		}
	}

	fmt.Fprintf(&b, "\n%d of %d cases passed.", totalPassed, totalCases)
	if failedScenarios > 0 {
		fmt.Fprintf(&b, " %d of %d scenarios failed.", failedScenarios, totalFiles)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders run results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}

// FormatTable renders one row per case.
func FormatTable(results []*RunResult) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.Header("Scenario", "Case", "Check", "Locator", "Expected", "Actual", "Result")
	for _, r := range results {
		for _, c := range r.Cases {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			table.Append([]string{
				r.Name,
				strconv.Itoa(c.Index),
				c.Check,
				c.Locator,
				c.Expected,
				c.Actual,
				status,
			})
		}
	}
	table.Render()
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
