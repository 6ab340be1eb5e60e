package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drosengarten/bulwark/decorators"
	"github.com/drosengarten/bulwark/internal/audit"
	"github.com/drosengarten/bulwark/internal/metrics"
	"github.com/drosengarten/bulwark/internal/scenario"
)

var (
	checkScenario string
	checkWatch    bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkScenario, "scenario", "", "Glob pattern for scenario YAML or TOML files (required)")
	checkCmd.Flags().StringP("format", "f", "text", "Output format (text|json|table)")
	checkCmd.Flags().String("metrics-file", "", "Write Prometheus metrics for the run to this file")
	checkCmd.Flags().String("audit-log", "", "Append every check event to this hash-chained JSONL log")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "Re-run when scenario or data files change")
	_ = checkCmd.MarkFlagRequired("scenario")
	_ = viper.BindPFlag("format", checkCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("metrics-file", checkCmd.Flags().Lookup("metrics-file"))
	_ = viper.BindPFlag("audit-log", checkCmd.Flags().Lookup("audit-log"))
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run data checks from scenario files",
	Long: "Loads scenario files matching a glob pattern, wraps a pass-through\n" +
		"function with each case's check, calls it with the scenario data\n" +
		"and compares the outcome with the expected one.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.",
	RunE: runCheck,
}

// errCasesFailed makes the command exit non-zero after a full report.
type errCasesFailed struct{ failed, total int }

func (e errCasesFailed) Error() string {
	return fmt.Sprintf("%d of %d scenarios failed", e.failed, e.total)
}

func runCheck(cmd *cobra.Command, args []string) error {
	format := viper.GetString("format")
	switch format {
	case "text", "json", "table":
	default:
		return fmt.Errorf("unknown format %q (want text, json or table)", format)
	}

	matches, err := filepath.Glob(checkScenario)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no scenario files match pattern: %s", checkScenario)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}
	metricsFile := viper.GetString("metrics-file")

	var auditLog *audit.Log
	if path := viper.GetString("audit-log"); path != "" {
		auditLog, err = audit.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = auditLog.Close() }()
	}

	runAll := func(ctx context.Context) ([]*scenario.RunResult, error) {
		opts := scenario.Options{RunID: uuid.NewString(), Observer: collector.Observe}
		if auditLog != nil {
			opts.Observer = decorators.Observers(collector.Observe, auditLog.Observer(opts.RunID))
		}

		var results []*scenario.RunResult
		for _, path := range matches {
			r, err := scenario.LoadAndRun(ctx, path, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			results = append(results, r)
		}
		if auditLog != nil {
			if err := auditLog.TakeErr(); err != nil {
				return nil, err
			}
		}
		if metricsFile != "" {
			if err := metrics.WriteFile(metricsFile, reg); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	out := cmd.OutOrStdout()
	if !checkWatch {
		results, err := runAll(cmd.Context())
		if err != nil {
			return err
		}
		if err := report(out, format, results); err != nil {
			return err
		}
		return failures(results)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rerun := func() {
		results, err := runAll(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "check: %v\n", err)
			return
		}
		if err := report(out, format, results); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "check: %v\n", err)
		}
	}
	rerun()

	paths := append([]string(nil), matches...)
	for _, path := range matches {
		s, err := scenario.Load(path)
		if err != nil {
			continue
		}
		paths = append(paths, s.Inputs()...)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d files, Ctrl-C to stop\n", len(paths))
	return scenario.Watch(ctx, paths, rerun)
}

func report(w io.Writer, format string, results []*scenario.RunResult) error {
	switch format {
	case "json":
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	case "table":
		_, err := fmt.Fprint(w, scenario.FormatTable(results))
		return err
	}
	_, err := fmt.Fprint(w, scenario.FormatText(results))
	return err
}

func failures(results []*scenario.RunResult) error {
	failed := 0
	for _, r := range results {
		if r.Failed > 0 {
			failed++
		}
	}
	if failed > 0 {
		return errCasesFailed{failed: failed, total: len(results)}
	}
	return nil
}
