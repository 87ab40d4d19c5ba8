// cmd/run.go

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/engine"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/report"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/utils"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// newRunCmd creates the run subcommand
func newRunCmd(opts *options) *cobra.Command {
	var (
		archive string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run rules on this host or an extracted archive",
		Long: `Evaluates the health-check rules against the local host, or against an
extracted sosreport or Insights archive when --archive is given.

With --format text an AsciiDoc report is written. With json or yaml the
results are printed to stdout, and a report is only written when --output
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChecks(cmd, opts, archive, format)
		},
	}

	cmd.Flags().StringVarP(&archive, "archive", "a", "", "Extracted sosreport or Insights archive directory")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text|json|yaml)")

	return cmd
}

// openContext returns the fact source for a run
func openContext(ctx context.Context, archive string) (facts.Context, error) {
	if archive != "" {
		a, err := facts.OpenArchive(archive)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	if !utils.RunningAsRoot() {
		log.WithContext(ctx).Warn("not running as root, some facts may be unreadable")
	}
	return facts.NewHostContext(utils.NewLocalExecutor(ctx)), nil
}

// runChecks evaluates the selected rules against one context and reports
// the results
func runChecks(cmd *cobra.Command, opts *options, archive, format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q: expected text, json or yaml", format)
	}
	if format == formatText || opts.outputFile != "" {
		if err := opts.checkCompression(); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if d := opts.collectTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	logger := log.WithContext(ctx)

	rs, err := opts.selectedRules()
	if err != nil {
		return err
	}

	source, err := openContext(ctx, archive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var (
		engineOpts []engine.Option
		bar        *progressbar.ProgressBar
	)
	if format == formatText {
		fmt.Fprintf(out, "Starting health check of %s (%s)...\n", source.Hostname(), source.Kind())
		bar = newProgressBar(cmd.ErrOrStderr(), len(rs), "Evaluating rules")
		engineOpts = append(engineOpts, engine.WithResultHook(func(engine.Result) {
			_ = bar.Add(1)
		}))
	}

	run, err := engine.New(rs, engineOpts...).Run(ctx, source)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	logger.Info("health check completed",
		slog.String("host", run.Hostname),
		slog.Int("fail", run.Count("fail")),
		slog.Int("pass", run.Count("pass")),
		slog.Int("skip", run.Count("skip")),
		slog.Int("error", run.Count("error")),
		slog.Duration("duration", run.Duration),
	)

	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(out)
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	default:
		printSummary(out, run)
	}

	if format != formatText && opts.outputFile == "" {
		return nil
	}

	outputPath := opts.outputFile
	if outputPath == "" {
		outputPath = generateDefaultOutputFilename(run.Hostname)
	}
	reportPath, err := writeHostReport(outputPath, run)
	if err != nil {
		return err
	}
	reportPath, err = compressReportIfNeeded(cmd.ErrOrStderr(), reportPath, opts.settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to %s\n", reportPath)

	return nil
}

// writeHostReport writes the AsciiDoc report and its JSON results
func writeHostReport(outputPath string, run *engine.Run) (string, error) {
	r := report.FromRun(outputPath, run)
	path, err := r.Generate()
	if err != nil {
		return "", err
	}
	if err := report.SaveCheckResults(r); err != nil {
		return "", err
	}
	return path, nil
}

var resultLabels = map[string]string{
	"fail":  "FAIL",
	"pass":  "PASS",
	"skip":  "SKIP",
	"error": "ERROR",
}

// printSummary prints every result of a run in evaluation order
func printSummary(w io.Writer, run *engine.Run) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "╔══════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║                  Results Summary                 ║\n")
	fmt.Fprintf(w, "╚══════════════════════════════════════════════════╝\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Host: %s (%s)\n\n", run.Hostname, run.Context)

	for _, res := range run.Results {
		fmt.Fprintf(w, "[%-5s] %s\n", resultLabels[res.Type()], res.RuleName)
		detail := res.Message
		switch {
		case res.Err != nil:
			detail = res.Error
		case res.Response != nil && res.Response.Type == rules.ResponseSkip:
			detail = res.Response.Reason
		}
		for _, line := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
			if line != "" {
				fmt.Fprintf(w, "        %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "\nFail: %d  Pass: %d  Skip: %d  Error: %d  (%s)\n",
		run.Count("fail"), run.Count("pass"), run.Count("skip"), run.Count("error"),
		run.Duration.Round(time.Millisecond))
}
