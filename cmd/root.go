// cmd/root.go

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/config"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/utils"
)

// options are the persistent flags shared by every subcommand
type options struct {
	outputFile    string
	verboseOutput bool
	skipRules     []string
	includeRules  []string
	timeout       int
	logLevel      string
	logFormat     string

	settings config.Settings
}

// Execute executes the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "health-check",
		Short: "Rule-based Red Hat Enterprise Linux health check",
		Long: `Collects facts from a Red Hat Enterprise Linux host, an extracted
sosreport or an Insights archive, evaluates health-check rules against them
and generates detailed reports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChecks(cmd, opts, "", formatText)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Output file path (default is automatically generated)")
	flags.BoolVarP(&opts.verboseOutput, "verbose", "v", false, "Enable verbose output (same as --log-level debug)")
	flags.StringSliceVarP(&opts.skipRules, "skip", "s", nil, "Rules to skip")
	flags.StringSliceVarP(&opts.includeRules, "include", "i", nil, "Only run the specified rules")
	flags.IntVarP(&opts.timeout, "timeout", "t", 120, "Timeout in seconds for collecting facts from one host")
	flags.StringVar(&opts.logLevel, "log-level", "", fmt.Sprintf("Log level (%s)", strings.Join(log.AllLevels, "|")))
	flags.StringVar(&opts.logFormat, "log-format", "", fmt.Sprintf("Log format (%s)", strings.Join(log.AllFormats, "|")))

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newMultiCmd(opts))
	cmd.AddCommand(newListCmd())

	return cmd
}

// setup loads environment settings and installs the logger. Flags take
// precedence over the environment.
func (o *options) setup(cmd *cobra.Command) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	o.settings = settings

	level := settings.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verboseOutput {
		level = string(log.LevelDebug)
	}
	format := settings.LogFormat
	if o.logFormat != "" {
		format = o.logFormat
	}

	handler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	cmd.SetContext(log.NewContext(cmd.Context(), logger))

	return nil
}

func (o *options) selectedRules() ([]rules.Rule, error) {
	return rules.Select(rules.All(), o.includeRules, o.skipRules)
}

// checkCompression fails early when reports are to be compressed without a password
func (o *options) checkCompression() error {
	if !o.settings.CompressReport {
		return nil
	}
	_, err := o.settings.CompressionPassword()
	return err
}

func (o *options) collectTimeout() time.Duration {
	if o.timeout <= 0 {
		return 0
	}
	return time.Duration(o.timeout) * time.Second
}

// generateDefaultOutputFilename generates a default output filename based on hostname
func generateDefaultOutputFilename(hostname string) string {
	timestamp := time.Now().Format("20060102-150405")

	outputDir := "reports"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		outputDir = "."
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s-health-check-%s.adoc",
		sanitizeFilename(hostname), timestamp))
}

// sanitizeFilename removes or replaces characters that are problematic in filenames
func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(filename)
}

// newProgressBar creates the progress bar shown while rules or hosts run
func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// compressReportIfNeeded compresses the report when COMPRESS_REPORT is set
func compressReportIfNeeded(w io.Writer, reportPath string, settings config.Settings) (string, error) {
	if !settings.CompressReport {
		return reportPath, nil
	}

	password, err := settings.CompressionPassword()
	if err != nil {
		return reportPath, fmt.Errorf("failed to compress report: %w", err)
	}

	compressedPath, err := utils.CompressWithPassword(reportPath, password)
	if err != nil {
		return reportPath, fmt.Errorf("failed to compress report: %w", err)
	}

	if settings.RemoveUncompressed {
		if err := os.Remove(reportPath); err != nil {
			return compressedPath, fmt.Errorf("failed to remove uncompressed report: %w", err)
		}
	}

	fmt.Fprintf(w, "Report compressed to %s\n", compressedPath)
	return compressedPath, nil
}
