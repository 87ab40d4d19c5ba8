// cmd/multi.go

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/config"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/engine"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/report"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/utils"
)

// newMultiCmd creates the multi-host subcommand
func newMultiCmd(opts *options) *cobra.Command {
	var (
		hostsFile   string
		maxParallel int
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "multi",
		Short: "Run rules on multiple hosts over SSH",
		Long: `Collects facts from every host in a hosts configuration file over SSH,
evaluates the rules for each host and writes individual reports plus a
consolidated summary report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMultiHostChecks(cmd, opts, hostsFile, maxParallel, outputDir)
		},
	}

	cmd.Flags().StringVarP(&hostsFile, "hosts-file", "H", "hosts.ini", "Path to hosts configuration file")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "Maximum number of parallel connections (default from hosts file)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the reports (default reports/multi-host-<timestamp>)")

	return cmd
}

// hostResult is the outcome of checking one host
type hostResult struct {
	hostname string
	run      *engine.Run
	err      error
	duration time.Duration
}

// hostChecker evaluates the rules on one host
type hostChecker func(ctx context.Context, host config.HostEntry) (*engine.Run, error)

// checkHosts runs check on every host with at most limit hosts in flight.
// A failing host does not stop the others. Results keep the order of hosts.
func checkHosts(ctx context.Context, hosts []config.HostEntry, limit int, check hostChecker, done func(hostResult)) []hostResult {
	if limit < 1 {
		limit = 1
	}

	results := make([]hostResult, len(hosts))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, host := range hosts {
		g.Go(func() error {
			start := time.Now()
			res := hostResult{hostname: host.Hostname}
			if err := ctx.Err(); err != nil {
				res.err = err
			} else {
				res.run, res.err = check(ctx, host)
			}
			res.duration = time.Since(start)
			results[i] = res
			if done != nil {
				done(res)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// remoteChecker connects to a host over SSH and evaluates rs there
func remoteChecker(rs []rules.Rule, sshTimeout, collectTimeout time.Duration) hostChecker {
	return func(ctx context.Context, host config.HostEntry) (*engine.Run, error) {
		logger := log.WithContext(ctx).With(slog.String("host", host.Hostname))

		if collectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, collectTimeout)
			defer cancel()
		}

		logger.Debug("connecting", slog.String("user", host.User), slog.Bool("become", host.Become))
		exec, err := utils.NewRemoteExecutor(ctx, host.SSHConfig(sshTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		defer exec.Close()

		run, err := engine.New(rs).Run(log.NewContext(ctx, logger), facts.NewHostContext(exec))
		if err != nil {
			return nil, err
		}
		// Reports are keyed by inventory name, not the remote FQDN
		run.Hostname = host.Hostname
		return run, nil
	}
}

// runMultiHostChecks runs the rules on every host in the hosts file
func runMultiHostChecks(cmd *cobra.Command, opts *options, hostsFile string, maxParallel int, outputDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rs, err := opts.selectedRules()
	if err != nil {
		return err
	}
	if err := opts.checkCompression(); err != nil {
		return err
	}

	hostsConfig := config.NewHostsConfig()
	if err := hostsConfig.LoadFromFile(ctx, hostsFile); err != nil {
		return fmt.Errorf("failed to load hosts file: %w", err)
	}
	if maxParallel > 0 {
		hostsConfig.Defaults.ParallelConnections = maxParallel
	}
	allHosts := hostsConfig.GetAllHosts()

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╔══════════════════════════════════════════════════╗\n")
	fmt.Fprintf(out, "║        Multi-Host Health Check Execution         ║\n")
	fmt.Fprintf(out, "╚══════════════════════════════════════════════════╝\n")
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Hosts to check:       %d\n", len(allHosts))
	fmt.Fprintf(out, "Rules:                %d\n", len(rs))
	fmt.Fprintf(out, "Parallel connections: %d\n", hostsConfig.Defaults.ParallelConnections)
	fmt.Fprintf(out, "\n")

	if outputDir == "" {
		outputDir = filepath.Join("reports", fmt.Sprintf("multi-host-%s", time.Now().Format("20060102-150405")))
	}
	hostsOutputDir := filepath.Join(outputDir, "hosts")
	if err := os.MkdirAll(hostsOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directories: %w", err)
	}

	cache := report.NewCheckCache()
	check := remoteChecker(rs, hostsConfig.Timeout(), opts.collectTimeout())

	// Host reports are written as soon as each host finishes
	checkAndReport := func(ctx context.Context, host config.HostEntry) (*engine.Run, error) {
		run, err := check(ctx, host)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(hostsOutputDir, fmt.Sprintf("%s-health-check.adoc", sanitizeFilename(host.Hostname)))
		r := report.FromRun(path, run)
		if _, err := r.Generate(); err != nil {
			return nil, err
		}
		if err := report.SaveCheckResults(r); err != nil {
			return nil, err
		}
		cache.Put(host.Hostname, r)
		return run, nil
	}

	bar := newProgressBar(cmd.ErrOrStderr(), len(allHosts), "Checking hosts")
	startTime := time.Now()

	results := checkHosts(ctx, allHosts, hostsConfig.Defaults.ParallelConnections, checkAndReport, func(res hostResult) {
		bar.Describe(fmt.Sprintf("[cyan]Checked[reset] %s", res.hostname))
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	summary := report.NewSummaryReport(outputDir)
	for _, hostname := range cache.Hostnames() {
		r, _ := cache.Get(hostname)
		summary.AddHostReport(hostname, r)
	}
	for _, res := range results {
		if res.err != nil {
			summary.AddFailedHost(res.hostname, res.err.Error())
		}
	}

	printHostResults(out, results)

	summaryPath, err := summary.Generate()
	if err != nil {
		return err
	}
	if summaryPath, err = compressReportIfNeeded(out, summaryPath, opts.settings); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal execution time: %s\n", time.Since(startTime).Round(time.Second))
	fmt.Fprintf(out, "Reports location: %s\n", outputDir)
	fmt.Fprintf(out, "  • Summary:      %s\n", filepath.Base(summaryPath))
	fmt.Fprintf(out, "  • Individual:   hosts/\n")

	return nil
}

// printHostResults prints which hosts succeeded and which failed
func printHostResults(w io.Writer, results []hostResult) {
	var succeeded, failed []hostResult
	for _, res := range results {
		if res.err != nil {
			failed = append(failed, res)
		} else {
			succeeded = append(succeeded, res)
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "╔══════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║                  Results Summary                 ║\n")
	fmt.Fprintf(w, "╚══════════════════════════════════════════════════╝\n")
	fmt.Fprintf(w, "\n")

	if len(succeeded) > 0 {
		fmt.Fprintf(w, "✓ Successful (%d):\n", len(succeeded))
		for _, h := range succeeded {
			fmt.Fprintf(w, "  • %-30s fail=%d pass=%d skip=%d (%s)\n", h.hostname,
				h.run.Count("fail"), h.run.Count("pass"), h.run.Count("skip"), h.duration.Round(time.Millisecond))
		}
		fmt.Fprintf(w, "\n")
	}

	if len(failed) > 0 {
		fmt.Fprintf(w, "✗ Failed (%d):\n", len(failed))
		for _, h := range failed {
			fmt.Fprintf(w, "  • %-30s %v\n", h.hostname, h.err)
		}
		fmt.Fprintf(w, "\n")
	}
}
