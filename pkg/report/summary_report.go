// pkg/report/summary_report.go

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SummaryReport handles generation of consolidated summary reports
type SummaryReport struct {
	GeneratedTime time.Time
	OutputDir     string
	HostReports   map[string]*AsciiDocReport
	// FailedHosts are hosts whose run could not complete, with the reason
	FailedHosts map[string]string

	TotalHosts          int
	CriticalHostCount   int // Number of hosts with at least one required change
	HealthyHostCount    int // Number of hosts with no required change
	TotalCriticalIssues int
	TotalSkipped        int
	TotalErrors         int
}

// NewSummaryReport creates a new summary report generator
func NewSummaryReport(outputDir string) *SummaryReport {
	return &SummaryReport{
		GeneratedTime: time.Now(),
		OutputDir:     outputDir,
		HostReports:   make(map[string]*AsciiDocReport),
		FailedHosts:   make(map[string]string),
	}
}

// AddHostReport adds a host report to the summary
func (s *SummaryReport) AddHostReport(hostname string, report *AsciiDocReport) {
	s.HostReports[hostname] = report
}

// AddFailedHost records a host that produced no report
func (s *SummaryReport) AddFailedHost(hostname string, reason string) {
	s.FailedHosts[hostname] = reason
}

// Filename returns the path of the summary report
func (s *SummaryReport) Filename() string {
	return filepath.Join(s.OutputDir, fmt.Sprintf("%s-infrastructure-summary.adoc",
		s.GeneratedTime.Format("2006-01-02-150405")))
}

// Generate analyzes the host reports and writes the summary
func (s *SummaryReport) Generate() (string, error) {
	s.analyzeReports()

	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := s.Filename()
	if err := os.WriteFile(filename, []byte(s.Content()), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary report: %w", err)
	}
	return filename, nil
}

// analyzeReports analyzes all host reports to gather statistics
func (s *SummaryReport) analyzeReports() {
	s.TotalHosts = len(s.HostReports) + len(s.FailedHosts)
	s.CriticalHostCount = 0
	s.HealthyHostCount = 0
	s.TotalCriticalIssues = 0
	s.TotalSkipped = 0
	s.TotalErrors = 0

	for _, report := range s.HostReports {
		critical := report.Count(ResultKeyRequired)
		s.TotalCriticalIssues += critical
		s.TotalSkipped += report.Count(ResultKeyNotApplicable)
		s.TotalErrors += report.Count(ResultKeyEvaluate)

		if critical > 0 {
			s.CriticalHostCount++
		} else {
			s.HealthyHostCount++
		}
	}
}

// Content renders the summary report
func (s *SummaryReport) Content() string {
	s.analyzeReports()

	var content strings.Builder

	content.WriteString("= Infrastructure Health Check Summary\n")
	content.WriteString(fmt.Sprintf("Generated: %s\n", s.GeneratedTime.Format("2006-01-02 15:04:05")))
	content.WriteString(fmt.Sprintf("Total Hosts: %d | Critical: %d | Healthy: %d | Unreachable: %d\n\n",
		s.TotalHosts, s.CriticalHostCount, s.HealthyHostCount, len(s.FailedHosts)))

	content.WriteString(keySection)

	content.WriteString("== Executive Dashboard\n\n")
	content.WriteString(s.generateDashboard())

	if issues := s.groupIssues(); len(issues) > 0 {
		content.WriteString("== Changes Required\n\n")
		content.WriteString(formatGroupedIssues(issues))
	}

	content.WriteString("== Host Health Matrix\n\n")
	content.WriteString(s.generateHealthMatrix())

	if len(s.FailedHosts) > 0 {
		content.WriteString("== Unreachable Hosts\n\n")
		for _, hostname := range sortedKeys(s.FailedHosts) {
			content.WriteString(fmt.Sprintf("* %s: %s\n", hostname, s.FailedHosts[hostname]))
		}
		content.WriteString("\n")
	}

	content.WriteString("== Individual Host Reports\n\n")
	content.WriteString("Detailed reports for each host are available in the `hosts/` directory:\n\n")
	for _, hostname := range sortedKeys(s.HostReports) {
		report := s.HostReports[hostname]
		content.WriteString(fmt.Sprintf("* link:hosts/%s[%s - %s]\n",
			filepath.Base(report.OutputPath), hostname, report.Title))
	}

	return content.String()
}

// generateDashboard creates a visual dashboard
func (s *SummaryReport) generateDashboard() string {
	var sb strings.Builder

	bar := func(label string, n int) {
		pct := 0.0
		if s.TotalHosts > 0 {
			pct = float64(n) / float64(s.TotalHosts) * 100
		}
		sb.WriteString(fmt.Sprintf("%-16s %s %d (%.0f%%)\n", label, strings.Repeat("█", min(n*5, 20)), n, pct))
	}

	sb.WriteString("=== Host Status Summary\n\n")
	sb.WriteString("[listing]\n----\n")
	bar("Critical Hosts:", s.CriticalHostCount)
	bar("Healthy Hosts:", s.HealthyHostCount)
	bar("Unreachable:", len(s.FailedHosts))
	sb.WriteString("----\n\n")

	sb.WriteString("=== Totals Across Infrastructure\n\n")
	sb.WriteString(fmt.Sprintf("* Changes Required: %d\n", s.TotalCriticalIssues))
	sb.WriteString(fmt.Sprintf("* Not Applicable: %d\n", s.TotalSkipped))
	sb.WriteString(fmt.Sprintf("* To Be Evaluated: %d\n\n", s.TotalErrors))

	return sb.String()
}

// IssueSummary is one failing check and the hosts it fails on
type IssueSummary struct {
	Category    Category
	CheckName   string
	Message     string
	Hosts       []string
	Remediation string
}

// groupIssues groups required changes by check, sorted by category and name
func (s *SummaryReport) groupIssues() []*IssueSummary {
	grouped := make(map[string]*IssueSummary)

	for _, hostname := range sortedKeys(s.HostReports) {
		for _, check := range s.HostReports[hostname].Checks {
			if check.Result.ResultKey != ResultKeyRequired {
				continue
			}
			key := fmt.Sprintf("%s_%s", check.Category, check.Name)
			issue, ok := grouped[key]
			if !ok {
				issue = &IssueSummary{
					Category:  check.Category,
					CheckName: check.Name,
					Message:   check.Result.Message,
				}
				if len(check.Result.Recommendations) > 0 {
					issue.Remediation = check.Result.Recommendations[0]
				}
				grouped[key] = issue
			}
			issue.Hosts = append(issue.Hosts, hostname)
		}
	}

	issues := make([]*IssueSummary, 0, len(grouped))
	for _, key := range sortedKeys(grouped) {
		issues = append(issues, grouped[key])
	}
	return issues
}

// formatGroupedIssues formats grouped issues for output
func formatGroupedIssues(issues []*IssueSummary) string {
	var sb strings.Builder

	for _, issue := range issues {
		sb.WriteString(fmt.Sprintf("=== %s (Affects %d hosts)\n\n", issue.CheckName, len(issue.Hosts)))
		if issue.Remediation != "" {
			sb.WriteString(fmt.Sprintf("Action: %s\n\n", issue.Remediation))
		}
		sb.WriteString("[cols=\"1\", options=header]\n|===\n|Host\n\n")
		for _, host := range issue.Hosts {
			sb.WriteString(fmt.Sprintf("|%s\n", host))
		}
		sb.WriteString("|===\n\n")
	}

	return sb.String()
}

// generateHealthMatrix creates the host health matrix
func (s *SummaryReport) generateHealthMatrix() string {
	var sb strings.Builder

	sb.WriteString("[cols=\"3,1,1,1,1,1\", options=header]\n|===\n")
	sb.WriteString("|Host |Required |No Change |N/A |Errors |Score\n\n")

	for _, hostname := range sortedKeys(s.HostReports) {
		report := s.HostReports[hostname]
		critical := report.Count(ResultKeyRequired)

		healthColor := "#00FF00"
		healthStatus := "Healthy"
		if critical > 0 {
			healthColor = "#FF0000"
			healthStatus = "Critical"
		}

		sb.WriteString(fmt.Sprintf("|link:hosts/%s[%s] |%d |%d |%d |%d |{set:cellbgcolor:%s}%s\n",
			filepath.Base(report.OutputPath), hostname,
			critical, report.Count(ResultKeyNoChange), report.Count(ResultKeyNotApplicable),
			report.Count(ResultKeyEvaluate), healthColor, healthStatus))
	}

	sb.WriteString("|===\n\n")
	sb.WriteString("{set:cellbgcolor!}\n\n")

	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
