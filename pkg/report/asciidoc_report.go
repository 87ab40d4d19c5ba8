// pkg/report/asciidoc_report.go

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/engine"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
)

// Status represents the result status of a check
type Status string

const (
	StatusOK            Status = "OK"
	StatusCritical      Status = "Critical"
	StatusInfo          Status = "Info"
	StatusNotApplicable Status = "Not Applicable"
	StatusError         Status = "Error"
)

// ResultKey represents the level of importance for a result in a report summary
type ResultKey string

const (
	// ResultKeyNoChange indicates no changes are needed
	ResultKeyNoChange ResultKey = "nochange"

	// ResultKeyRequired indicates changes are required
	ResultKeyRequired ResultKey = "required"

	// ResultKeyNotApplicable indicates the check does not apply
	ResultKeyNotApplicable ResultKey = "na"

	// ResultKeyEvaluate indicates the result needs evaluation
	ResultKeyEvaluate ResultKey = "eval"
)

// Category represents a category of checks
type Category string

const (
	CategorySystemInfo Category = "System Information"
	CategorySecurity   Category = "Security"
	CategoryUpdates    Category = "Updates"
	CategoryOther      Category = "Other"
)

// categoryOrder is the order category sections appear in
var categoryOrder = []Category{
	CategorySystemInfo,
	CategorySecurity,
	CategoryUpdates,
	CategoryOther,
}

// Result represents the result of a check
type Result struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	ResultKey ResultKey `json:"result_key"`
	// Detail is shown verbatim in the check section
	Detail          string   `json:"detail,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	ReferenceLinks  []string `json:"reference_links,omitempty"`
}

// Check is one rule outcome as it appears in a report
type Check struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Result      Result   `json:"result"`
}

// CheckFromResult maps a rule result onto a report check. Failures need a
// change, passes need none, skips do not apply and errors are left to be
// evaluated by hand.
func CheckFromResult(res engine.Result) *Check {
	info := res.Rule
	check := &Check{
		ID:          info.Name,
		Name:        info.Title,
		Description: info.Description,
		Category:    categoryOf(info.Category),
	}
	if check.Name == "" {
		check.Name = res.RuleName
		check.ID = res.RuleName
	}

	switch res.Type() {
	case string(rules.ResponseFail):
		check.Result = NewResult(StatusCritical, observation(res), ResultKeyRequired)
		if info.Recommendation != "" {
			AddRecommendation(&check.Result, info.Recommendation)
		}
	case string(rules.ResponsePass):
		check.Result = NewResult(StatusOK, observation(res), ResultKeyNoChange)
	case string(rules.ResponseSkip):
		check.Result = NewResult(StatusNotApplicable, "Not applicable: "+res.Response.Reason, ResultKeyNotApplicable)
	default:
		check.Result = NewResult(StatusError, "Rule could not be evaluated", ResultKeyEvaluate)
		SetDetail(&check.Result, res.Error)
		return check
	}

	for _, link := range info.References {
		AddReferenceLink(&check.Result, link)
	}

	if res.Response != nil && res.Response.Type != rules.ResponseSkip {
		var sb strings.Builder
		if res.Message != "" {
			sb.WriteString(formatAsCodeBlock(res.Message, "text"))
		}
		if len(res.Response.Details) > 0 {
			if out, err := yaml.Marshal(map[string]any(res.Response.Details)); err == nil {
				sb.WriteString(formatAsCodeBlock(string(out), "yaml"))
			}
		}
		check.Result.Detail = sb.String()
	}

	return check
}

func categoryOf(name string) Category {
	for _, c := range categoryOrder {
		if string(c) == name {
			return c
		}
	}
	return CategoryOther
}

// observation is the one-line table text for a rendered message. Multi-line
// messages are shown in the check detail instead.
func observation(res engine.Result) string {
	msg := strings.TrimSpace(res.Message)
	if strings.Contains(msg, "\n") {
		return res.Response.Key + ": see detail"
	}
	return msg
}

// AsciiDocReport generates AsciiDoc reports for health checks
type AsciiDocReport struct {
	OutputPath string    `json:"-"`
	Hostname   string    `json:"hostname"`
	Title      string    `json:"title"`
	Generated  time.Time `json:"generated"`
	Checks     []*Check  `json:"checks"`
}

// NewAsciiDocReport creates a new AsciiDoc report
func NewAsciiDocReport(outputPath string) *AsciiDocReport {
	return &AsciiDocReport{
		OutputPath: outputPath,
		Generated:  time.Now(),
		Checks:     []*Check{},
	}
}

// FromRun builds a host report from a rule run
func FromRun(outputPath string, run *engine.Run) *AsciiDocReport {
	r := NewAsciiDocReport(outputPath)
	r.Initialize(run.Hostname, fmt.Sprintf("Health Check Report: %s", run.Hostname))
	r.Generated = run.Started
	for _, res := range run.Results {
		r.AddCheck(CheckFromResult(res))
	}
	return r
}

// Initialize sets up the report with hostname and title
func (r *AsciiDocReport) Initialize(hostname, title string) {
	r.Hostname = hostname
	r.Title = title
}

// AddCheck adds a check to the report
func (r *AsciiDocReport) AddCheck(check *Check) {
	r.Checks = append(r.Checks, check)
}

// Count returns how many checks carry the given result key
func (r *AsciiDocReport) Count(key ResultKey) int {
	n := 0
	for _, c := range r.Checks {
		if c.Result.ResultKey == key {
			n++
		}
	}
	return n
}

// Generate generates the report and writes it to the output path
func (r *AsciiDocReport) Generate() (string, error) {
	outputDir := filepath.Dir(r.OutputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(r.OutputPath, []byte(r.Content()), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return r.OutputPath, nil
}

// Content renders the full report
func (r *AsciiDocReport) Content() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("= %s\n\n", r.Title))
	sb.WriteString("ifdef::env-github[]\n:tip-caption: :bulb:\n:note-caption: :information_source:\n:important-caption: :heavy_exclamation_mark:\n:caution-caption: :fire:\n:warning-caption: :warning:\nendif::[]\n\n")
	sb.WriteString(fmt.Sprintf("Hostname: %s\n\n", r.Hostname))
	if !r.Generated.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.Generated.Format("2006-01-02 15:04:05")))
	}

	sb.WriteString(keySection)
	sb.WriteString(r.generateSummarySection())

	categorized := r.organizeChecksByCategory()
	for _, category := range categoryOrder {
		if checks := categorized[category]; len(checks) > 0 {
			sb.WriteString(r.generateCategorySection(category, checks))
		}
	}

	// Reset bgcolor for future tables
	sb.WriteString("// Reset bgcolor for future tables\n[grid=none,frame=none]\n|===\n|{set:cellbgcolor!}\n|===\n\n")

	return sb.String()
}

const keySection = `= Key

[cols="1,3", options=header]
|===
|Value
|Description

|
{set:cellbgcolor:#FF0000}
Changes Required
|
{set:cellbgcolor!}
Indicates Changes Required for system stability, security, or other reason.

|
{set:cellbgcolor:#A6B9BF}
Not Applicable
|
{set:cellbgcolor!}
The rule does not apply to this system or its facts could not be collected.

|
{set:cellbgcolor:#00FF00}
No Change
|
{set:cellbgcolor!}
No change required. In alignment with recommended practices.

|
{set:cellbgcolor:#FFFFFF}
To Be Evaluated
|
{set:cellbgcolor!}
The rule failed to run. Evaluate the item by hand.
|===

`

const tableHeader = "[cols=\"1,2,2,3\", options=header]\n|===\n|*Category*\n|*Item Evaluated*\n|*Observed Result*\n|*Recommendation*\n\n"

// writeRow writes one summary table row
func writeRow(sb *strings.Builder, check *Check) {
	sb.WriteString("// ------------------------ITEM START\n")
	sb.WriteString("// ----ITEM SOURCE:  rule " + check.ID + "\n\n")
	sb.WriteString("// Category\n")
	sb.WriteString("|\n{set:cellbgcolor!}\n" + string(check.Category) + "\n\n")
	sb.WriteString("// Item Evaluated\n")
	sb.WriteString("a|\n<<" + check.Name + ">>\n\n")
	sb.WriteString("| " + check.Result.Message + " \n\n")
	sb.WriteString(getResultFormatting(check.Result.ResultKey) + "\n\n")
	sb.WriteString("// ------------------------ITEM END\n\n")
}

func (r *AsciiDocReport) generateSummarySection() string {
	var sb strings.Builder

	sb.WriteString("= Summary\n\n")
	sb.WriteString(tableHeader)

	categorized := r.organizeChecksByCategory()
	for _, category := range categoryOrder {
		for _, check := range categorized[category] {
			writeRow(&sb, check)
		}
	}

	sb.WriteString("|===\n\n")
	sb.WriteString("<<<\n\n")
	sb.WriteString("{set:cellbgcolor!}\n\n")

	return sb.String()
}

func (r *AsciiDocReport) generateCategorySection(category Category, checks []*Check) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", category))
	sb.WriteString(tableHeader)
	for _, check := range checks {
		writeRow(&sb, check)
	}
	sb.WriteString("|===\n\n")

	for _, check := range checks {
		sb.WriteString(formatCheckDetail(check))
	}

	sb.WriteString("<<<\n\n")
	sb.WriteString("{set:cellbgcolor!}\n\n")

	return sb.String()
}

// formatCheckDetail formats detailed information about a check
func formatCheckDetail(check *Check) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s\n\n", check.Name))
	sb.WriteString(getStatusTable(check.Result.ResultKey) + "\n\n")

	if check.Description != "" {
		sb.WriteString(check.Description + "\n\n")
	}

	if check.Result.Detail != "" {
		sb.WriteString(check.Result.Detail)
		if !strings.HasSuffix(check.Result.Detail, "\n\n") {
			sb.WriteString("\n")
		}
	}

	sb.WriteString("**Observation**\n\n")
	sb.WriteString(check.Result.Message + "\n\n")

	sb.WriteString("**Recommendation**\n\n")
	if len(check.Result.Recommendations) > 0 {
		for _, rec := range check.Result.Recommendations {
			sb.WriteString(rec + "\n\n")
		}
	} else {
		sb.WriteString("None\n\n")
	}

	sb.WriteString("*Reference Link(s)*\n\n")
	if len(check.Result.ReferenceLinks) > 0 {
		for _, link := range check.Result.ReferenceLinks {
			sb.WriteString("* " + link + "\n\n")
		}
	} else {
		sb.WriteString("* https://docs.redhat.com/en/documentation/red_hat_enterprise_linux/\n\n")
	}

	return sb.String()
}

// organizeChecksByCategory groups checks by their category, sorted by name
func (r *AsciiDocReport) organizeChecksByCategory() map[Category][]*Check {
	categorized := make(map[Category][]*Check)
	for _, check := range r.Checks {
		categorized[check.Category] = append(categorized[check.Category], check)
	}
	for _, checks := range categorized {
		sort.SliceStable(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	}
	return categorized
}

var resultColors = map[ResultKey]struct{ color, label string }{
	ResultKeyRequired:      {"#FF0000", "Changes Required"},
	ResultKeyNoChange:      {"#00FF00", "No Change"},
	ResultKeyNotApplicable: {"#A6B9BF", "Not Applicable"},
	ResultKeyEvaluate:      {"#FFFFFF", "To Be Evaluated"},
}

func resultStyle(key ResultKey) (string, string) {
	s, ok := resultColors[key]
	if !ok {
		s = resultColors[ResultKeyEvaluate]
	}
	return s.color, s.label
}

// getResultFormatting returns formatted AsciiDoc for a result key (used in tables)
func getResultFormatting(key ResultKey) string {
	color, label := resultStyle(key)
	return fmt.Sprintf("| \n{set:cellbgcolor:%s}\n%s", color, label)
}

// getStatusTable returns a colored status table for a result key (used in detailed sections)
func getStatusTable(key ResultKey) string {
	color, label := resultStyle(key)
	return fmt.Sprintf("[cols=\"^\"] \n|===\n|\n{set:cellbgcolor:%s}\n%s\n|===", color, label)
}

// formatAsCodeBlock formats text as a source code block
func formatAsCodeBlock(content string, language string) string {
	content = strings.TrimRight(content, " \t\n") + "\n"
	return fmt.Sprintf("[source, %s]\n----\n%s----\n\n", language, content)
}

// NewResult creates a new Result
func NewResult(status Status, message string, resultKey ResultKey) Result {
	return Result{
		Status:          status,
		Message:         message,
		ResultKey:       resultKey,
		Recommendations: []string{},
		ReferenceLinks:  []string{},
	}
}

// AddReferenceLink adds a reference link to a Result
func AddReferenceLink(result *Result, link string) {
	result.ReferenceLinks = append(result.ReferenceLinks, link)
}

// AddRecommendation adds a recommendation to a Result
func AddRecommendation(result *Result, recommendation string) {
	result.Recommendations = append(result.Recommendations, recommendation)
}

// SetDetail sets the detail for a Result as a text block
func SetDetail(result *Result, detail string) {
	detail = strings.ReplaceAll(detail, "\r\n", "\n")
	if strings.TrimSpace(detail) == "" {
		result.Detail = ""
		return
	}
	result.Detail = formatAsCodeBlock(detail, "text")
}
