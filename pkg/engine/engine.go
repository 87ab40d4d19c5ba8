// pkg/engine/engine.go

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/facts"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/rules"
)

// Result is the outcome of one rule on one fact snapshot
type Result struct {
	Rule     rules.Info      `json:"-" yaml:"-"`
	RuleName string          `json:"rule" yaml:"rule"`
	Response *rules.Response `json:"response,omitempty" yaml:"response,omitempty"`
	Message  string          `json:"message,omitempty" yaml:"message,omitempty"`
	Err      error           `json:"-" yaml:"-"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Type returns the response type, or "error" when the rule failed to run
func (r Result) Type() string {
	if r.Err != nil || r.Response == nil {
		return "error"
	}
	return string(r.Response.Type)
}

// Run is every result produced for one context
type Run struct {
	Hostname string        `json:"hostname" yaml:"hostname"`
	Context  facts.Kind    `json:"context" yaml:"context"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Results  []Result      `json:"results" yaml:"results"`
}

// Count returns how many results have the given type
func (r *Run) Count(typ string) int {
	n := 0
	for _, res := range r.Results {
		if res.Type() == typ {
			n++
		}
	}
	return n
}

// Failed returns the failing results
func (r *Run) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Type() == string(rules.ResponseFail) {
			failed = append(failed, res)
		}
	}
	return failed
}

// Engine evaluates a fixed set of rules
type Engine struct {
	rules    []rules.Rule
	filters  facts.Filters
	onResult func(Result)
}

// Option configures an Engine
type Option func(*Engine)

// WithResultHook calls fn after each rule is evaluated
func WithResultHook(fn func(Result)) Option {
	return func(e *Engine) {
		e.onResult = fn
	}
}

// New creates an engine for rs
func New(rs []rules.Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:   rs,
		filters: rules.FiltersFor(rs),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules the engine evaluates
func (e *Engine) Rules() []rules.Rule {
	return e.rules
}

// Run collects the facts every rule needs from c once, then evaluates each
// rule in order against that snapshot.
func (e *Engine) Run(ctx context.Context, c facts.Context) (*Run, error) {
	logger := log.WithContext(ctx)
	run := &Run{
		Hostname: c.Hostname(),
		Context:  c.Kind(),
		Started:  time.Now(),
	}

	contents, err := facts.Collect(ctx, c, rules.RequiredFacts(e.rules), e.filters)
	if err != nil {
		return nil, fmt.Errorf("failed to collect facts: %w", err)
	}
	snapshot := rules.NewFacts(contents)

	for _, r := range e.rules {
		res := Evaluate(r, snapshot)
		logger.Debug("rule evaluated",
			slog.String("rule", res.RuleName),
			slog.String("result", res.Type()),
			slog.String("host", run.Hostname),
		)
		if res.Err != nil {
			logger.Warn("rule failed", slog.String("rule", res.RuleName), slog.Any("err", res.Err))
		}
		run.Results = append(run.Results, res)
		if e.onResult != nil {
			e.onResult(res)
		}
	}

	run.Duration = time.Since(run.Started)
	return run, nil
}

// Evaluate runs a single rule. Missing required facts and skip errors
// become a skip response; any other error is recorded on the result.
func Evaluate(r rules.Rule, f *rules.Facts) Result {
	info := r.Info()
	res := Result{Rule: info, RuleName: info.Name}

	if missing := f.Missing(r.Requires()); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, n := range missing {
			names[i] = string(n)
		}
		res.Response = rules.MakeSkip("missing facts: " + strings.Join(names, ", "))
		return res
	}

	resp, err := r.Evaluate(f)
	switch {
	case errors.Is(err, rules.ErrSkip):
		res.Response = rules.MakeSkip(err.Error())
		return res
	case err != nil:
		res.Err = err
		res.Error = err.Error()
		return res
	case resp == nil:
		res.Response = rules.MakeSkip("no response")
		return res
	}

	res.Response = resp
	msg, err := Render(r, resp)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	res.Message = msg
	return res
}

// Render formats a pass or fail response with the rule's template for its
// key. Responses without a template render as their key.
func Render(r rules.Rule, resp *rules.Response) (string, error) {
	text, ok := r.Content()[resp.Key]
	if !ok {
		return resp.Key, nil
	}

	tmpl, err := template.New(r.Info().Name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template for %s: %w", resp.Key, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, map[string]any(resp.Details)); err != nil {
		return "", fmt.Errorf("render %s: %w", resp.Key, err)
	}
	return sb.String(), nil
}
