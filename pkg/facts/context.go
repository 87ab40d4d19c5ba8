// pkg/facts/context.go

package facts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/utils"
)

// ErrNotFound marks a fact that is not available in a context
var ErrNotFound = errors.New("fact not found")

// Kind identifies where facts are collected from
type Kind string

const (
	KindHost            Kind = "host"
	KindSosReport       Kind = "sosreport"
	KindInsightsArchive Kind = "insights-archive"
	KindInputData       Kind = "input-data"
)

// Content is the raw content of one collected fact
type Content struct {
	Name   Name
	Source string
	Lines  []string
}

// Text joins the content lines back into a single string
func (c *Content) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Context reads raw fact content from somewhere
type Context interface {
	Kind() Kind
	// Hostname labels the system the facts describe
	Hostname() string
	// Read returns the content for spec, or an error wrapping ErrNotFound
	// when the fact is absent
	Read(ctx context.Context, spec Spec) (*Content, error)
}

// SplitLines splits text into lines, dropping carriage returns and the
// empty line produced by a trailing newline.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

func notFound(spec Spec, kind Kind) error {
	return fmt.Errorf("%w: %s in %s context", ErrNotFound, spec.Name, kind)
}

// HostContext collects facts from a live system through an executor
type HostContext struct {
	exec utils.CommandExecutor
}

// NewHostContext creates a context reading from exec
func NewHostContext(exec utils.CommandExecutor) *HostContext {
	return &HostContext{exec: exec}
}

func (h *HostContext) Kind() Kind { return KindHost }

func (h *HostContext) Hostname() string { return h.exec.GetHostname() }

func (h *HostContext) Read(ctx context.Context, spec Spec) (*Content, error) {
	src := spec.Host

	for _, path := range src.Paths {
		data, err := h.exec.ReadFile(ctx, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &Content{Name: spec.Name, Source: path, Lines: SplitLines(string(data))}, nil
	}

	if len(src.Command) > 0 {
		commandLine := strings.Join(src.Command, " ")
		output, err := h.exec.RunCommand(ctx, src.Command[0], src.Command[1:]...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, commandLine, err)
		}
		return &Content{Name: spec.Name, Source: commandLine, Lines: SplitLines(output)}, nil
	}

	return nil, notFound(spec, KindHost)
}

// ArchiveContext collects facts from an extracted sosreport or Insights
// archive directory
type ArchiveContext struct {
	root string
	kind Kind
}

// OpenArchive inspects root and returns a context for its layout
func OpenArchive(root string) (*ArchiveContext, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive %s is not an extracted directory", root)
	}

	switch {
	case isDir(filepath.Join(root, "sos_commands")):
		return &ArchiveContext{root: root, kind: KindSosReport}, nil
	case isDir(filepath.Join(root, "insights_commands")), isDir(filepath.Join(root, "data", "insights_commands")):
		return &ArchiveContext{root: root, kind: KindInsightsArchive}, nil
	}

	return nil, fmt.Errorf("unrecognized archive layout in %s: expected sos_commands or insights_commands", root)
}

func (a *ArchiveContext) Kind() Kind { return a.kind }

// Hostname reads the archive's hostname file, falling back to the
// directory name.
func (a *ArchiveContext) Hostname() string {
	if spec, ok := Lookup(Hostname); ok {
		if c, err := a.Read(context.Background(), spec); err == nil && len(c.Lines) > 0 {
			return strings.TrimSpace(c.Lines[0])
		}
	}
	return filepath.Base(a.root)
}

func (a *ArchiveContext) Read(_ context.Context, spec Spec) (*Content, error) {
	for _, pattern := range spec.Source(a.kind).Paths {
		matches, err := filepath.Glob(filepath.Join(a.root, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q for %s: %w", pattern, spec.Name, err)
		}
		sort.Strings(matches)

		for _, path := range matches {
			if !isFile(path) {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			rel, _ := filepath.Rel(a.root, path)
			return &Content{Name: spec.Name, Source: rel, Lines: SplitLines(string(data))}, nil
		}
	}

	return nil, notFound(spec, a.kind)
}

// InputData is an in-memory context, used to feed literal fact content to
// rules in tests and fixtures.
type InputData struct {
	Name     string
	contents map[Name]string
}

// NewInputData creates an empty named input
func NewInputData(name string) *InputData {
	return &InputData{Name: name, contents: make(map[Name]string)}
}

// Add sets the raw content of a fact
func (d *InputData) Add(name Name, content string) *InputData {
	d.contents[name] = content
	return d
}

func (d *InputData) Kind() Kind { return KindInputData }

func (d *InputData) Hostname() string {
	if h, ok := d.contents[Hostname]; ok && strings.TrimSpace(h) != "" {
		return strings.TrimSpace(SplitLines(h)[0])
	}
	return d.Name
}

func (d *InputData) Read(_ context.Context, spec Spec) (*Content, error) {
	text, ok := d.contents[spec.Name]
	if !ok {
		return nil, notFound(spec, KindInputData)
	}
	return &Content{Name: spec.Name, Source: d.Name, Lines: SplitLines(text)}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
