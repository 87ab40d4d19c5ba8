// pkg/facts/collect.go

package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/pkg/log"
)

// Collect reads the named facts from c and applies filters. Facts that are
// absent or unreadable are left out of the result; only an unknown fact
// name or a cancelled context is an error.
func Collect(ctx context.Context, c Context, names []Name, filters Filters) (map[Name]*Content, error) {
	logger := log.WithContext(ctx).With(slog.String("context", string(c.Kind())))
	collected := make(map[Name]*Content, len(names))

	for _, name := range names {
		if _, done := collected[name]; done {
			continue
		}

		spec, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown fact %q", name)
		}

		content, err := c.Read(ctx, spec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("collect %s: %w", name, ctxErr)
			}
			if errors.Is(err, ErrNotFound) {
				logger.Debug("fact not available", slog.String("fact", string(name)), slog.Any("err", err))
			} else {
				logger.Warn("failed to collect fact", slog.String("fact", string(name)), slog.Any("err", err))
			}
			continue
		}

		before := len(content.Lines)
		content.Lines = filters.Apply(spec, content.Lines)

		logger.Debug("collected fact",
			slog.String("fact", string(name)),
			slog.String("source", content.Source),
			slog.Int("lines", len(content.Lines)),
			slog.Int("filtered", before-len(content.Lines)),
		)

		collected[name] = content
	}

	return collected, nil
}
