// Package retention applies the auto-delete setting to scan history.
package retention

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/settings"
)

// History is the part of the history store retention needs.
type History interface {
	Load(ctx context.Context) []model.HistoryEntry
	PurgeOlderThan(ctx context.Context, days int) ([]model.HistoryEntry, error)
}

// Apply purges history entries older than the configured auto-delete window
// and returns how many were removed. A "never" policy is a no-op.
func Apply(ctx context.Context, p settings.Provider, h History) (int, error) {
	days := p.Settings(ctx).AutoDelete.Days()
	if days <= 0 {
		return 0, nil
	}

	before := len(h.Load(ctx))
	after, err := h.PurgeOlderThan(ctx, days)
	if err != nil {
		return 0, eris.Wrapf(err, "retention: purge older than %d days", days)
	}

	removed := max(before-len(after), 0)
	if removed > 0 {
		zap.L().Info("retention: purged history",
			zap.Int("days", days),
			zap.Int("removed", removed),
		)
	}
	return removed, nil
}
