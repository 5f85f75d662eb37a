package cart

import (
	"context"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/metrics"
)

// MergeCoordinator reconciles a guest cart into a user's server cart at the
// sign-in transition. It runs before any further mutation persists, discards
// the guest copy only after the merged list is safely written, and is
// idempotent: once the guest store is empty a re-run changes nothing.
type MergeCoordinator struct {
	local   Backend
	remote  Backend
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

func NewMergeCoordinator(local, remote Backend, logg *logger.Logger, m *metrics.CartMetrics) *MergeCoordinator {
	return &MergeCoordinator{local: local, remote: remote, logg: logg, metrics: m}
}

// Merge returns the line list the session should publish. On a failed remote
// write the guest data is preserved for a later retry and the user's current
// server cart is returned alongside the error.
func (c *MergeCoordinator) Merge(ctx context.Context) ([]Line, error) {
	guestLines, err := c.local.Load(ctx)
	if err != nil {
		// The guest store is unreachable, not empty. Abort so its contents
		// are not silently dropped; the user keeps their server cart.
		c.metrics.IncMerge(err)
		remoteLines, remoteErr := c.remote.Load(ctx)
		if remoteErr != nil {
			return []Line{}, pkgerrors.Wrap(pkgerrors.CodeDependency, remoteErr, "load server cart")
		}
		return remoteLines, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart for merge")
	}

	remoteLines, err := c.remote.Load(ctx)
	if err != nil {
		c.metrics.IncMerge(err)
		return []Line{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load server cart for merge")
	}

	if len(guestLines) == 0 {
		c.metrics.IncMerge(nil)
		return remoteLines, nil
	}

	merged := MergeLines(remoteLines, guestLines)

	if err := c.remote.ReplaceAll(ctx, merged); err != nil {
		// Guest data stays put for the next attempt; the session falls back
		// to whatever the server currently holds.
		c.metrics.IncMerge(err)
		if c.logg != nil {
			c.logg.Error(ctx, "cart merge write failed, guest cart preserved for retry", err)
		}
		return remoteLines, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge guest cart")
	}

	if err := c.local.ReplaceAll(ctx, nil); err != nil {
		// The merged list is durable; a failed discard only means the next
		// merge attempt re-reads a guest cart that will re-sum quantities,
		// so log it loudly rather than failing the sign-in.
		if c.logg != nil {
			c.logg.Error(ctx, "failed to discard guest cart after merge", err)
		}
	}

	c.metrics.IncMerge(nil)
	if c.logg != nil {
		c.logg.Info(c.logg.WithFields(ctx, map[string]any{
			"guest_lines":  len(guestLines),
			"remote_lines": len(remoteLines),
			"merged_lines": len(merged),
		}), "guest cart merged into user cart")
	}
	return merged, nil
}

// MergeLines combines guest lines into remote lines: a shared key sums the
// quantities on the remote line, a guest-only key is appended as-is. The
// output never repeats a key as long as the inputs did not.
func MergeLines(remoteLines, guestLines []Line) []Line {
	merged := cloneLines(remoteLines)
	index := make(map[LineKey]int, len(merged))
	for i, line := range merged {
		index[line.Key()] = i
	}

	for _, guest := range guestLines {
		if i, ok := index[guest.Key()]; ok {
			merged[i].Quantity += guest.Quantity
			continue
		}
		merged = append(merged, guest)
		index[guest.Key()] = len(merged) - 1
	}
	return merged
}
