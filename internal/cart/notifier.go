package cart

import (
	"context"

	"github.com/verdantmarket/cartsync/pkg/logger"
)

// Notifier receives the engine's success/failure signals so the presentation
// layer can confirm a mutation or warn that the cart could not be saved. Only
// the occurrence of a failure travels this path, never backend internals.
type Notifier interface {
	MutationPersisted(ctx context.Context, op string)
	MutationFailed(ctx context.Context, op string, err error)
}

// LogNotifier is the default sink: it writes the signals to the service log.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) MutationPersisted(ctx context.Context, op string) {
	if n == nil || n.logg == nil {
		return
	}
	n.logg.Info(n.logg.WithField(ctx, "op", op), "cart mutation persisted")
}

func (n *LogNotifier) MutationFailed(ctx context.Context, op string, err error) {
	if n == nil || n.logg == nil {
		return
	}
	n.logg.Error(n.logg.WithField(ctx, "op", op), "cart mutation rolled back", err)
}
