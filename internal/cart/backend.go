package cart

import "context"

// Backend is the persistence contract shared by the guest and remote stores.
// Load never fails on "no data"; it returns an empty list. ReplaceAll
// overwrites everything the backend holds with the given list, so an empty
// list discards the persisted cart.
type Backend interface {
	// Name labels the backend in logs and metrics.
	Name() string
	Load(ctx context.Context) ([]Line, error)
	ReplaceAll(ctx context.Context, lines []Line) error
}
