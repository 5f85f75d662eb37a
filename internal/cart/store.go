package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/metrics"
)

// Store holds the published in-memory cart for one session. Mutations apply
// synchronously under the lock and return the new snapshot immediately; the
// pipeline persists each published list in the background and rolls the store
// back if the write for the latest snapshot fails.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	seq     uint64
	backend Backend

	pipe     *pipeline
	logg     *logger.Logger
	notifier Notifier
}

// StoreOptions tunes a store; zero values fall back to defaults.
type StoreOptions struct {
	Logger         *logger.Logger
	Notifier       Notifier
	Metrics        *metrics.CartMetrics
	QueueSize      int
	PersistTimeout time.Duration
}

const (
	defaultQueueSize      = 32
	defaultPersistTimeout = 10 * time.Second
)

// NewStore publishes the given lines and starts the persistence worker.
func NewStore(backend Backend, lines []Line, opts StoreOptions) *Store {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(opts.Logger)
	}

	s := &Store{
		lines:    cloneLines(lines),
		backend:  backend,
		logg:     opts.Logger,
		notifier: opts.Notifier,
	}
	s.pipe = newPipeline(s, opts)
	return s
}

// Cart returns the current published snapshot with fresh aggregates.
func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildCart(s.lines)
}

// AddLine upserts one line configuration: an existing key gets its quantity
// incremented, a new key is appended in insertion order.
func (s *Store) AddLine(ctx context.Context, input AddLineInput) (Cart, error) {
	quantity, err := normalizeAddQuantity(input.Quantity)
	if err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, "cart.add_line", func(lines []Line) ([]Line, error) {
		return applyAdd(lines, input, quantity)
	})
}

// AddMany is the batch form of AddLine applied as a single mutation. The two
// slices must pair up element by element.
func (s *Store) AddMany(ctx context.Context, inputs []AddLineInput, quantities []int) (Cart, error) {
	if len(inputs) != len(quantities) {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "items and quantities length mismatch")
	}
	normalized := make([]int, len(quantities))
	for i, q := range quantities {
		nq, err := normalizeAddQuantity(q)
		if err != nil {
			return Cart{}, err
		}
		normalized[i] = nq
	}
	return s.mutate(ctx, "cart.add_many", func(lines []Line) ([]Line, error) {
		var err error
		for i, input := range inputs {
			lines, err = applyAdd(lines, input, normalized[i])
			if err != nil {
				return nil, err
			}
		}
		return lines, nil
	})
}

// SetQuantity sets the matching line's quantity exactly. A quantity at or
// below zero removes the line. A missing key is a no-op worth a warning: it
// means the caller acted on a stale view.
func (s *Store) SetQuantity(ctx context.Context, itemID uuid.UUID, variantID, bundleID *uuid.UUID, quantity int) (Cart, error) {
	key, err := ResolveKey(itemID, variantID, bundleID)
	if err != nil {
		return Cart{}, err
	}
	if quantity <= 0 {
		return s.RemoveLine(ctx, itemID, variantID, bundleID)
	}
	return s.mutate(ctx, "cart.set_quantity", func(lines []Line) ([]Line, error) {
		for i := range lines {
			if lines[i].Key() == key {
				lines[i].Quantity = quantity
				return lines, nil
			}
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "set quantity targeted a line that no longer exists")
		}
		return lines, errNoop
	})
}

// RemoveLine deletes the matching line; removing an absent key is a no-op.
func (s *Store) RemoveLine(ctx context.Context, itemID uuid.UUID, variantID, bundleID *uuid.UUID) (Cart, error) {
	key, err := ResolveKey(itemID, variantID, bundleID)
	if err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, "cart.remove_line", func(lines []Line) ([]Line, error) {
		for i := range lines {
			if lines[i].Key() == key {
				return append(lines[:i], lines[i+1:]...), nil
			}
		}
		return lines, errNoop
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (Cart, error) {
	return s.mutate(ctx, "cart.clear", func(lines []Line) ([]Line, error) {
		return []Line{}, nil
	})
}

// Flush blocks until every dispatched persistence job has completed.
func (s *Store) Flush() {
	s.pipe.flush()
}

// Close drains pending persistence and stops the worker. The store must not
// be mutated afterwards.
func (s *Store) Close() {
	s.pipe.close()
}

// SwitchBackend swaps the active backend and republishes the given lines.
// Callers flush pending persistence first so no in-flight write straddles the
// swap; the merge coordinator is the only expected caller.
func (s *Store) SwitchBackend(backend Backend, lines []Line) {
	s.pipe.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = backend
	s.lines = cloneLines(lines)
}

// mutate applies fn to a working copy of the line list, publishes the result
// and dispatches a persistence job tagged with the new sequence number.
func (s *Store) mutate(ctx context.Context, op string, fn func(lines []Line) ([]Line, error)) (Cart, error) {
	s.mu.Lock()
	before := cloneLines(s.lines)
	next, err := fn(cloneLines(s.lines))
	if err == errNoop {
		cart := buildCart(s.lines)
		s.mu.Unlock()
		return cart, nil
	}
	if err != nil {
		s.mu.Unlock()
		return Cart{}, err
	}

	s.lines = next
	s.seq++
	job := persistJob{
		seq:      s.seq,
		op:       op,
		backend:  s.backend,
		lines:    cloneLines(next),
		snapshot: before,
	}
	cart := buildCart(s.lines)
	s.mu.Unlock()

	s.pipe.enqueue(job)
	return cart, nil
}

// latestSeq reports the most recently issued mutation sequence.
func (s *Store) latestSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// rollback restores the pre-mutation snapshot, but only when the failed write
// was for the latest published state; anything older already lost the race to
// a newer mutation and is discarded.
func (s *Store) rollback(seq uint64, snapshot []Line) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return false
	}
	s.lines = cloneLines(snapshot)
	return true
}

func applyAdd(lines []Line, input AddLineInput, quantity int) ([]Line, error) {
	key, err := ResolveKey(input.ItemID, input.VariantID, input.BundleID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity += quantity
			return lines, nil
		}
	}
	line, err := newLine(input, quantity)
	if err != nil {
		return nil, err
	}
	return append(lines, line), nil
}

func normalizeAddQuantity(quantity int) (int, error) {
	if quantity == 0 {
		return 1, nil
	}
	if quantity < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return quantity, nil
}
