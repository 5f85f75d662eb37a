package cart

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
)

// stubBackend records every replace-all write. A non-nil fail error is
// returned from each ReplaceAll call.
type stubBackend struct {
	mu    sync.Mutex
	fail  error
	saves [][]Line
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Load(ctx context.Context) ([]Line, error) {
	return []Line{}, nil
}

func (b *stubBackend) ReplaceAll(ctx context.Context, lines []Line) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.saves = append(b.saves, cloneLines(lines))
	return nil
}

func (b *stubBackend) savedLists() [][]Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]Line, len(b.saves))
	copy(out, b.saves)
	return out
}

// recordingNotifier captures persistence outcome signals.
type recordingNotifier struct {
	mu        sync.Mutex
	persisted []string
	failed    []error
}

func (n *recordingNotifier) MutationPersisted(ctx context.Context, op string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.persisted = append(n.persisted, op)
}

func (n *recordingNotifier) MutationFailed(ctx context.Context, op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, err)
}

func (n *recordingNotifier) failures() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]error, len(n.failed))
	copy(out, n.failed)
	return out
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	s := NewStore(backend, nil, StoreOptions{Logger: testLogger()})
	t.Cleanup(s.Close)
	return s
}

func addInput(itemID uuid.UUID, quantity int) AddLineInput {
	return AddLineInput{
		ItemID:   itemID,
		Quantity: quantity,
		Data: LineData{
			Name:          "test product",
			BaseUnitPrice: decimal.RequireFromString("100.00"),
		},
	}
}

func variantInput(itemID, variantID uuid.UUID, quantity int, price string) AddLineInput {
	p := decimal.RequireFromString(price)
	label := "variant"
	return AddLineInput{
		ItemID:    itemID,
		VariantID: &variantID,
		Quantity:  quantity,
		Data: LineData{
			Name:             "test product",
			VariantLabel:     &label,
			VariantUnitPrice: &p,
			BaseUnitPrice:    decimal.RequireFromString("100.00"),
		},
	}
}

func TestAddLineCollapsesSameConfiguration(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := s.AddLine(ctx, addInput(itemID, 3))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Lines[0].Quantity)
	}
}

func TestAddLineDistinctConfigurationsStaySeparate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()
	variantID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := s.AddLine(ctx, variantInput(itemID, variantID, 1, "150.00"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	// Insertion order is preserved.
	if cart.Lines[0].VariantID != nil || cart.Lines[1].VariantID == nil {
		t.Fatal("line order does not match insertion order")
	}
}

func TestAddLineQuantityNormalization(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})

	cart, err := s.AddLine(ctx, addInput(uuid.New(), 0))
	if err != nil {
		t.Fatalf("add with zero quantity failed: %v", err)
	}
	if cart.Lines[0].Quantity != 1 {
		t.Fatalf("zero quantity should default to 1, got %d", cart.Lines[0].Quantity)
	}

	if _, err := s.AddLine(ctx, addInput(uuid.New(), -2)); err == nil {
		t.Fatal("expected negative quantity to be rejected")
	}
}

func TestAddLineRejectsVariantAndBundle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	variantID := uuid.New()
	bundleID := uuid.New()

	input := addInput(uuid.New(), 1)
	input.VariantID = &variantID
	input.BundleID = &bundleID

	_, err := s.AddLine(ctx, input)
	if err == nil {
		t.Fatal("expected invalid configuration to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if got := s.Cart(); len(got.Lines) != 0 {
		t.Fatal("rejected mutation must not change state")
	}
}

func TestAddManyAppliesBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemA := uuid.New()
	itemB := uuid.New()

	cart, err := s.AddMany(ctx,
		[]AddLineInput{addInput(itemA, 0), addInput(itemB, 0), addInput(itemA, 0)},
		[]int{2, 1, 3},
	)
	if err != nil {
		t.Fatalf("add many failed: %v", err)
	}

	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected repeated item to sum to 5, got %d", cart.Lines[0].Quantity)
	}
	if cart.TotalItemCount != 6 {
		t.Fatalf("expected item count 6, got %d", cart.TotalItemCount)
	}
}

func TestAddManyLengthMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})

	_, err := s.AddMany(ctx, []AddLineInput{addInput(uuid.New(), 1)}, []int{1, 2})
	if err == nil {
		t.Fatal("expected length mismatch to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := s.Cart(); len(got.Lines) != 0 {
		t.Fatal("rejected batch must not change state")
	}
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := s.SetQuantity(ctx, itemID, nil, nil, 7)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if cart.Lines[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", cart.Lines[0].Quantity)
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := s.SetQuantity(ctx, itemID, nil, nil, 0)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("quantity 0 should remove the line, got %d lines", len(cart.Lines))
	}

	if _, err := s.AddLine(ctx, addInput(itemID, 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err = s.SetQuantity(ctx, itemID, nil, nil, -4)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatal("negative quantity should remove the line")
	}
}

func TestSetQuantityAbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})

	if _, err := s.AddLine(ctx, addInput(uuid.New(), 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := s.SetQuantity(ctx, uuid.New(), nil, nil, 5)
	if err != nil {
		t.Fatalf("absent key should not error: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatal("no-op mutation changed state")
	}
}

func TestRemoveLine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := s.RemoveLine(ctx, itemID, nil, nil)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}

	// Removing again is a no-op.
	if _, err := s.RemoveLine(ctx, itemID, nil, nil); err != nil {
		t.Fatalf("repeat remove should not error: %v", err)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})

	if _, err := s.AddLine(ctx, addInput(uuid.New(), 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := s.AddLine(ctx, addInput(uuid.New(), 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(cart.Lines) != 0 || cart.TotalItemCount != 0 {
		t.Fatal("clear left lines behind")
	}
	if !cart.TotalPrice.Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", cart.TotalPrice)
	}
}

func TestAggregatesRecomputedPerMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &stubBackend{})
	itemID := uuid.New()
	variantID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := s.AddLine(ctx, variantInput(itemID, variantID, 1, "150.00"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.TotalItemCount != 3 {
		t.Fatalf("expected count 3, got %d", cart.TotalItemCount)
	}
	if !cart.TotalPrice.Equal(decimal.RequireFromString("350.00")) {
		t.Fatalf("expected total 350.00, got %s", cart.TotalPrice)
	}

	cart, err = s.RemoveLine(ctx, itemID, nil, nil)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if cart.TotalItemCount != 1 {
		t.Fatalf("expected count 1, got %d", cart.TotalItemCount)
	}
	if !cart.TotalPrice.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected total 150.00, got %s", cart.TotalPrice)
	}
}

func TestMutationsPersistThroughBackend(t *testing.T) {
	ctx := context.Background()
	backend := &stubBackend{}
	s := newTestStore(t, backend)
	itemID := uuid.New()

	if _, err := s.AddLine(ctx, addInput(itemID, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	s.Flush()

	saves := backend.savedLists()
	if len(saves) != 1 {
		t.Fatalf("expected 1 persisted list, got %d", len(saves))
	}
	if len(saves[0]) != 1 || saves[0][0].Quantity != 2 {
		t.Fatalf("persisted list does not match published state: %+v", saves[0])
	}
}
