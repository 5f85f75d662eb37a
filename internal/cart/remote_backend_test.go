package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartLinesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  variant_id TEXT,
  bundle_id TEXT,
  quantity INTEGER NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL,
  image_url TEXT,
  brand_name TEXT,
  variant_label TEXT,
  variant_unit_price TEXT,
  bundle_label TEXT,
  bundle_unit_price TEXT,
  base_unit_price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestRemoteBackendReplaceAllAndLoad(t *testing.T) {
	ctx := context.Background()
	db := setupCartLinesTestDB(t)
	userID := uuid.New()
	backend := NewRemoteBackend(db, userID, testLogger())

	variantID := uuid.New()
	price := decimal.RequireFromString("150.00")
	label := "1oz"
	lines := []Line{
		baseLine(uuid.New(), 2, "100.00"),
		{
			ItemID:           uuid.New(),
			VariantID:        &variantID,
			Quantity:         1,
			Name:             "variant product",
			VariantLabel:     &label,
			VariantUnitPrice: &price,
			BaseUnitPrice:    decimal.RequireFromString("90.00"),
		},
	}

	require.NoError(t, backend.ReplaceAll(ctx, lines))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, lines[0].ItemID, loaded[0].ItemID)
	assert.Equal(t, 2, loaded[0].Quantity)
	require.NotNil(t, loaded[1].VariantID)
	assert.Equal(t, variantID, *loaded[1].VariantID)
	require.NotNil(t, loaded[1].VariantUnitPrice)
	assert.True(t, loaded[1].VariantUnitPrice.Equal(price))
}

func TestRemoteBackendReplaceAllOverwrites(t *testing.T) {
	ctx := context.Background()
	db := setupCartLinesTestDB(t)
	userID := uuid.New()
	backend := NewRemoteBackend(db, userID, testLogger())

	require.NoError(t, backend.ReplaceAll(ctx, []Line{
		baseLine(uuid.New(), 1, "10.00"),
		baseLine(uuid.New(), 1, "20.00"),
	}))

	replacement := uuid.New()
	require.NoError(t, backend.ReplaceAll(ctx, []Line{baseLine(replacement, 4, "30.00")}))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, replacement, loaded[0].ItemID)
	assert.Equal(t, 4, loaded[0].Quantity)
}

func TestRemoteBackendEmptyListClearsRows(t *testing.T) {
	ctx := context.Background()
	db := setupCartLinesTestDB(t)
	backend := NewRemoteBackend(db, uuid.New(), testLogger())

	require.NoError(t, backend.ReplaceAll(ctx, []Line{baseLine(uuid.New(), 1, "10.00")}))
	require.NoError(t, backend.ReplaceAll(ctx, nil))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRemoteBackendScopesByUser(t *testing.T) {
	ctx := context.Background()
	db := setupCartLinesTestDB(t)
	alice := NewRemoteBackend(db, uuid.New(), testLogger())
	bob := NewRemoteBackend(db, uuid.New(), testLogger())

	require.NoError(t, alice.ReplaceAll(ctx, []Line{baseLine(uuid.New(), 1, "10.00")}))
	require.NoError(t, bob.ReplaceAll(ctx, []Line{
		baseLine(uuid.New(), 2, "20.00"),
		baseLine(uuid.New(), 3, "30.00"),
	}))

	// Replacing one user's cart must not touch the other's rows.
	require.NoError(t, alice.ReplaceAll(ctx, nil))

	bobLines, err := bob.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, bobLines, 2)

	aliceLines, err := alice.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, aliceLines)
}

func TestRemoteBackendPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	db := setupCartLinesTestDB(t)
	backend := NewRemoteBackend(db, uuid.New(), testLogger())

	items := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	lines := []Line{
		baseLine(items[0], 1, "10.00"),
		baseLine(items[1], 1, "20.00"),
		baseLine(items[2], 1, "30.00"),
	}
	require.NoError(t, backend.ReplaceAll(ctx, lines))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, itemID := range items {
		assert.Equal(t, itemID, loaded[i].ItemID, "line %d out of order", i)
	}
}
