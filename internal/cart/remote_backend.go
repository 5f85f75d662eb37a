package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/cartsync/pkg/db/models"
	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
)

// RemoteBackend persists the authenticated cart as one row per line scoped by
// user id. It never touches another user's rows.
type RemoteBackend struct {
	db     *gorm.DB
	userID uuid.UUID
	logg   *logger.Logger
}

func NewRemoteBackend(db *gorm.DB, userID uuid.UUID, logg *logger.Logger) *RemoteBackend {
	return &RemoteBackend{db: db, userID: userID, logg: logg}
}

func (b *RemoteBackend) Name() string { return "remote" }

// Load returns the user's persisted lines in insertion order.
func (b *RemoteBackend) Load(ctx context.Context) ([]Line, error) {
	var rows []models.CartLine
	err := b.db.WithContext(ctx).
		Where("user_id = ?", b.userID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return []Line{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lineFromModel(row))
	}
	return lines, nil
}

// ReplaceAll deletes the user's rows and bulk-inserts the given list. The two
// steps are not wrapped in one transaction; an error from either step fails
// the whole operation and the caller's rollback or retry applies.
func (b *RemoteBackend) ReplaceAll(ctx context.Context, lines []Line) error {
	tx := b.db.WithContext(ctx)
	if err := tx.Where("user_id = ?", b.userID).Delete(&models.CartLine{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
	}
	if len(lines) == 0 {
		return nil
	}

	rows := make([]models.CartLine, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, modelFromLine(b.userID, i, line))
	}
	if err := tx.Create(&rows).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart lines")
	}
	return nil
}

func lineFromModel(row models.CartLine) Line {
	return Line{
		ItemID:           row.ItemID,
		VariantID:        row.VariantID,
		BundleID:         row.BundleID,
		Quantity:         row.Quantity,
		Name:             row.Name,
		ImageURL:         row.ImageURL,
		BrandName:        row.BrandName,
		VariantLabel:     row.VariantLabel,
		VariantUnitPrice: row.VariantUnitPrice,
		BundleLabel:      row.BundleLabel,
		BundleUnitPrice:  row.BundleUnitPrice,
		BaseUnitPrice:    row.BaseUnitPrice,
	}
}

func modelFromLine(userID uuid.UUID, position int, line Line) models.CartLine {
	return models.CartLine{
		UserID:           userID,
		ItemID:           line.ItemID,
		VariantID:        line.VariantID,
		BundleID:         line.BundleID,
		Quantity:         line.Quantity,
		Position:         position,
		Name:             line.Name,
		ImageURL:         line.ImageURL,
		BrandName:        line.BrandName,
		VariantLabel:     line.VariantLabel,
		VariantUnitPrice: line.VariantUnitPrice,
		BundleLabel:      line.BundleLabel,
		BundleUnitPrice:  line.BundleUnitPrice,
		BaseUnitPrice:    line.BaseUnitPrice,
	}
}
