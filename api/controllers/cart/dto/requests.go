package dto

import "github.com/google/uuid"

// AddLineRequest adds one line configuration; a zero quantity defaults to one.
type AddLineRequest struct {
	ItemID    uuid.UUID  `json:"item_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	BundleID  *uuid.UUID `json:"bundle_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"omitempty,min=1"`
}

// AddBatchRequest adds several configurations in one mutation. The items and
// quantities slices must pair up; the engine rejects a length mismatch.
type AddBatchRequest struct {
	Items      []AddLineRequest `json:"items" validate:"required,min=1,dive"`
	Quantities []int            `json:"quantities" validate:"required"`
}

// SetQuantityRequest sets a line's quantity exactly; zero or below removes it.
type SetQuantityRequest struct {
	ItemID    uuid.UUID  `json:"item_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	BundleID  *uuid.UUID `json:"bundle_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// RemoveLineRequest deletes the line matching the configuration.
type RemoveLineRequest struct {
	ItemID    uuid.UUID  `json:"item_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	BundleID  *uuid.UUID `json:"bundle_id,omitempty"`
}
