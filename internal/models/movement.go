package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is a row of cash_movements. Rows are never updated or deleted.
type Movement struct {
	MovementID   string          `db:"movement_id"`
	RegisterID   string          `db:"register_id"`
	MovementType string          `db:"movement_type"`
	Amount       decimal.Decimal `db:"amount"`
	Tag          string          `db:"tag"`
	Reference    *string         `db:"reference"` // Nullable
	Notes        string          `db:"notes"`
	CreatedBy    string          `db:"created_by"`
	CreatedAt    time.Time       `db:"created_at"`
}
