package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Register is a row of cash_registers.
type Register struct {
	RegisterID          string           `db:"register_id"`
	LocationID          string           `db:"location_id"`
	Name                string           `db:"name"`
	Status              string           `db:"status"`
	Role                string           `db:"role"`
	OpeningBalance      decimal.Decimal  `db:"opening_balance"`
	ClosingBalance      *decimal.Decimal `db:"closing_balance"` // Nullable
	OpenedBy            string           `db:"opened_by"`
	OpenedAt            time.Time        `db:"opened_at"`
	ClosedBy            *string          `db:"closed_by"` // Nullable
	ClosedAt            *time.Time       `db:"closed_at"` // Nullable
	ResponsibleOperator string           `db:"responsible_operator"`
	OpeningNotes        string           `db:"opening_notes"`
	ClosingNotes        string           `db:"closing_notes"`
	OpenRequestKey      *string          `db:"open_request_key"`  // Nullable
	CloseRequestKey     *string          `db:"close_request_key"` // Nullable
	Version             int64            `db:"version"`
	AuditFields
}
