package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterStatus is the lifecycle state of a register.
type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "OPEN"
	RegisterClosed RegisterStatus = "CLOSED"
)

// IsValid reports whether s is a known status.
func (s RegisterStatus) IsValid() bool {
	return s == RegisterOpen || s == RegisterClosed
}

// RegisterRole distinguishes the main register of a location from the extra ones opened in multi-register mode.
type RegisterRole string

const (
	RolePrimary   RegisterRole = "PRIMARY"
	RoleSecondary RegisterRole = "SECONDARY"
)

// Register is one cash drawer session. A register is opened once and closed once;
// reopening a location creates a new register.
type Register struct {
	RegisterID          string           `json:"registerID"`
	LocationID          string           `json:"locationID"`
	Name                string           `json:"name"`
	Status              RegisterStatus   `json:"status"`
	Role                RegisterRole     `json:"role"`
	OpeningBalance      decimal.Decimal  `json:"openingBalance"`
	ClosingBalance      *decimal.Decimal `json:"closingBalance,omitempty"` // Declared count, set on close
	OpenedBy            string           `json:"openedBy"`
	OpenedAt            time.Time        `json:"openedAt"`
	ClosedBy            *string          `json:"closedBy,omitempty"`
	ClosedAt            *time.Time       `json:"closedAt,omitempty"`
	ResponsibleOperator string           `json:"responsibleOperator"`
	OpeningNotes        string           `json:"openingNotes"`
	ClosingNotes        string           `json:"closingNotes"`
	OpenRequestKey      *string          `json:"-"`
	CloseRequestKey     *string          `json:"-"`
	// Version increases on every write touching the register or its movements.
	Version int64 `json:"version"`
	AuditFields
}

// IsOpen reports whether the register still accepts movements.
func (r Register) IsOpen() bool {
	return r.Status == RegisterOpen
}
