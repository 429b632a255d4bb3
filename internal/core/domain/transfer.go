package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftTransferRefPrefix prefixes the reference of handover adjustments.
const ShiftTransferRefPrefix = "SHIFT_TRANSFER:"

// ShiftTransfer records custody of a set of registers moving between operators.
type ShiftTransfer struct {
	TransferID    string                `json:"transferID"`
	LocationID    string                `json:"locationID"`
	FromOperator  string                `json:"fromOperator"`
	ToOperator    string                `json:"toOperator"`
	Notes         string                `json:"notes"`
	PerformedBy   string                `json:"performedBy"`
	TransferredAt time.Time             `json:"transferredAt"`
	Registers     []TransferredRegister `json:"registers"`
}

// TransferredRegister is the per-register part of a shift transfer.
type TransferredRegister struct {
	RegisterID         string          `json:"registerID"`
	RegisterName       string          `json:"registerName"`
	PreviousOperator   string          `json:"previousOperator"`
	BalanceAtTransfer  decimal.Decimal `json:"balanceAtTransfer"`
	HandoverMovementID string          `json:"handoverMovementID"`
	// ExpectedVersion guards the write against a concurrent change of the register.
	ExpectedVersion int64 `json:"-"`
}

// HandoverMovement builds the balance-neutral adjustment recording the handover of one register.
func (t ShiftTransfer) HandoverMovement(r TransferredRegister) Movement {
	ref := ShiftTransferRefPrefix + t.TransferID
	notes := "Shift handover from " + t.FromOperator + " to " + t.ToOperator
	if t.Notes != "" {
		notes += ": " + t.Notes
	}
	return Movement{
		MovementID: r.HandoverMovementID,
		RegisterID: r.RegisterID,
		Type:       MovementAdjustment,
		Amount:     decimal.Zero,
		Tag:        TagShiftTransfer,
		Reference:  &ref,
		Notes:      notes,
		CreatedBy:  t.PerformedBy,
		CreatedAt:  t.TransferredAt,
	}
}
