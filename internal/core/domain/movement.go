package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// MovementType classifies a cash movement.
type MovementType string

const (
	MovementSale       MovementType = "SALE"
	MovementDeposit    MovementType = "DEPOSIT"
	MovementWithdrawal MovementType = "WITHDRAWAL"
	MovementExpense    MovementType = "EXPENSE"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// MovementTypes lists every type in reporting order.
var MovementTypes = []MovementType{MovementSale, MovementDeposit, MovementWithdrawal, MovementExpense, MovementAdjustment}

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementSale, MovementDeposit, MovementWithdrawal, MovementExpense, MovementAdjustment:
		return true
	}
	return false
}

// AdjustmentTag qualifies an ADJUSTMENT movement.
type AdjustmentTag string

const (
	TagNone          AdjustmentTag = ""
	TagShortage      AdjustmentTag = "shortage"
	TagOverage       AdjustmentTag = "overage"
	TagShiftTransfer AdjustmentTag = "shift_transfer"
)

// Movement is an immutable cash event recorded against a register.
// Amount keeps the sign it was submitted with; only ADJUSTMENT may be zero or negative.
type Movement struct {
	MovementID string          `json:"movementID"`
	RegisterID string          `json:"registerID"`
	Type       MovementType    `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Tag        AdjustmentTag   `json:"tag,omitempty"`
	Reference  *string         `json:"reference,omitempty"`
	Notes      string          `json:"notes"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// SignedAmount is the effect of the movement on the register balance.
func (m Movement) SignedAmount() decimal.Decimal {
	switch m.Type {
	case MovementWithdrawal, MovementExpense:
		return m.Amount.Neg()
	default:
		return m.Amount
	}
}

// AmountScale is the number of decimal places stored for every amount.
const AmountScale = 4

// ExceedsAmountScale reports whether d would lose precision when stored.
func ExceedsAmountScale(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(AmountScale))
}

// reservedReferences maps system reference prefixes to the tags allowed to carry them.
var reservedReferences = map[string][]AdjustmentTag{
	CloseAdjustmentRefPrefix: {TagShortage, TagOverage},
	ShiftTransferRefPrefix:   {TagShiftTransfer},
}

// Validate checks the movement shape before it is appended.
// References starting with a system prefix are only accepted on movements carrying the matching tag.
func (m Movement) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("%w: unknown movement type %q", apperrors.ErrValidation, m.Type)
	}
	if m.RegisterID == "" {
		return fmt.Errorf("%w: register id is required", apperrors.ErrValidation)
	}
	if m.Type != MovementAdjustment {
		if !m.Amount.IsPositive() {
			return fmt.Errorf("%w: %s amount must be greater than zero", apperrors.ErrValidation, m.Type)
		}
		if m.Tag != TagNone {
			return fmt.Errorf("%w: only adjustments carry a tag", apperrors.ErrValidation)
		}
	}
	if ExceedsAmountScale(m.Amount) {
		return fmt.Errorf("%w: amount has more than %d decimal places", apperrors.ErrValidation, AmountScale)
	}
	if m.Reference != nil {
		for prefix, tags := range reservedReferences {
			if strings.HasPrefix(*m.Reference, prefix) && !slices.Contains(tags, m.Tag) {
				return fmt.Errorf("%w: reference prefix %q is reserved", apperrors.ErrValidation, prefix)
			}
		}
	}
	return nil
}
