package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CloseAdjustmentRefPrefix prefixes the reference of adjustments posted by a close.
const CloseAdjustmentRefPrefix = "CLOSE:"

// ReconciliationOutcome summarises the sign of a close difference.
type ReconciliationOutcome string

const (
	OutcomeBalanced ReconciliationOutcome = "balanced"
	OutcomeShortage ReconciliationOutcome = "shortage"
	OutcomeOverage  ReconciliationOutcome = "overage"
)

// Reconciliation is the result of closing a register.
type Reconciliation struct {
	RegisterID        string          `json:"registerID"`
	LocationID        string          `json:"locationID"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	DeclaredBalance   decimal.Decimal `json:"declaredBalance"`
	Difference        decimal.Decimal `json:"difference"`
	Adjustment        *Movement       `json:"adjustment,omitempty"`
	ClosedBy          string          `json:"closedBy"`
	ClosedAt          time.Time       `json:"closedAt"`
	Notes             string          `json:"notes"`
	// Repeated is set when the close was answered from a previous request with the same key.
	Repeated bool `json:"repeated"`
}

// Outcome classifies the difference.
func (r Reconciliation) Outcome() ReconciliationOutcome {
	switch {
	case r.Difference.IsNegative():
		return OutcomeShortage
	case r.Difference.IsPositive():
		return OutcomeOverage
	default:
		return OutcomeBalanced
	}
}

// Reconcile compares the declared count against the replayed balance of an open session.
// When they differ it builds the ADJUSTMENT whose signed delta equals the difference so
// that replaying the log after the close yields exactly the declared amount.
func Reconcile(session Session, declared decimal.Decimal, operator string, at time.Time, adjustmentID string) (Reconciliation, error) {
	reg := session.Register
	if !reg.IsOpen() {
		return Reconciliation{}, fmt.Errorf("%w: register %s is already closed", apperrors.ErrInvalidState, reg.RegisterID)
	}
	if declared.IsNegative() {
		return Reconciliation{}, fmt.Errorf("%w: declared balance cannot be negative", apperrors.ErrValidation)
	}
	if ExceedsAmountScale(declared) {
		return Reconciliation{}, fmt.Errorf("%w: declared balance has more than %d decimal places", apperrors.ErrValidation, AmountScale)
	}
	if operator == "" {
		return Reconciliation{}, fmt.Errorf("%w: closing operator is required", apperrors.ErrValidation)
	}

	calculated := session.CalculatedBalance()
	rec := Reconciliation{
		RegisterID:        reg.RegisterID,
		LocationID:        reg.LocationID,
		CalculatedBalance: calculated,
		DeclaredBalance:   declared,
		Difference:        declared.Sub(calculated),
		ClosedBy:          operator,
		ClosedAt:          at,
	}
	if rec.Difference.IsZero() {
		return rec, nil
	}

	tag, note := TagOverage, "Overage found at close"
	if rec.Difference.IsNegative() {
		tag, note = TagShortage, "Shortage found at close"
	}
	ref := CloseAdjustmentRefPrefix + reg.RegisterID
	rec.Adjustment = &Movement{
		MovementID: adjustmentID,
		RegisterID: reg.RegisterID,
		Type:       MovementAdjustment,
		Amount:     rec.Difference,
		Tag:        tag,
		Reference:  &ref,
		Notes:      fmt.Sprintf("%s: declared %s, calculated %s", note, declared.StringFixed(2), calculated.StringFixed(2)),
		CreatedBy:  operator,
		CreatedAt:  at,
	}
	return rec, nil
}

// RestoreReconciliation rebuilds the close result of an already closed session from the
// persisted closing balance and the close adjustment, if one was posted.
func RestoreReconciliation(session Session) (Reconciliation, error) {
	reg := session.Register
	if reg.IsOpen() || reg.ClosingBalance == nil || reg.ClosedAt == nil || reg.ClosedBy == nil {
		return Reconciliation{}, fmt.Errorf("%w: register %s has no recorded close", apperrors.ErrInvalidState, reg.RegisterID)
	}
	rec := Reconciliation{
		RegisterID:      reg.RegisterID,
		LocationID:      reg.LocationID,
		DeclaredBalance: *reg.ClosingBalance,
		Difference:      decimal.Zero,
		ClosedBy:        *reg.ClosedBy,
		ClosedAt:        *reg.ClosedAt,
		Notes:           reg.ClosingNotes,
		Repeated:        true,
	}
	for i, m := range session.Movements {
		if IsCloseAdjustment(m, reg.RegisterID) {
			adj := session.Movements[i]
			rec.Adjustment = &adj
			rec.Difference = adj.Amount
		}
	}
	rec.CalculatedBalance = rec.DeclaredBalance.Sub(rec.Difference)
	return rec, nil
}

// IsCloseAdjustment reports whether m is the adjustment a close of registerID posted.
func IsCloseAdjustment(m Movement, registerID string) bool {
	if m.Type != MovementAdjustment || m.Reference == nil {
		return false
	}
	if m.Tag != TagShortage && m.Tag != TagOverage {
		return false
	}
	return *m.Reference == CloseAdjustmentRefPrefix+registerID
}

// SessionClosure summarises a batch close of every open register of a location.
type SessionClosure struct {
	LocationID        string           `json:"locationID"`
	Results           []Reconciliation `json:"results"`
	TotalCalculated   decimal.Decimal  `json:"totalCalculated"`
	TotalDeclared     decimal.Decimal  `json:"totalDeclared"`
	TotalDifference   decimal.Decimal  `json:"totalDifference"`
	AccuracyPct       decimal.Decimal  `json:"accuracyPct"`
	ClosedBy          string           `json:"closedBy"`
	ClosedAt          time.Time        `json:"closedAt"`
	RegistersBalanced int              `json:"registersBalanced"`
}

var hundred = decimal.NewFromInt(100)

// SummarizeClosures totals a batch of reconciliations.
// Accuracy is 100 - |total difference| / max(total calculated, 1) * 100, floored at zero.
func SummarizeClosures(locationID string, results []Reconciliation, operator string, at time.Time) SessionClosure {
	out := SessionClosure{
		LocationID:      locationID,
		Results:         results,
		TotalCalculated: decimal.Zero,
		TotalDeclared:   decimal.Zero,
		TotalDifference: decimal.Zero,
		ClosedBy:        operator,
		ClosedAt:        at,
	}
	for _, r := range results {
		out.TotalCalculated = out.TotalCalculated.Add(r.CalculatedBalance)
		out.TotalDeclared = out.TotalDeclared.Add(r.DeclaredBalance)
		out.TotalDifference = out.TotalDifference.Add(r.Difference)
		if r.Difference.IsZero() {
			out.RegistersBalanced++
		}
	}
	base := decimal.Max(out.TotalCalculated, decimal.NewFromInt(1))
	out.AccuracyPct = decimal.Max(decimal.Zero, hundred.Sub(out.TotalDifference.Abs().Div(base).Mul(hundred))).Round(2)
	return out
}
