package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is a register together with its movement history, oldest first.
type Session struct {
	Register  Register
	Movements []Movement
}

// ReplayBalance folds the signed amounts of movements onto the opening balance.
// It is the single source of truth for a register balance.
func ReplayBalance(opening decimal.Decimal, movements []Movement) decimal.Decimal {
	balance := opening
	for _, m := range movements {
		balance = balance.Add(m.SignedAmount())
	}
	return balance
}

// CalculatedBalance replays the full history of the session.
func (s Session) CalculatedBalance() decimal.Decimal {
	return ReplayBalance(s.Register.OpeningBalance, s.Movements)
}

// Until returns a copy of the session keeping movements created at or before t.
func (s Session) Until(t time.Time) Session {
	kept := make([]Movement, 0, len(s.Movements))
	for _, m := range s.Movements {
		if !m.CreatedAt.After(t) {
			kept = append(kept, m)
		}
	}
	return Session{Register: s.Register, Movements: kept}
}

// Between returns the movements created in [from, to].
func (s Session) Between(from, to time.Time) []Movement {
	var out []Movement
	for _, m := range s.Movements {
		if !m.CreatedAt.Before(from) && !m.CreatedAt.After(to) {
			out = append(out, m)
		}
	}
	return out
}

// MovementSummary aggregates movements per type.
type MovementSummary struct {
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	TotalAdjustments decimal.Decimal `json:"totalAdjustments"`
	SalesCount       int             `json:"salesCount"`
	MovementCount    int             `json:"movementCount"`
	LastMovementAt   *time.Time      `json:"lastMovementAt,omitempty"`
}

// NetChange is the signed effect of all summarised movements.
func (s MovementSummary) NetChange() decimal.Decimal {
	return s.TotalSales.Add(s.TotalDeposits).Add(s.TotalAdjustments).Sub(s.TotalWithdrawals).Sub(s.TotalExpenses)
}

// AverageTicket is the mean sale amount, zero when there were no sales.
func (s MovementSummary) AverageTicket() decimal.Decimal {
	if s.SalesCount == 0 {
		return decimal.Zero
	}
	return s.TotalSales.Div(decimal.NewFromInt(int64(s.SalesCount))).Round(2)
}

// Summarize groups movements by type.
func Summarize(movements []Movement) MovementSummary {
	sum := MovementSummary{
		TotalSales:       decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalAdjustments: decimal.Zero,
	}
	for i, m := range movements {
		switch m.Type {
		case MovementSale:
			sum.TotalSales = sum.TotalSales.Add(m.Amount)
			sum.SalesCount++
		case MovementDeposit:
			sum.TotalDeposits = sum.TotalDeposits.Add(m.Amount)
		case MovementWithdrawal:
			sum.TotalWithdrawals = sum.TotalWithdrawals.Add(m.Amount)
		case MovementExpense:
			sum.TotalExpenses = sum.TotalExpenses.Add(m.Amount)
		case MovementAdjustment:
			sum.TotalAdjustments = sum.TotalAdjustments.Add(m.Amount)
		}
		sum.MovementCount++
		if sum.LastMovementAt == nil || m.CreatedAt.After(*sum.LastMovementAt) {
			at := movements[i].CreatedAt
			sum.LastMovementAt = &at
		}
	}
	return sum
}
