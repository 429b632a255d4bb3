package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuditFlag marks a register condition worth attention.
type AuditFlag string

const (
	FlagIdle         AuditFlag = "idle"
	FlagOverloaded   AuditFlag = "overloaded"
	FlagHighActivity AuditFlag = "high_activity"
)

// NormalOperationRecommendation is emitted when no register is flagged.
const NormalOperationRecommendation = "All registers are operating within normal parameters"

// AuditThresholds tunes the consolidated audit.
type AuditThresholds struct {
	HighActivitySales int
}

// DefaultAuditThresholds returns the thresholds used when none are configured.
func DefaultAuditThresholds() AuditThresholds {
	return AuditThresholds{HighActivitySales: 100}
}

// RegisterAudit is the per-register part of an audit.
type RegisterAudit struct {
	RegisterID          string          `json:"registerID"`
	RegisterName        string          `json:"registerName"`
	Role                RegisterRole    `json:"role"`
	Status              RegisterStatus  `json:"status"`
	ResponsibleOperator string          `json:"responsibleOperator"`
	OpeningBalance      decimal.Decimal `json:"openingBalance"`
	CalculatedBalance   decimal.Decimal `json:"calculatedBalance"`
	SalesAmount         decimal.Decimal `json:"salesAmount"`
	SalesCount          int             `json:"salesCount"`
	MovementCount       int             `json:"movementCount"`
	AverageTicket       decimal.Decimal `json:"averageTicket"`
	LastMovementAt      *time.Time      `json:"lastMovementAt,omitempty"`
	Flags               []AuditFlag     `json:"flags"`
}

// HasFlag reports whether f was raised for the register.
func (r RegisterAudit) HasFlag(f AuditFlag) bool {
	for _, got := range r.Flags {
		if got == f {
			return true
		}
	}
	return false
}

// AuditSession measures one session as of asOf. The balance replays every movement up to asOf;
// activity figures only count movements in [windowStart, asOf].
func AuditSession(session Session, windowStart, asOf time.Time) RegisterAudit {
	upTo := session.Until(asOf)
	activity := Summarize(upTo.Between(windowStart, asOf))
	return RegisterAudit{
		RegisterID:          session.Register.RegisterID,
		RegisterName:        session.Register.Name,
		Role:                session.Register.Role,
		Status:              session.Register.Status,
		ResponsibleOperator: session.Register.ResponsibleOperator,
		OpeningBalance:      session.Register.OpeningBalance,
		CalculatedBalance:   upTo.CalculatedBalance(),
		SalesAmount:         activity.TotalSales,
		SalesCount:          activity.SalesCount,
		MovementCount:       activity.MovementCount,
		AverageTicket:       activity.AverageTicket(),
		LastMovementAt:      activity.LastMovementAt,
		Flags:               []AuditFlag{},
	}
}

// AuditRecord is the consolidated, read-only report for a set of registers.
type AuditRecord struct {
	AuditID             string          `json:"auditID"`
	LocationID          string          `json:"locationID"`
	AsOf                time.Time       `json:"asOf"`
	PerformedBy         string          `json:"performedBy"`
	PerformedAt         time.Time       `json:"performedAt"`
	RegistersAudited    int             `json:"registersAudited"`
	TotalOpeningBalance decimal.Decimal `json:"totalOpeningBalance"`
	TotalBalance        decimal.Decimal `json:"totalBalance"`
	TotalSalesAmount    decimal.Decimal `json:"totalSalesAmount"`
	TotalSalesCount     int             `json:"totalSalesCount"`
	TotalMovements      int             `json:"totalMovements"`
	AverageTicket       decimal.Decimal `json:"averageTicket"`
	Registers           []RegisterAudit `json:"registers"`
	Recommendations     []string        `json:"recommendations"`
}

// Consolidate aggregates per-register audits, raises flags and writes recommendations.
//
// A register is idle when it has no sale in the window; deposits, expenses and shift
// handovers do not count as activity. It is overloaded when its
// sales count exceeds twice the minimum sales count among registers that sold anything,
// which needs at least two such registers.
func Consolidate(regs []RegisterAudit, th AuditThresholds) AuditRecord {
	rec := AuditRecord{
		RegistersAudited:    len(regs),
		TotalOpeningBalance: decimal.Zero,
		TotalBalance:        decimal.Zero,
		TotalSalesAmount:    decimal.Zero,
		AverageTicket:       decimal.Zero,
		Registers:           regs,
	}

	minActive, active := 0, 0
	for _, r := range regs {
		rec.TotalOpeningBalance = rec.TotalOpeningBalance.Add(r.OpeningBalance)
		rec.TotalBalance = rec.TotalBalance.Add(r.CalculatedBalance)
		rec.TotalSalesAmount = rec.TotalSalesAmount.Add(r.SalesAmount)
		rec.TotalSalesCount += r.SalesCount
		rec.TotalMovements += r.MovementCount
		if r.SalesCount > 0 {
			if active == 0 || r.SalesCount < minActive {
				minActive = r.SalesCount
			}
			active++
		}
	}
	if rec.TotalSalesCount > 0 {
		rec.AverageTicket = rec.TotalSalesAmount.Div(decimal.NewFromInt(int64(rec.TotalSalesCount))).Round(2)
	}

	var recs []string
	for i := range regs {
		r := &regs[i]
		if r.SalesCount == 0 {
			r.Flags = append(r.Flags, FlagIdle)
			recs = append(recs, fmt.Sprintf("Register %s is idle: no sales recorded; consider closing it or routing sales to it", r.label()))
		}
		if active >= 2 && r.SalesCount > 2*minActive {
			r.Flags = append(r.Flags, FlagOverloaded)
			recs = append(recs, fmt.Sprintf("Register %s is overloaded with %d sales against a minimum of %d; redirect new sales to less loaded registers", r.label(), r.SalesCount, minActive))
		}
		if th.HighActivitySales > 0 && r.SalesCount > th.HighActivitySales {
			r.Flags = append(r.Flags, FlagHighActivity)
			recs = append(recs, fmt.Sprintf("Register %s has high activity with %d sales; consider opening an additional register", r.label(), r.SalesCount))
		}
	}
	if len(recs) == 0 {
		recs = []string{NormalOperationRecommendation}
	}
	rec.Recommendations = recs
	return rec
}

func (r RegisterAudit) label() string {
	if r.RegisterName == "" {
		return r.RegisterID
	}
	return fmt.Sprintf("%s (%s)", r.RegisterName, r.RegisterID)
}
