package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// LoadWeights tunes the register load score.
type LoadWeights struct {
	SalesCount    decimal.Decimal
	SalesAmount   decimal.Decimal
	Balance       decimal.Decimal
	Normalization decimal.Decimal // Divides money terms so they are comparable with counts
	FullLoadSales int             // Sales per day considered 100% utilization
}

// DefaultLoadWeights returns the weights the advisor ships with.
func DefaultLoadWeights() LoadWeights {
	return LoadWeights{
		SalesCount:    decimal.NewFromFloat(0.4),
		SalesAmount:   decimal.NewFromFloat(0.3),
		Balance:       decimal.NewFromFloat(0.3),
		Normalization: decimal.NewFromInt(1_000_000),
		FullLoadSales: 50,
	}
}

// Score computes count*w1 + amount/N*w2 + balance/N*w3. Lower means less loaded.
func (w LoadWeights) Score(salesCount int, salesAmount, balance decimal.Decimal) decimal.Decimal {
	norm := w.Normalization
	if !norm.IsPositive() {
		norm = decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(salesCount)).Mul(w.SalesCount).
		Add(salesAmount.Div(norm).Mul(w.SalesAmount)).
		Add(balance.Div(norm).Mul(w.Balance))
}

// Utilization is the share of a full day of sales already served, capped at 100.
func (w LoadWeights) Utilization(salesCount int) decimal.Decimal {
	full := w.FullLoadSales
	if full <= 0 {
		full = 50
	}
	pct := decimal.NewFromInt(int64(salesCount)).Mul(hundred).Div(decimal.NewFromInt(int64(full)))
	return decimal.Min(pct, hundred).Round(2)
}

// RegisterLoad is the advisor view of one open register.
type RegisterLoad struct {
	RegisterID       string          `json:"registerID"`
	RegisterName     string          `json:"registerName"`
	Role             RegisterRole    `json:"role"`
	OpenedAt         time.Time       `json:"openedAt"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	SalesCountToday  int             `json:"salesCountToday"`
	SalesAmountToday decimal.Decimal `json:"salesAmountToday"`
	Score            decimal.Decimal `json:"score"`
	UtilizationPct   decimal.Decimal `json:"utilizationPct"`
}

// MeasureLoad derives the load of an open session, counting sales in [dayStart, now].
func MeasureLoad(session Session, w LoadWeights, dayStart, now time.Time) RegisterLoad {
	today := Summarize(session.Between(dayStart, now))
	balance := session.CalculatedBalance()
	return RegisterLoad{
		RegisterID:       session.Register.RegisterID,
		RegisterName:     session.Register.Name,
		Role:             session.Register.Role,
		OpenedAt:         session.Register.OpenedAt,
		CurrentBalance:   balance,
		SalesCountToday:  today.SalesCount,
		SalesAmountToday: today.TotalSales,
		Score:            w.Score(today.SalesCount, today.TotalSales, balance),
		UtilizationPct:   w.Utilization(today.SalesCount),
	}
}

// LoadRecommendation is the advisor answer for one incoming sale.
type LoadRecommendation struct {
	LocationID             string          `json:"locationID"`
	SaleAmount             decimal.Decimal `json:"saleAmount"`
	Suggested              RegisterLoad    `json:"suggested"`
	Reason                 string          `json:"reason"`
	Candidates             []RegisterLoad  `json:"candidates"`
	LoadBalancingEffective bool            `json:"loadBalancingEffective"`
}

// RecommendRegister orders candidates by score (ties by opened_at then id) and picks the first.
func RecommendRegister(locationID string, saleAmount decimal.Decimal, loads []RegisterLoad) (LoadRecommendation, error) {
	if len(loads) == 0 {
		return LoadRecommendation{}, fmt.Errorf("%w: location %s", apperrors.ErrNoOpenRegister, locationID)
	}
	ranked := make([]RegisterLoad, len(loads))
	copy(ranked, loads)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Score.Cmp(ranked[j].Score); c != 0 {
			return c < 0
		}
		if !ranked[i].OpenedAt.Equal(ranked[j].OpenedAt) {
			return ranked[i].OpenedAt.Before(ranked[j].OpenedAt)
		}
		return ranked[i].RegisterID < ranked[j].RegisterID
	})

	best := ranked[0]
	reason := "Only open register at the location"
	if len(ranked) > 1 {
		reason = fmt.Sprintf("Lowest load score (%s) with %d sales today and %s%% utilization",
			best.Score.StringFixed(4), best.SalesCountToday, best.UtilizationPct.StringFixed(0))
	}
	return LoadRecommendation{
		LocationID:             locationID,
		SaleAmount:             saleAmount,
		Suggested:              best,
		Reason:                 reason,
		Candidates:             ranked,
		LoadBalancingEffective: len(ranked) > 1,
	}, nil
}
