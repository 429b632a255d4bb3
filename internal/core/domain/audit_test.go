package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditWithSales(id string, sales int) domain.RegisterAudit {
	return domain.RegisterAudit{
		RegisterID:        id,
		OpeningBalance:    decimal.NewFromInt(100),
		CalculatedBalance: decimal.NewFromInt(100 + int64(sales)),
		SalesAmount:       decimal.NewFromInt(int64(sales)),
		SalesCount:        sales,
		MovementCount:     sales,
		Flags:             []domain.AuditFlag{},
	}
}

func TestAuditSession(t *testing.T) {
	s := domain.Session{
		Register: domain.Register{RegisterID: "r1", Name: "Front", OpeningBalance: decimal.NewFromInt(1000), Status: domain.RegisterOpen},
		Movements: []domain.Movement{
			mv(domain.MovementSale, 100, t0.Add(-24*time.Hour)),
			mv(domain.MovementSale, 300, t0),
			mv(domain.MovementSale, 900, t0.Add(2*time.Hour)),
		},
	}

	got := domain.AuditSession(s, domain.StartOfDay(t0), t0.Add(time.Hour))

	assert.True(t, decimal.NewFromInt(1400).Equal(got.CalculatedBalance), "balance replays everything up to as-of")
	assert.Equal(t, 1, got.SalesCount, "activity only counts the window")
	assert.True(t, decimal.NewFromInt(300).Equal(got.SalesAmount))
	assert.True(t, decimal.NewFromInt(300).Equal(got.AverageTicket))
}

func TestConsolidate_FlagsIdle(t *testing.T) {
	rec := domain.Consolidate([]domain.RegisterAudit{auditWithSales("r1", 3), auditWithSales("r2", 0)}, domain.DefaultAuditThresholds())

	require.Len(t, rec.Registers, 2)
	assert.True(t, rec.Registers[1].HasFlag(domain.FlagIdle))
	assert.False(t, rec.Registers[0].HasFlag(domain.FlagIdle))
	require.Len(t, rec.Recommendations, 1)
	assert.True(t, strings.Contains(rec.Recommendations[0], "r2"))
	assert.True(t, strings.Contains(rec.Recommendations[0], "idle"))
	assert.Equal(t, 3, rec.TotalSalesCount)
	assert.True(t, decimal.NewFromInt(203).Equal(rec.TotalBalance))
}

func TestConsolidate_FlagsOverloaded(t *testing.T) {
	rec := domain.Consolidate([]domain.RegisterAudit{
		auditWithSales("r1", 2),
		auditWithSales("r2", 5),
		auditWithSales("r3", 4),
	}, domain.DefaultAuditThresholds())

	assert.False(t, rec.Registers[0].HasFlag(domain.FlagOverloaded))
	assert.True(t, rec.Registers[1].HasFlag(domain.FlagOverloaded))
	assert.False(t, rec.Registers[2].HasFlag(domain.FlagOverloaded), "exactly twice the minimum is not overloaded")
}

func TestConsolidate_SingleActiveIsNeverOverloaded(t *testing.T) {
	rec := domain.Consolidate([]domain.RegisterAudit{auditWithSales("r1", 40)}, domain.DefaultAuditThresholds())
	assert.Empty(t, rec.Registers[0].Flags)
	assert.Equal(t, []string{domain.NormalOperationRecommendation}, rec.Recommendations)
}

func TestConsolidate_HighActivity(t *testing.T) {
	rec := domain.Consolidate([]domain.RegisterAudit{auditWithSales("r1", 101)}, domain.AuditThresholds{HighActivitySales: 100})
	assert.True(t, rec.Registers[0].HasFlag(domain.FlagHighActivity))
	assert.True(t, decimal.NewFromInt(1).Equal(rec.AverageTicket))
}

func TestConsolidate_HandoverIsNotActivity(t *testing.T) {
	handedOver := auditWithSales("r2", 0)
	handedOver.MovementCount = 1

	rec := domain.Consolidate([]domain.RegisterAudit{auditWithSales("r1", 40), handedOver}, domain.DefaultAuditThresholds())

	assert.True(t, rec.Registers[1].HasFlag(domain.FlagIdle))
	assert.NotEqual(t, []string{domain.NormalOperationRecommendation}, rec.Recommendations)
}
