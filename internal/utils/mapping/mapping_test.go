package mapping_test

import (
	"testing"
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/models"
	"github.com/SscSPs/cashledger/internal/utils/mapping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMapping_KeepsNullableColumns(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	closing := decimal.NewFromInt(125000)
	by := "op-close"
	key := "close-1"
	reg := domain.Register{
		RegisterID:      "r1",
		LocationID:      "L1",
		Status:          domain.RegisterClosed,
		Role:            domain.RoleSecondary,
		OpeningBalance:  decimal.NewFromInt(100000),
		ClosingBalance:  &closing,
		ClosedBy:        &by,
		ClosedAt:        &at,
		CloseRequestKey: &key,
		Version:         7,
	}

	row := mapping.ToModelRegister(reg)
	assert.Equal(t, "CLOSED", row.Status)
	assert.Equal(t, "SECONDARY", row.Role)
	assert.Nil(t, row.OpenRequestKey)

	back := mapping.ToDomainRegister(row)
	assert.Equal(t, reg, back)
}

func TestMovementMapping_CarriesTag(t *testing.T) {
	ref := "CLOSE:r1"
	m := domain.Movement{MovementID: "m1", RegisterID: "r1", Type: domain.MovementAdjustment, Amount: decimal.NewFromInt(-5), Tag: domain.TagShortage, Reference: &ref}

	row := mapping.ToModelMovement(m)
	assert.Equal(t, "ADJUSTMENT", row.MovementType)
	assert.Equal(t, "shortage", row.Tag)
	assert.Equal(t, []domain.Movement{m}, mapping.ToDomainMovementSlice([]models.Movement{row}))
}
