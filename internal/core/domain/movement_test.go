package domain_test

import (
	"testing"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMovement_SignedAmount(t *testing.T) {
	tests := []struct {
		name     string
		movement domain.Movement
		want     decimal.Decimal
	}{
		{"sale adds", domain.Movement{Type: domain.MovementSale, Amount: decimal.NewFromInt(300)}, decimal.NewFromInt(300)},
		{"deposit adds", domain.Movement{Type: domain.MovementDeposit, Amount: decimal.NewFromInt(50)}, decimal.NewFromInt(50)},
		{"withdrawal subtracts", domain.Movement{Type: domain.MovementWithdrawal, Amount: decimal.NewFromInt(20)}, decimal.NewFromInt(-20)},
		{"expense subtracts", domain.Movement{Type: domain.MovementExpense, Amount: decimal.NewFromInt(5)}, decimal.NewFromInt(-5)},
		{"adjustment keeps its sign", domain.Movement{Type: domain.MovementAdjustment, Amount: decimal.NewFromInt(-5000)}, decimal.NewFromInt(-5000)},
		{"zero adjustment", domain.Movement{Type: domain.MovementAdjustment, Amount: decimal.Zero}, decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.movement.SignedAmount()), "got %s", tt.movement.SignedAmount())
		})
	}
}

func TestMovement_Validate(t *testing.T) {
	tests := []struct {
		name     string
		movement domain.Movement
		wantErr  bool
	}{
		{"valid sale", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.NewFromInt(1)}, false},
		{"zero sale", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.Zero}, true},
		{"negative expense", domain.Movement{RegisterID: "r1", Type: domain.MovementExpense, Amount: decimal.NewFromInt(-3)}, true},
		{"unknown type", domain.Movement{RegisterID: "r1", Type: "REFUND", Amount: decimal.NewFromInt(3)}, true},
		{"missing register", domain.Movement{Type: domain.MovementDeposit, Amount: decimal.NewFromInt(3)}, true},
		{"tagged sale", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.NewFromInt(3), Tag: domain.TagOverage}, true},
		{"negative adjustment", domain.Movement{RegisterID: "r1", Type: domain.MovementAdjustment, Amount: decimal.NewFromInt(-3)}, false},
		{"zero adjustment", domain.Movement{RegisterID: "r1", Type: domain.MovementAdjustment, Amount: decimal.Zero, Tag: domain.TagShiftTransfer}, false},
		{"five decimals", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.RequireFromString("1.00001")}, true},
		{"four decimals", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.RequireFromString("1.0001")}, false},
		{"untagged close reference", domain.Movement{RegisterID: "r1", Type: domain.MovementAdjustment, Amount: decimal.NewFromInt(7), Reference: strPtr("CLOSE:r1")}, true},
		{"untagged handover reference", domain.Movement{RegisterID: "r1", Type: domain.MovementDeposit, Amount: decimal.NewFromInt(7), Reference: strPtr("SHIFT_TRANSFER:t1")}, true},
		{"tagged close reference", domain.Movement{RegisterID: "r1", Type: domain.MovementAdjustment, Amount: decimal.NewFromInt(-7), Tag: domain.TagShortage, Reference: strPtr("CLOSE:r1")}, false},
		{"free reference", domain.Movement{RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.NewFromInt(7), Reference: strPtr("sale-42")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.movement.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
