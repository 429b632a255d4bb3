package dto

import (
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenRegisterRequest opens one register at a location.
type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Name           string          `json:"name" binding:"omitempty,max=100"`
	Notes          string          `json:"notes" binding:"max=500"`
	// MultiRegister allows opening next to registers that are already open.
	MultiRegister  bool   `json:"multiRegister"`
	Role           string `json:"role" binding:"omitempty,oneof=PRIMARY SECONDARY"`
	IdempotencyKey string `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// OpenSessionRequest opens a primary register and, optionally, secondary ones in one step.
type OpenSessionRequest struct {
	PrimaryOpeningBalance     decimal.Decimal   `json:"primaryOpeningBalance"`
	SecondaryOpeningBalances  []decimal.Decimal `json:"secondaryOpeningBalances" binding:"max=20"`
	Notes                     string            `json:"notes" binding:"max=500"`
	AllowExistingOpenRegister bool              `json:"allowExistingOpenRegister"`
	IdempotencyKey            string            `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// CloseRegisterRequest closes a register with the physically counted amount.
type CloseRegisterRequest struct {
	DeclaredBalance decimal.Decimal `json:"declaredBalance"`
	Notes           string          `json:"notes" binding:"max=500"`
	IdempotencyKey  string          `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// CloseSessionRequest closes every open register of a location.
type CloseSessionRequest struct {
	// DeclaredBalances maps register ID to its counted amount; every open register must be present.
	DeclaredBalances map[string]decimal.Decimal `json:"declaredBalances" binding:"required,min=1"`
	Notes            string                     `json:"notes" binding:"max=500"`
}

// ListRegistersParams filters the registers of a location.
type ListRegistersParams struct {
	Status string `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
}

// RegisterResponse is the API view of a register.
type RegisterResponse struct {
	RegisterID          string           `json:"registerID"`
	LocationID          string           `json:"locationID"`
	Name                string           `json:"name"`
	Status              string           `json:"status"`
	Role                string           `json:"role"`
	OpeningBalance      decimal.Decimal  `json:"openingBalance"`
	ClosingBalance      *decimal.Decimal `json:"closingBalance,omitempty"`
	OpenedBy            string           `json:"openedBy"`
	OpenedAt            time.Time        `json:"openedAt"`
	ClosedBy            *string          `json:"closedBy,omitempty"`
	ClosedAt            *time.Time       `json:"closedAt,omitempty"`
	ResponsibleOperator string           `json:"responsibleOperator"`
	OpeningNotes        string           `json:"openingNotes"`
	ClosingNotes        string           `json:"closingNotes"`
}

// ToRegisterResponse converts a domain register.
func ToRegisterResponse(r *domain.Register) RegisterResponse {
	return RegisterResponse{
		RegisterID:          r.RegisterID,
		LocationID:          r.LocationID,
		Name:                r.Name,
		Status:              string(r.Status),
		Role:                string(r.Role),
		OpeningBalance:      r.OpeningBalance,
		ClosingBalance:      r.ClosingBalance,
		OpenedBy:            r.OpenedBy,
		OpenedAt:            r.OpenedAt,
		ClosedBy:            r.ClosedBy,
		ClosedAt:            r.ClosedAt,
		ResponsibleOperator: r.ResponsibleOperator,
		OpeningNotes:        r.OpeningNotes,
		ClosingNotes:        r.ClosingNotes,
	}
}

// ToRegisterResponses converts a slice of domain registers.
func ToRegisterResponses(registers []domain.Register) []RegisterResponse {
	out := make([]RegisterResponse, len(registers))
	for i := range registers {
		out[i] = ToRegisterResponse(&registers[i])
	}
	return out
}

// RegisterDetailResponse adds replayed figures to a register.
type RegisterDetailResponse struct {
	Register          RegisterResponse       `json:"register"`
	CalculatedBalance decimal.Decimal        `json:"calculatedBalance"`
	Summary           domain.MovementSummary `json:"summary"`
	// Difference is declared minus calculated before the close adjustment; only set once closed.
	Difference *decimal.Decimal `json:"difference,omitempty"`
}

// RegisterDetail is what the register service returns for a detail lookup.
type RegisterDetail struct {
	Register          domain.Register
	CalculatedBalance decimal.Decimal
	Summary           domain.MovementSummary
	Difference        *decimal.Decimal
}

// ToRegisterDetailResponse converts a register detail.
func ToRegisterDetailResponse(d *RegisterDetail) RegisterDetailResponse {
	return RegisterDetailResponse{
		Register:          ToRegisterResponse(&d.Register),
		CalculatedBalance: d.CalculatedBalance,
		Summary:           d.Summary,
		Difference:        d.Difference,
	}
}

// BalanceResponse carries a replayed balance.
type BalanceResponse struct {
	RegisterID string          `json:"registerID"`
	Balance    decimal.Decimal `json:"balance"`
}
