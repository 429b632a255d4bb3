package dto

import (
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AppendMovementRequest records a cash movement on an open register.
type AppendMovementRequest struct {
	Type      string           `json:"type" binding:"required,oneof=SALE DEPOSIT WITHDRAWAL EXPENSE ADJUSTMENT"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
	Reference *string          `json:"reference" binding:"omitempty,max=100"`
	Notes     string           `json:"notes" binding:"max=500"`
}

// ListMovementsParams defines parameters for listing movements.
type ListMovementsParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=0,max=100"`
	NextToken *string `form:"nextToken"`
}

// MovementResponse is the API view of a movement.
type MovementResponse struct {
	MovementID string          `json:"movementID"`
	RegisterID string          `json:"registerID"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Tag        string          `json:"tag,omitempty"`
	Reference  *string         `json:"reference,omitempty"`
	Notes      string          `json:"notes"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ListMovementsResponse is one page of movements plus the per-type summary of that page.
type ListMovementsResponse struct {
	Movements []MovementResponse     `json:"movements"`
	Summary   domain.MovementSummary `json:"summary"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToMovementResponse converts a domain movement.
func ToMovementResponse(m *domain.Movement) MovementResponse {
	return MovementResponse{
		MovementID: m.MovementID,
		RegisterID: m.RegisterID,
		Type:       string(m.Type),
		Amount:     m.Amount,
		Tag:        string(m.Tag),
		Reference:  m.Reference,
		Notes:      m.Notes,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// ToListMovementsResponse builds a page response.
func ToListMovementsResponse(movements []domain.Movement, nextToken *string) ListMovementsResponse {
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return ListMovementsResponse{
		Movements: out,
		Summary:   domain.Summarize(movements),
		NextToken: nextToken,
	}
}
