package mapping

import (
	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/models"
)

// ToModelMovement converts a domain movement to its row.
func ToModelMovement(d domain.Movement) models.Movement {
	return models.Movement{
		MovementID:   d.MovementID,
		RegisterID:   d.RegisterID,
		MovementType: string(d.Type),
		Amount:       d.Amount,
		Tag:          string(d.Tag),
		Reference:    d.Reference,
		Notes:        d.Notes,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
	}
}

// ToDomainMovement converts a movement row to the domain type.
func ToDomainMovement(m models.Movement) domain.Movement {
	return domain.Movement{
		MovementID: m.MovementID,
		RegisterID: m.RegisterID,
		Type:       domain.MovementType(m.MovementType),
		Amount:     m.Amount,
		Tag:        domain.AdjustmentTag(m.Tag),
		Reference:  m.Reference,
		Notes:      m.Notes,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}

// ToDomainMovementSlice converts movement rows.
func ToDomainMovementSlice(ms []models.Movement) []domain.Movement {
	out := make([]domain.Movement, len(ms))
	for i, m := range ms {
		out[i] = ToDomainMovement(m)
	}
	return out
}
