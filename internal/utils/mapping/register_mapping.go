package mapping

import (
	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/models"
)

// ToModelRegister converts a domain register to its row.
func ToModelRegister(d domain.Register) models.Register {
	return models.Register{
		RegisterID:          d.RegisterID,
		LocationID:          d.LocationID,
		Name:                d.Name,
		Status:              string(d.Status),
		Role:                string(d.Role),
		OpeningBalance:      d.OpeningBalance,
		ClosingBalance:      d.ClosingBalance,
		OpenedBy:            d.OpenedBy,
		OpenedAt:            d.OpenedAt,
		ClosedBy:            d.ClosedBy,
		ClosedAt:            d.ClosedAt,
		ResponsibleOperator: d.ResponsibleOperator,
		OpeningNotes:        d.OpeningNotes,
		ClosingNotes:        d.ClosingNotes,
		OpenRequestKey:      d.OpenRequestKey,
		CloseRequestKey:     d.CloseRequestKey,
		Version:             d.Version,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainRegister converts a register row to the domain type.
func ToDomainRegister(m models.Register) domain.Register {
	return domain.Register{
		RegisterID:          m.RegisterID,
		LocationID:          m.LocationID,
		Name:                m.Name,
		Status:              domain.RegisterStatus(m.Status),
		Role:                domain.RegisterRole(m.Role),
		OpeningBalance:      m.OpeningBalance,
		ClosingBalance:      m.ClosingBalance,
		OpenedBy:            m.OpenedBy,
		OpenedAt:            m.OpenedAt,
		ClosedBy:            m.ClosedBy,
		ClosedAt:            m.ClosedAt,
		ResponsibleOperator: m.ResponsibleOperator,
		OpeningNotes:        m.OpeningNotes,
		ClosingNotes:        m.ClosingNotes,
		OpenRequestKey:      m.OpenRequestKey,
		CloseRequestKey:     m.CloseRequestKey,
		Version:             m.Version,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainRegisterSlice converts register rows.
func ToDomainRegisterSlice(ms []models.Register) []domain.Register {
	out := make([]domain.Register, len(ms))
	for i, m := range ms {
		out[i] = ToDomainRegister(m)
	}
	return out
}
