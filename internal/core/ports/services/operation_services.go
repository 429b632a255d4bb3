package services

import (
	"context"
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/shopspring/decimal"
)

// LoadAdvisorSvc suggests which open register should take the next sale.
type LoadAdvisorSvc interface {
	RecommendRegister(ctx context.Context, locationID string, saleAmount decimal.Decimal) (*domain.LoadRecommendation, error)
}

// ShiftTransferSvc hands registers over between operators.
type ShiftTransferSvc interface {
	TransferShift(ctx context.Context, locationID string, req dto.TransferShiftRequest, operatorID string) (*domain.ShiftTransfer, error)
}

// AuditSvc produces read-only consolidated audits.
type AuditSvc interface {
	ConsolidatedAudit(ctx context.Context, locationID string, registerIDs []string, asOf time.Time, operatorID string) (*domain.AuditRecord, error)
}
