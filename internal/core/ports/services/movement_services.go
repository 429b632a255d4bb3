package services

import (
	"context"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/shopspring/decimal"
)

// MovementWriterSvc appends to the movement log.
type MovementWriterSvc interface {
	AppendMovement(ctx context.Context, registerID string, req dto.AppendMovementRequest, operatorID string) (*domain.Movement, error)
}

// MovementReaderSvc pages through the movement log.
type MovementReaderSvc interface {
	ListMovements(ctx context.Context, registerID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error)
}

// MovementSvcFacade combines all movement-related service interfaces
type MovementSvcFacade interface {
	MovementWriterSvc
	MovementReaderSvc
}

// BalanceSvc derives register balances from the movement log.
type BalanceSvc interface {
	CalculateBalance(ctx context.Context, registerID string) (decimal.Decimal, error)
}
