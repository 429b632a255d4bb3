package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
)

// movementService appends to and reads the movement log.
type movementService struct {
	BaseService
	movementRepo portsrepo.MovementRepositoryFacade
}

// NewMovementService creates a new MovementSvcFacade.
func NewMovementService(movementRepo portsrepo.MovementRepositoryFacade, options ...ServiceOption) portssvc.MovementSvcFacade {
	return &movementService{
		BaseService:  newBaseService(options...),
		movementRepo: movementRepo,
	}
}

var _ portssvc.MovementSvcFacade = (*movementService)(nil)

// AppendMovement records a movement on an open register. Writes to the same register are
// serialised; transient storage contention is retried with backoff.
func (s *movementService) AppendMovement(ctx context.Context, registerID string, req dto.AppendMovementRequest, operatorID string) (*domain.Movement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if operatorID == "" {
		return nil, fmt.Errorf("%w: operator is required", apperrors.ErrValidation)
	}

	movement := domain.Movement{
		MovementID: s.newID(),
		RegisterID: registerID,
		Type:       domain.MovementType(req.Type),
		Amount:     *req.Amount,
		Reference:  req.Reference,
		Notes:      req.Notes,
		CreatedBy:  operatorID,
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, "append_movement", func(ctx context.Context) error {
		return s.locker.WithLock(ctx, portssvc.RegisterLockKey(registerID), func(ctx context.Context) error {
			movement.CreatedAt = s.now()
			_, err := s.movementRepo.AppendMovement(ctx, movement)
			return err
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to append movement",
			slog.String("register_id", registerID),
			slog.String("type", req.Type))
		return nil, err
	}

	s.invalidateBalance(ctx, registerID)
	s.metrics.MovementAppended(string(movement.Type))
	s.LogDebug(ctx, "Movement appended",
		slog.String("register_id", registerID),
		slog.String("movement_id", movement.MovementID),
		slog.String("type", string(movement.Type)),
		slog.String("amount", movement.Amount.String()))
	return &movement, nil
}

// ListMovements returns one page of the log, newest first, with a per-type summary of the page.
func (s *movementService) ListMovements(ctx context.Context, registerID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error) {
	if err := validateRequest(params); err != nil {
		return nil, err
	}

	movements, nextToken, err := s.movementRepo.ListMovementsByRegister(ctx, registerID, params.Limit, params.NextToken)
	if err != nil {
		s.logFailure(ctx, err, "Failed to list movements", slog.String("register_id", registerID))
		return nil, err
	}

	resp := dto.ToListMovementsResponse(movements, nextToken)
	return &resp, nil
}
