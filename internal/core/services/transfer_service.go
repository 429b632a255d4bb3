package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
)

// transferService moves custody of registers between operators.
type transferService struct {
	BaseService
	registerRepo portsrepo.RegisterRepositoryFacade
}

// NewShiftTransferService creates a new ShiftTransferSvc.
func NewShiftTransferService(registerRepo portsrepo.RegisterRepositoryFacade, options ...ServiceOption) portssvc.ShiftTransferSvc {
	return &transferService{
		BaseService:  newBaseService(options...),
		registerRepo: registerRepo,
	}
}

var _ portssvc.ShiftTransferSvc = (*transferService)(nil)

// TransferShift reassigns every listed register to the incoming operator and records a zero
// handover adjustment on each. Either all registers are transferred or none is.
func (s *transferService) TransferShift(ctx context.Context, locationID string, req dto.TransferShiftRequest, operatorID string) (*domain.ShiftTransfer, error) {
	if err := checkActor(locationID, operatorID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ids := append([]string(nil), req.RegisterIDs...)
	sort.Strings(ids)

	var transfer domain.ShiftTransfer
	err := s.withRetry(ctx, "shift_transfer", func(ctx context.Context) error {
		return s.lockAll(ctx, ids, func(ctx context.Context) error {
			t, err := s.prepare(ctx, locationID, ids, req, operatorID)
			if err != nil {
				return err
			}
			if err := s.registerRepo.ApplyShiftTransfer(ctx, t); err != nil {
				return err
			}
			transfer = t
			return nil
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to transfer shift",
			slog.String("location_id", locationID),
			slog.Any("register_ids", ids))
		return nil, err
	}

	for _, id := range ids {
		s.invalidateBalance(ctx, id)
	}
	s.metrics.ShiftTransferred()
	s.LogInfo(ctx, "Shift transferred",
		slog.String("transfer_id", transfer.TransferID),
		slog.String("location_id", locationID),
		slog.String("from_operator", transfer.FromOperator),
		slog.String("to_operator", transfer.ToOperator),
		slog.Int("registers", len(transfer.Registers)))
	return &transfer, nil
}

// lockAll takes the register locks one after another in the order of ids, which callers keep sorted.
func (s *transferService) lockAll(ctx context.Context, ids []string, fn func(ctx context.Context) error) error {
	if len(ids) == 0 {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, portssvc.RegisterLockKey(ids[0]), func(ctx context.Context) error {
		return s.lockAll(ctx, ids[1:], fn)
	})
}

func (s *transferService) prepare(ctx context.Context, locationID string, ids []string, req dto.TransferShiftRequest, operatorID string) (domain.ShiftTransfer, error) {
	found, err := s.registerRepo.FindRegistersByIDs(ctx, ids)
	if err != nil {
		return domain.ShiftTransfer{}, err
	}
	for _, id := range ids {
		reg, ok := found[id]
		if !ok {
			return domain.ShiftTransfer{}, fmt.Errorf("%w: register %s", apperrors.ErrNotFound, id)
		}
		if reg.LocationID != locationID {
			return domain.ShiftTransfer{}, fmt.Errorf("%w: register %s does not belong to location %s", apperrors.ErrValidation, id, locationID)
		}
		if !reg.IsOpen() {
			return domain.ShiftTransfer{}, fmt.Errorf("%w: register %s is not open", apperrors.ErrValidation, id)
		}
	}

	t := domain.ShiftTransfer{
		TransferID:    s.newID(),
		LocationID:    locationID,
		FromOperator:  req.FromOperator,
		ToOperator:    req.ToOperator,
		Notes:         req.Notes,
		PerformedBy:   operatorID,
		TransferredAt: s.now(),
		Registers:     make([]domain.TransferredRegister, 0, len(ids)),
	}
	for _, id := range ids {
		session, err := s.registerRepo.LoadSession(ctx, id)
		if err != nil {
			return domain.ShiftTransfer{}, err
		}
		t.Registers = append(t.Registers, domain.TransferredRegister{
			RegisterID:         id,
			RegisterName:       session.Register.Name,
			PreviousOperator:   session.Register.ResponsibleOperator,
			BalanceAtTransfer:  session.CalculatedBalance(),
			HandoverMovementID: s.newID(),
			ExpectedVersion:    session.Register.Version,
		})
	}
	return t, nil
}
