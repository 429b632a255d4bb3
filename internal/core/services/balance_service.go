package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/SscSPs/cashledger/internal/apperrors"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// balanceService replays movement logs into balances.
type balanceService struct {
	BaseService
	registerRepo portsrepo.RegisterReader
	inflight     singleflight.Group
}

// NewBalanceService creates a new BalanceSvc.
func NewBalanceService(registerRepo portsrepo.RegisterReader, options ...ServiceOption) portssvc.BalanceSvc {
	return &balanceService{
		BaseService:  newBaseService(options...),
		registerRepo: registerRepo,
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

// CalculateBalance returns opening balance plus the signed sum of every movement of the register.
// A cached value is only used when it was computed at the current register version.
func (s *balanceService) CalculateBalance(ctx context.Context, registerID string) (decimal.Decimal, error) {
	if registerID == "" {
		return decimal.Zero, fmt.Errorf("%w: register id is required", apperrors.ErrValidation)
	}

	reg, err := s.registerRepo.FindRegisterByID(ctx, registerID)
	if err != nil {
		s.logFailure(ctx, err, "Failed to find register for balance", slog.String("register_id", registerID))
		return decimal.Zero, err
	}
	if bal, ok := s.cachedBalance(ctx, registerID, reg.Version); ok {
		return bal, nil
	}

	key := registerID + "@" + strconv.FormatInt(reg.Version, 10)
	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		session, err := s.registerRepo.LoadSession(ctx, registerID)
		if err != nil {
			return nil, err
		}
		bal := session.CalculatedBalance()
		s.storeBalance(ctx, registerID, session.Register.Version, bal)
		return bal, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to replay register balance", slog.String("register_id", registerID))
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}
