package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/shopspring/decimal"
)

var (
	ErrRegisterAlreadyOpen = fmt.Errorf("%w: location already has an open register", apperrors.ErrConflict)
	ErrPrimaryAlreadyOpen  = fmt.Errorf("%w: location already has an open primary register", apperrors.ErrConflict)
	ErrNegativeOpening     = fmt.Errorf("%w: opening balance cannot be negative", apperrors.ErrValidation)
	ErrOpeningPrecision    = fmt.Errorf("%w: opening balance has more than %d decimal places", apperrors.ErrValidation, domain.AmountScale)
	ErrOperatorRequired    = fmt.Errorf("%w: operator is required", apperrors.ErrValidation)
	ErrLocationRequired    = fmt.Errorf("%w: location is required", apperrors.ErrValidation)
)

// registerService drives the register lifecycle: open, reconcile and close.
type registerService struct {
	BaseService
	registerRepo portsrepo.RegisterRepositoryFacade
}

// NewRegisterService creates a new RegisterSvcFacade.
func NewRegisterService(registerRepo portsrepo.RegisterRepositoryFacade, options ...ServiceOption) portssvc.RegisterSvcFacade {
	return &registerService{
		BaseService:  newBaseService(options...),
		registerRepo: registerRepo,
	}
}

var _ portssvc.RegisterSvcFacade = (*registerService)(nil)

func (s *registerService) OpenRegister(ctx context.Context, locationID string, req dto.OpenRegisterRequest, operatorID string) (*domain.Register, error) {
	if err := checkActor(locationID, operatorID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.OpeningBalance.IsNegative() {
		return nil, ErrNegativeOpening
	}
	if domain.ExceedsAmountScale(req.OpeningBalance) {
		return nil, ErrOpeningPrecision
	}

	var opened *domain.Register
	err := s.withRetry(ctx, "open_register", func(ctx context.Context) error {
		return s.locker.WithLock(ctx, portssvc.LocationLockKey(locationID), func(ctx context.Context) error {
			if req.IdempotencyKey != "" {
				existing, err := s.registerRepo.FindRegisterByOpenKey(ctx, locationID, req.IdempotencyKey)
				if err == nil {
					opened = existing
					return nil
				}
				if !errors.Is(err, apperrors.ErrNotFound) {
					return err
				}
			}

			open, err := s.openRegisters(ctx, locationID)
			if err != nil {
				return err
			}
			role, err := resolveRole(open, domain.RegisterRole(req.Role), req.MultiRegister)
			if err != nil {
				return err
			}

			now := s.now()
			name := req.Name
			if name == "" {
				name = defaultRegisterName(role, len(open)+1, now)
			}
			reg := s.newRegister(locationID, name, role, req.OpeningBalance, operatorID, req.Notes, optionalKey(req.IdempotencyKey), now)
			if err := s.registerRepo.CreateRegisters(ctx, []domain.Register{reg}); err != nil {
				return err
			}
			opened = &reg
			return nil
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to open register", slog.String("location_id", locationID))
		return nil, err
	}

	s.LogInfo(ctx, "Register opened",
		slog.String("register_id", opened.RegisterID),
		slog.String("location_id", locationID),
		slog.String("role", string(opened.Role)),
		slog.String("opening_balance", opened.OpeningBalance.String()))
	return opened, nil
}

func (s *registerService) OpenSession(ctx context.Context, locationID string, req dto.OpenSessionRequest, operatorID string) ([]domain.Register, error) {
	if err := checkActor(locationID, operatorID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	balances := append([]decimal.Decimal{req.PrimaryOpeningBalance}, req.SecondaryOpeningBalances...)
	for _, b := range balances {
		if b.IsNegative() {
			return nil, ErrNegativeOpening
		}
		if domain.ExceedsAmountScale(b) {
			return nil, ErrOpeningPrecision
		}
	}

	var opened []domain.Register
	err := s.withRetry(ctx, "open_session", func(ctx context.Context) error {
		return s.locker.WithLock(ctx, portssvc.LocationLockKey(locationID), func(ctx context.Context) error {
			if req.IdempotencyKey != "" {
				existing, err := s.findSessionByKey(ctx, locationID, req.IdempotencyKey, len(balances))
				if err != nil {
					return err
				}
				if existing != nil {
					opened = existing
					return nil
				}
			}

			open, err := s.openRegisters(ctx, locationID)
			if err != nil {
				return err
			}
			if len(open) > 0 && !req.AllowExistingOpenRegister {
				return ErrRegisterAlreadyOpen
			}
			firstRole := domain.RolePrimary
			if hasOpenPrimary(open) {
				firstRole = domain.RoleSecondary
			}

			now := s.now()
			batch := make([]domain.Register, 0, len(balances))
			for i, bal := range balances {
				role := domain.RoleSecondary
				if i == 0 {
					role = firstRole
				}
				batch = append(batch, s.newRegister(locationID,
					defaultRegisterName(role, len(open)+i+1, now),
					role, bal, operatorID, req.Notes,
					optionalKey(sessionKey(req.IdempotencyKey, i)), now))
			}
			if err := s.registerRepo.CreateRegisters(ctx, batch); err != nil {
				return err
			}
			opened = batch
			return nil
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to open session", slog.String("location_id", locationID))
		return nil, err
	}

	s.LogInfo(ctx, "Session opened", slog.String("location_id", locationID), slog.Int("registers", len(opened)))
	return opened, nil
}

func (s *registerService) CloseRegister(ctx context.Context, registerID string, req dto.CloseRegisterRequest, operatorID string) (*domain.Reconciliation, error) {
	if operatorID == "" {
		return nil, ErrOperatorRequired
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	rec, err := s.closeOne(ctx, registerID, req.DeclaredBalance, req.Notes, operatorID, optionalKey(req.IdempotencyKey))
	if err != nil {
		s.logFailure(ctx, err, "Failed to close register", slog.String("register_id", registerID))
		return nil, err
	}
	return rec, nil
}

func (s *registerService) CloseSession(ctx context.Context, locationID string, req dto.CloseSessionRequest, operatorID string) (*domain.SessionClosure, error) {
	if err := checkActor(locationID, operatorID); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var closure domain.SessionClosure
	err := s.locker.WithLock(ctx, portssvc.LocationLockKey(locationID), func(ctx context.Context) error {
		open, err := s.openRegisters(ctx, locationID)
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return fmt.Errorf("%w: location %s", apperrors.ErrNoOpenRegister, locationID)
		}
		if err := checkDeclarations(open, req.DeclaredBalances); err != nil {
			return err
		}

		results := make([]domain.Reconciliation, 0, len(open))
		for _, reg := range open {
			rec, err := s.closeOne(ctx, reg.RegisterID, req.DeclaredBalances[reg.RegisterID], req.Notes, operatorID, nil)
			if err != nil {
				return fmt.Errorf("closing register %s: %w", reg.RegisterID, err)
			}
			results = append(results, *rec)
		}
		closure = domain.SummarizeClosures(locationID, results, operatorID, s.now())
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to close session", slog.String("location_id", locationID))
		return nil, err
	}

	s.LogInfo(ctx, "Session closed",
		slog.String("location_id", locationID),
		slog.Int("registers", len(closure.Results)),
		slog.String("total_difference", closure.TotalDifference.String()),
		slog.String("accuracy_pct", closure.AccuracyPct.String()))
	return &closure, nil
}

// closeOne reconciles and closes a single register under its lock. A repeat with the key of the
// close that already happened returns that close instead of failing.
func (s *registerService) closeOne(ctx context.Context, registerID string, declared decimal.Decimal, notes, operatorID string, requestKey *string) (*domain.Reconciliation, error) {
	var result domain.Reconciliation
	err := s.withRetry(ctx, "close_register", func(ctx context.Context) error {
		return s.locker.WithLock(ctx, portssvc.RegisterLockKey(registerID), func(ctx context.Context) error {
			session, err := s.registerRepo.LoadSession(ctx, registerID)
			if err != nil {
				return err
			}
			if !session.Register.IsOpen() {
				if requestKey != nil && session.Register.CloseRequestKey != nil && *session.Register.CloseRequestKey == *requestKey {
					result, err = domain.RestoreReconciliation(*session)
					return err
				}
				return fmt.Errorf("%w: register %s is already closed", apperrors.ErrInvalidState, registerID)
			}

			rec, err := domain.Reconcile(*session, declared, operatorID, s.now(), s.newID())
			if err != nil {
				return err
			}
			rec.Notes = notes
			if err := s.registerRepo.CloseRegister(ctx, rec, requestKey, session.Register.Version); err != nil {
				return err
			}
			result = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if result.Repeated {
		return &result, nil
	}

	s.invalidateBalance(ctx, registerID)
	s.metrics.RegisterClosed(string(result.Outcome()), result.Difference)
	s.LogInfo(ctx, "Register closed",
		slog.String("register_id", registerID),
		slog.String("calculated_balance", result.CalculatedBalance.String()),
		slog.String("declared_balance", result.DeclaredBalance.String()),
		slog.String("difference", result.Difference.String()),
		slog.String("outcome", string(result.Outcome())))
	return &result, nil
}

func (s *registerService) GetRegister(ctx context.Context, registerID string) (*domain.Register, error) {
	reg, err := s.registerRepo.FindRegisterByID(ctx, registerID)
	if err != nil {
		s.logFailure(ctx, err, "Failed to get register", slog.String("register_id", registerID))
		return nil, err
	}
	return reg, nil
}

func (s *registerService) ListRegisters(ctx context.Context, locationID string, params dto.ListRegistersParams) ([]domain.Register, error) {
	if locationID == "" {
		return nil, ErrLocationRequired
	}
	if err := validateRequest(params); err != nil {
		return nil, err
	}
	var status *domain.RegisterStatus
	if params.Status != "" {
		st := domain.RegisterStatus(params.Status)
		status = &st
	}
	regs, err := s.registerRepo.ListRegistersByLocation(ctx, locationID, status)
	if err != nil {
		s.logFailure(ctx, err, "Failed to list registers", slog.String("location_id", locationID))
		return nil, err
	}
	return regs, nil
}

func (s *registerService) GetRegisterDetail(ctx context.Context, registerID string) (*dto.RegisterDetail, error) {
	session, err := s.registerRepo.LoadSession(ctx, registerID)
	if err != nil {
		s.logFailure(ctx, err, "Failed to load register detail", slog.String("register_id", registerID))
		return nil, err
	}

	detail := &dto.RegisterDetail{
		Register:          session.Register,
		CalculatedBalance: session.CalculatedBalance(),
		Summary:           domain.Summarize(session.Movements),
	}
	if !session.Register.IsOpen() {
		if rec, err := domain.RestoreReconciliation(*session); err == nil {
			diff := rec.Difference
			detail.Difference = &diff
		}
	}
	return detail, nil
}

func (s *registerService) openRegisters(ctx context.Context, locationID string) ([]domain.Register, error) {
	status := domain.RegisterOpen
	return s.registerRepo.ListRegistersByLocation(ctx, locationID, &status)
}

// findSessionByKey returns the registers of a session opened earlier with key, or nil when there is none.
func (s *registerService) findSessionByKey(ctx context.Context, locationID, key string, size int) ([]domain.Register, error) {
	out := make([]domain.Register, 0, size)
	for i := 0; i < size; i++ {
		reg, err := s.registerRepo.FindRegisterByOpenKey(ctx, locationID, sessionKey(key, i))
		if errors.Is(err, apperrors.ErrNotFound) {
			if i == 0 {
				return nil, nil
			}
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, nil
}

func (s *registerService) newRegister(locationID, name string, role domain.RegisterRole, opening decimal.Decimal, operatorID, notes string, key *string, now time.Time) domain.Register {
	return domain.Register{
		RegisterID:          s.newID(),
		LocationID:          locationID,
		Name:                name,
		Status:              domain.RegisterOpen,
		Role:                role,
		OpeningBalance:      opening,
		OpenedBy:            operatorID,
		OpenedAt:            now,
		ResponsibleOperator: operatorID,
		OpeningNotes:        notes,
		OpenRequestKey:      key,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     operatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: operatorID,
		},
	}
}

func resolveRole(open []domain.Register, requested domain.RegisterRole, multi bool) (domain.RegisterRole, error) {
	if len(open) > 0 && !multi {
		return "", ErrRegisterAlreadyOpen
	}
	primaryOpen := hasOpenPrimary(open)
	switch requested {
	case domain.RolePrimary:
		if primaryOpen {
			return "", ErrPrimaryAlreadyOpen
		}
		return domain.RolePrimary, nil
	case domain.RoleSecondary:
		return domain.RoleSecondary, nil
	default:
		if primaryOpen {
			return domain.RoleSecondary, nil
		}
		return domain.RolePrimary, nil
	}
}

func hasOpenPrimary(open []domain.Register) bool {
	for _, r := range open {
		if r.Role == domain.RolePrimary {
			return true
		}
	}
	return false
}

// checkDeclarations requires exactly one declared balance per open register.
func checkDeclarations(open []domain.Register, declared map[string]decimal.Decimal) error {
	var missing []string
	openIDs := make(map[string]struct{}, len(open))
	for _, r := range open {
		openIDs[r.RegisterID] = struct{}{}
		amount, ok := declared[r.RegisterID]
		if !ok {
			missing = append(missing, r.RegisterID)
			continue
		}
		if amount.IsNegative() {
			return fmt.Errorf("%w: declared balance for register %s cannot be negative", apperrors.ErrValidation, r.RegisterID)
		}
		if domain.ExceedsAmountScale(amount) {
			return fmt.Errorf("%w: declared balance for register %s has more than %d decimal places", apperrors.ErrValidation, r.RegisterID, domain.AmountScale)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing declared balance for registers %v", apperrors.ErrValidation, missing)
	}
	for id := range declared {
		if _, ok := openIDs[id]; !ok {
			return fmt.Errorf("%w: register %s is not open at this location", apperrors.ErrValidation, id)
		}
	}
	return nil
}

func checkActor(locationID, operatorID string) error {
	if locationID == "" {
		return ErrLocationRequired
	}
	if operatorID == "" {
		return ErrOperatorRequired
	}
	return nil
}

func defaultRegisterName(role domain.RegisterRole, n int, now time.Time) string {
	label := "Primary"
	if role == domain.RoleSecondary {
		label = "Secondary"
	}
	return fmt.Sprintf("%s register %d - %s", label, n, now.Format("20060102"))
}

func sessionKey(key string, i int) string {
	if key == "" || i == 0 {
		return key
	}
	return key + "#" + strconv.Itoa(i)
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}
