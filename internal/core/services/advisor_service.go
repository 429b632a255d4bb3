package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// sessionFanOut bounds concurrent session loads for advisor and audit.
const sessionFanOut = 8

// advisorService ranks the open registers of a location by load.
type advisorService struct {
	BaseService
	registerRepo portsrepo.RegisterReader
}

// NewLoadAdvisorService creates a new LoadAdvisorSvc.
func NewLoadAdvisorService(registerRepo portsrepo.RegisterReader, options ...ServiceOption) portssvc.LoadAdvisorSvc {
	return &advisorService{
		BaseService:  newBaseService(options...),
		registerRepo: registerRepo,
	}
}

var _ portssvc.LoadAdvisorSvc = (*advisorService)(nil)

// RecommendRegister suggests the open register with the lowest load score for a sale of saleAmount.
// It never writes.
func (s *advisorService) RecommendRegister(ctx context.Context, locationID string, saleAmount decimal.Decimal) (*domain.LoadRecommendation, error) {
	if locationID == "" {
		return nil, ErrLocationRequired
	}
	if !saleAmount.IsPositive() {
		return nil, fmt.Errorf("%w: sale amount must be positive", apperrors.ErrValidation)
	}

	status := domain.RegisterOpen
	open, err := s.registerRepo.ListRegistersByLocation(ctx, locationID, &status)
	if err != nil {
		s.logFailure(ctx, err, "Failed to list open registers", slog.String("location_id", locationID))
		return nil, err
	}

	now := s.now()
	dayStart := domain.StartOfDay(now)
	loads := make([]*domain.RegisterLoad, len(open))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sessionFanOut)
	for i := range open {
		id := open[i].RegisterID
		g.Go(func() error {
			session, err := s.registerRepo.LoadSession(gctx, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading register %s: %w", id, err)
			}
			// Closed between the listing and the load.
			if !session.Register.IsOpen() {
				return nil
			}
			load := domain.MeasureLoad(*session, s.weights, dayStart, now)
			loads[i] = &load
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, err, "Failed to measure register loads", slog.String("location_id", locationID))
		return nil, err
	}

	candidates := make([]domain.RegisterLoad, 0, len(loads))
	for _, l := range loads {
		if l != nil {
			candidates = append(candidates, *l)
		}
	}

	rec, err := domain.RecommendRegister(locationID, saleAmount, candidates)
	if err != nil {
		s.logFailure(ctx, err, "No register to recommend", slog.String("location_id", locationID))
		return nil, err
	}
	s.metrics.Recommended(rec.LoadBalancingEffective)
	s.LogDebug(ctx, "Register recommended",
		slog.String("location_id", locationID),
		slog.String("register_id", rec.Suggested.RegisterID),
		slog.Int("candidates", len(rec.Candidates)))
	return &rec, nil
}
