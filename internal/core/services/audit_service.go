package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"golang.org/x/sync/errgroup"
)

// auditService builds consolidated audits. It only reads.
type auditService struct {
	BaseService
	registerRepo portsrepo.RegisterReader
}

// NewAuditService creates a new AuditSvc.
func NewAuditService(registerRepo portsrepo.RegisterReader, options ...ServiceOption) portssvc.AuditSvc {
	return &auditService{
		BaseService:  newBaseService(options...),
		registerRepo: registerRepo,
	}
}

var _ portssvc.AuditSvc = (*auditService)(nil)

// ConsolidatedAudit reports balances and activity of the given registers as of asOf. Activity is
// counted over the UTC day asOf falls on; a zero asOf means now.
func (s *auditService) ConsolidatedAudit(ctx context.Context, locationID string, registerIDs []string, asOf time.Time, operatorID string) (*domain.AuditRecord, error) {
	if err := checkActor(locationID, operatorID); err != nil {
		return nil, err
	}
	ids := dedupe(registerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one register is required", apperrors.ErrValidation)
	}

	now := s.now()
	if asOf.IsZero() {
		asOf = now
	}
	asOf = asOf.UTC()
	windowStart := domain.StartOfDay(asOf)

	audits := make([]domain.RegisterAudit, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sessionFanOut)
	for i, id := range ids {
		g.Go(func() error {
			session, err := s.registerRepo.LoadSession(gctx, id)
			if err != nil {
				return err
			}
			if session.Register.LocationID != locationID {
				return fmt.Errorf("%w: register %s does not belong to location %s", apperrors.ErrValidation, id, locationID)
			}
			audits[i] = domain.AuditSession(*session, windowStart, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, err, "Failed to audit registers", slog.String("location_id", locationID))
		return nil, err
	}

	rec := domain.Consolidate(audits, s.thresholds)
	rec.AuditID = s.newID()
	rec.LocationID = locationID
	rec.AsOf = asOf
	rec.PerformedBy = operatorID
	rec.PerformedAt = now

	s.metrics.Audited()
	s.LogInfo(ctx, "Consolidated audit performed",
		slog.String("audit_id", rec.AuditID),
		slog.String("location_id", locationID),
		slog.Int("registers", rec.RegistersAudited),
		slog.Int("recommendations", len(rec.Recommendations)))
	return &rec, nil
}

// dedupe drops empty and repeated IDs, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
