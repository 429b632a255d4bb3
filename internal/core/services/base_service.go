package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/cashledger/internal/adapters/cache"
	"github.com/SscSPs/cashledger/internal/adapters/lock"
	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/SscSPs/cashledger/internal/platform/metrics"
	"github.com/SscSPs/cashledger/internal/utils/retry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseService provides common functionality for all services
type BaseService struct {
	locker     portssvc.Locker
	cache      portssvc.BalanceCache
	metrics    *metrics.Recorder
	clock      func() time.Time
	newID      func() string
	retry      retry.Policy
	weights    domain.LoadWeights
	thresholds domain.AuditThresholds
}

// ServiceOption is a functional option for configuring the services
type ServiceOption func(*BaseService)

// WithLocker sets the locker used to serialise writes per register and per location.
func WithLocker(l portssvc.Locker) ServiceOption {
	return func(s *BaseService) { s.locker = l }
}

// WithBalanceCache sets the read-through balance cache.
func WithBalanceCache(c portssvc.BalanceCache) ServiceOption {
	return func(s *BaseService) { s.cache = c }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) ServiceOption {
	return func(s *BaseService) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) { s.clock = clock }
}

// WithIDGenerator overrides how identifiers are minted.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *BaseService) { s.newID = newID }
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p retry.Policy) ServiceOption {
	return func(s *BaseService) { s.retry = p }
}

// WithLoadWeights sets the advisor weights.
func WithLoadWeights(w domain.LoadWeights) ServiceOption {
	return func(s *BaseService) { s.weights = w }
}

// WithAuditThresholds sets the audit thresholds.
func WithAuditThresholds(th domain.AuditThresholds) ServiceOption {
	return func(s *BaseService) { s.thresholds = th }
}

func newBaseService(options ...ServiceOption) BaseService {
	s := BaseService{
		locker:     lock.NewLocalLocker(5 * time.Second),
		cache:      cache.Nop{},
		clock:      time.Now,
		newID:      uuid.NewString,
		retry:      retry.DefaultPolicy(),
		weights:    domain.DefaultLoadWeights(),
		thresholds: domain.DefaultAuditThresholds(),
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

func (s *BaseService) now() time.Time {
	return s.clock().UTC()
}

// withRetry runs op, retrying transient failures according to the policy.
func (s *BaseService) withRetry(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retry, op, func(err error, attempt int) {
		s.metrics.Retried(operation)
		s.LogWarn(ctx, "Retrying after transient failure",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
	})
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// logFailure logs at a level matching the error kind: caller mistakes are warnings, the rest errors.
func (s *BaseService) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	switch apperrors.Kind(err) {
	case nil, apperrors.ErrTransient:
		s.LogError(ctx, err, msg, keyvals...)
	default:
		s.LogWarn(ctx, msg, append([]any{slog.String("error", err.Error())}, keyvals...)...)
	}
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}

// validateRequest applies the binding rules of a request DTO, so callers other than the
// HTTP layer get the same checks.
func validateRequest(req any) error {
	if err := requestValidator.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}

// cachedBalance returns a cached balance for the exact register version, treating cache failures as misses.
func (s *BaseService) cachedBalance(ctx context.Context, registerID string, version int64) (decimal.Decimal, bool) {
	bal, ok, err := s.cache.Get(ctx, registerID, version)
	if err != nil {
		s.LogWarn(ctx, "Balance cache lookup failed", slog.String("register_id", registerID), slog.String("error", err.Error()))
		return decimal.Zero, false
	}
	s.metrics.CacheLookup(ok)
	return bal, ok
}

func (s *BaseService) storeBalance(ctx context.Context, registerID string, version int64, balance decimal.Decimal) {
	if err := s.cache.Set(ctx, registerID, version, balance); err != nil {
		s.LogWarn(ctx, "Balance cache store failed", slog.String("register_id", registerID), slog.String("error", err.Error()))
	}
}

// invalidateBalance drops the cached balance of a register after a write. Entries are versioned,
// so a failed delete only leaves an entry that can no longer be served.
func (s *BaseService) invalidateBalance(ctx context.Context, registerID string) {
	if err := s.cache.Invalidate(ctx, registerID); err != nil {
		s.LogWarn(ctx, "Balance cache invalidation failed", slog.String("register_id", registerID), slog.String("error", err.Error()))
	}
}
