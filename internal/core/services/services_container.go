package services

import (
	"time"

	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/platform/config"
	"github.com/SscSPs/cashledger/internal/utils/retry"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Options passed by the caller (locker, cache, metrics) win over the ones derived from cfg.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	opts := append(configOptions(cfg), options...)

	// Resolve defaults once so every service shares the same locker and cache.
	base := newBaseService(opts...)
	opts = append(opts, WithLocker(base.locker), WithBalanceCache(base.cache))

	return &portssvc.ServiceContainer{
		Register: NewRegisterService(repos.RegisterRepo, opts...),
		Movement: NewMovementService(repos.MovementRepo, opts...),
		Balance:  NewBalanceService(repos.RegisterRepo, opts...),
		Advisor:  NewLoadAdvisorService(repos.RegisterRepo, opts...),
		Transfer: NewShiftTransferService(repos.RegisterRepo, opts...),
		Audit:    NewAuditService(repos.RegisterRepo, opts...),
	}
}

func configOptions(cfg *config.Config) []ServiceOption {
	if cfg == nil {
		return nil
	}
	policy := retry.DefaultPolicy()
	if cfg.AppendRetryMaxTries > 0 {
		policy.MaxTries = cfg.AppendRetryMaxTries
	}
	if cfg.AppendRetryInitialInterval > 0 {
		policy.InitialInterval = cfg.AppendRetryInitialInterval
		if policy.MaxInterval < policy.InitialInterval {
			policy.MaxInterval = 20 * policy.InitialInterval
		}
	}

	weights := domain.DefaultLoadWeights()
	if !cfg.AdvisorWeightSalesCount.IsZero() || !cfg.AdvisorWeightSalesAmount.IsZero() || !cfg.AdvisorWeightBalance.IsZero() {
		weights.SalesCount = cfg.AdvisorWeightSalesCount
		weights.SalesAmount = cfg.AdvisorWeightSalesAmount
		weights.Balance = cfg.AdvisorWeightBalance
	}
	if cfg.AdvisorNormalization.IsPositive() {
		weights.Normalization = cfg.AdvisorNormalization
	}
	if cfg.AdvisorFullLoadSales > 0 {
		weights.FullLoadSales = cfg.AdvisorFullLoadSales
	}

	thresholds := domain.DefaultAuditThresholds()
	if cfg.AuditHighActivitySales > 0 {
		thresholds.HighActivitySales = cfg.AuditHighActivitySales
	}

	return []ServiceOption{
		WithRetryPolicy(policy),
		WithLoadWeights(weights),
		WithAuditThresholds(thresholds),
		WithClock(time.Now),
	}
}
