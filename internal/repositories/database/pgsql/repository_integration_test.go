//go:build integration

package pgsql

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/migrations"
	"github.com/SscSPs/cashledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// setupPostgres starts a disposable PostgreSQL container with the schema applied.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cashledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dsn, migrations.FS, slog.Default()))

	pool, err := database.NewPgxPool(ctx, dsn, true)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func openRegister(id, location string, role domain.RegisterRole, opening int64) domain.Register {
	return domain.Register{
		RegisterID:          id,
		LocationID:          location,
		Name:                "Register " + id,
		Status:              domain.RegisterOpen,
		Role:                role,
		OpeningBalance:      decimal.NewFromInt(opening),
		OpenedBy:            "op",
		OpenedAt:            t0,
		ResponsibleOperator: "op",
		AuditFields:         domain.AuditFields{CreatedAt: t0, CreatedBy: "op", LastUpdatedAt: t0, LastUpdatedBy: "op"},
	}
}

func sale(id, registerID string, amount int64, at time.Time) domain.Movement {
	return domain.Movement{MovementID: id, RegisterID: registerID, Type: domain.MovementSale, Amount: decimal.NewFromInt(amount), CreatedBy: "op", CreatedAt: at}
}

func TestIntegration_RegisterLifecycle(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := NewRepositoryProvider(pool)

	require.NoError(t, repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{openRegister("r1", "L1", domain.RolePrimary, 100000)}))

	err := repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{openRegister("r2", "L1", domain.RolePrimary, 0)})
	assert.ErrorIs(t, err, apperrors.ErrConflict, "second open primary must be rejected")

	v, err := repos.MovementRepo.AppendMovement(ctx, sale("m1", "r1", 50000, t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	_, err = repos.MovementRepo.AppendMovement(ctx, domain.Movement{
		MovementID: "m2", RegisterID: "r1", Type: domain.MovementWithdrawal, Amount: decimal.NewFromInt(20000),
		CreatedBy: "op", CreatedAt: t0.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	session, err := repos.RegisterRepo.LoadSession(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(130000).Equal(session.CalculatedBalance()))
	assert.Equal(t, int64(2), session.Register.Version)

	rec, err := domain.Reconcile(*session, decimal.NewFromInt(125000), "op-close", t0.Add(time.Hour), "adj-1")
	require.NoError(t, err)

	err = repos.RegisterRepo.CloseRegister(ctx, rec, nil, 1)
	assert.ErrorIs(t, err, apperrors.ErrTransient, "stale version must be retried")

	key := "close-1"
	require.NoError(t, repos.RegisterRepo.CloseRegister(ctx, rec, &key, 2))

	closed, err := repos.RegisterRepo.LoadSession(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterClosed, closed.Register.Status)
	require.NotNil(t, closed.Register.CloseRequestKey)
	assert.Equal(t, key, *closed.Register.CloseRequestKey)
	assert.True(t, decimal.NewFromInt(125000).Equal(closed.CalculatedBalance()))
	assert.True(t, decimal.NewFromInt(125000).Equal(*closed.Register.ClosingBalance))

	_, err = repos.MovementRepo.AppendMovement(ctx, sale("m3", "r1", 10, t0.Add(2*time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	err = repos.RegisterRepo.CloseRegister(ctx, rec, nil, 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	// A new primary may open once the previous one is closed.
	require.NoError(t, repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{openRegister("r3", "L1", domain.RolePrimary, 0)}))
}

func TestIntegration_ConcurrentAppends(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := NewRepositoryProvider(pool)
	require.NoError(t, repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{openRegister("r1", "L1", domain.RolePrimary, 0)}))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.MovementRepo.AppendMovement(ctx, sale("m"+string(rune('a'+i)), "r1", 5, t0.Add(time.Duration(i)*time.Second)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	session, err := repos.RegisterRepo.LoadSession(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, session.Movements, n)
	assert.Equal(t, int64(n), session.Register.Version)
	assert.True(t, decimal.NewFromInt(5*n).Equal(session.CalculatedBalance()))
}

func TestIntegration_ShiftTransferIsAtomic(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := NewRepositoryProvider(pool)
	require.NoError(t, repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{
		openRegister("r1", "L1", domain.RolePrimary, 100),
		openRegister("r2", "L1", domain.RoleSecondary, 100),
	}))

	transfer := domain.ShiftTransfer{
		TransferID: "t1", LocationID: "L1", FromOperator: "op", ToOperator: "op-night",
		PerformedBy: "sup", TransferredAt: t0.Add(time.Hour),
		Registers: []domain.TransferredRegister{
			{RegisterID: "r1", HandoverMovementID: "h1", ExpectedVersion: 0},
			{RegisterID: "r2", HandoverMovementID: "h2", ExpectedVersion: 5},
		},
	}
	err := repos.RegisterRepo.ApplyShiftTransfer(ctx, transfer)
	assert.ErrorIs(t, err, apperrors.ErrTransient)

	r1, err := repos.RegisterRepo.LoadSession(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "op", r1.Register.ResponsibleOperator)
	assert.Empty(t, r1.Movements)

	transfer.Registers[1].ExpectedVersion = 0
	require.NoError(t, repos.RegisterRepo.ApplyShiftTransfer(ctx, transfer))

	found, err := repos.RegisterRepo.FindRegistersByIDs(ctx, []string{"r1", "r2", "missing"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, reg := range found {
		assert.Equal(t, "op-night", reg.ResponsibleOperator)
		assert.Equal(t, int64(1), reg.Version)
	}
}

func TestIntegration_ListMovementsPaginates(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repos := NewRepositoryProvider(pool)
	require.NoError(t, repos.RegisterRepo.CreateRegisters(ctx, []domain.Register{openRegister("r1", "L1", domain.RolePrimary, 0)}))
	for i, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := repos.MovementRepo.AppendMovement(ctx, sale(id, "r1", int64(i+1), t0.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	page, token, err := repos.MovementRepo.ListMovementsByRegister(ctx, "r1", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m5", page[0].MovementID)
	require.NotNil(t, token)

	var seen []string
	for token != nil {
		page, token, err = repos.MovementRepo.ListMovementsByRegister(ctx, "r1", 2, token)
		require.NoError(t, err)
		for _, m := range page {
			seen = append(seen, m.MovementID)
		}
	}
	assert.Equal(t, []string{"m3", "m2", "m1"}, seen)

	bad := "not-a-token"
	_, _, err = repos.MovementRepo.ListMovementsByRegister(ctx, "r1", 2, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = repos.MovementRepo.ListMovementsByRegister(ctx, "missing", 2, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	status := domain.RegisterOpen
	regs, err := repos.RegisterRepo.ListRegistersByLocation(ctx, "L1", &status)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}
