package pgsql

import (
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	registerRepo := newPgxRegisterRepository(dbPool)
	movementRepo := newPgxMovementRepository(dbPool)

	return portsrepo.RepositoryProvider{
		RegisterRepo: registerRepo,
		MovementRepo: movementRepo,
	}
}
