package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	"github.com/SscSPs/cashledger/internal/utils/mapping"
	"github.com/SscSPs/cashledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxMovementRepository struct {
	BaseRepository
}

// newPgxMovementRepository creates a new repository for the movement log.
func newPgxMovementRepository(pool *pgxpool.Pool) *PgxMovementRepository {
	return &PgxMovementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MovementRepositoryFacade = (*PgxMovementRepository)(nil)

// AppendMovement inserts a movement while holding the register row lock, so it cannot interleave
// with a close of the same register.
func (r *PgxMovementRepository) AppendMovement(ctx context.Context, movement domain.Movement) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	locked, err := lockRegisters(ctx, tx, []string{movement.RegisterID})
	if err != nil {
		return 0, fmt.Errorf("failed to lock register %s: %w", movement.RegisterID, err)
	}
	current, ok := locked[movement.RegisterID]
	if !ok {
		return 0, fmt.Errorf("%w: register %s", apperrors.ErrNotFound, movement.RegisterID)
	}
	if current.Status != string(domain.RegisterOpen) {
		return 0, fmt.Errorf("%w: register %s is closed", apperrors.ErrInvalidState, movement.RegisterID)
	}

	m := mapping.ToModelMovement(movement)
	if _, err := tx.Exec(ctx, insertMovementQuery,
		m.MovementID, m.RegisterID, m.MovementType, m.Amount, m.Tag, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
	); err != nil {
		return 0, fmt.Errorf("failed to insert movement: %w", mapDBError(err))
	}

	var version int64
	err = tx.QueryRow(ctx, `
		UPDATE cash_registers SET version = version + 1, last_updated_at = $2, last_updated_by = $3
		WHERE register_id = $1
		RETURNING version;
	`, movement.RegisterID, movement.CreatedAt, movement.CreatedBy).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to bump register version: %w", mapDBError(err))
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return version, nil
}

// ListMovementsByRegister pages through the log newest first, keyed on (created_at, movement_id).
func (r *PgxMovementRepository) ListMovementsByRegister(ctx context.Context, registerID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cash_registers WHERE register_id = $1);`, registerID).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("failed to check register %s: %w", registerID, mapDBError(err))
	}
	if !exists {
		return nil, nil, fmt.Errorf("%w: register %s", apperrors.ErrNotFound, registerID)
	}

	limit = pagination.NormalizeLimit(limit)
	query := `SELECT ` + movementColumns + ` FROM cash_movements WHERE register_id = $1`
	args := []any{registerID}
	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, movement_id) < ($2, $3)`
		args = append(args, cursorAt, cursorID)
	}
	// Fetch one extra row to learn whether another page exists.
	query += fmt.Sprintf(` ORDER BY created_at DESC, movement_id DESC LIMIT %d;`, limit+1)

	movements, err := scanMovements(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list movements of register %s: %w", registerID, err)
	}
	if len(movements) <= limit {
		return movements, nil, nil
	}
	page := movements[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.MovementID)
	return page, &token, nil
}
