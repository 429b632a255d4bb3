package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	"github.com/SscSPs/cashledger/internal/models"
	"github.com/SscSPs/cashledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registerColumns = `register_id, location_id, name, status, role, opening_balance, closing_balance,
	opened_by, opened_at, closed_by, closed_at, responsible_operator, opening_notes, closing_notes,
	open_request_key, close_request_key, version, created_at, created_by, last_updated_at, last_updated_by`

const movementColumns = `movement_id, register_id, movement_type, amount, tag, reference, notes, created_by, created_at`

const insertMovementQuery = `
	INSERT INTO cash_movements (movement_id, register_id, movement_type, amount, tag, reference, notes, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgxRegisterRepository struct {
	BaseRepository
}

// newPgxRegisterRepository creates a new repository for registers and their sessions.
func newPgxRegisterRepository(pool *pgxpool.Pool) *PgxRegisterRepository {
	return &PgxRegisterRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RegisterRepositoryFacade = (*PgxRegisterRepository)(nil)

func scanRegisters(ctx context.Context, q querier, query string, args ...any) ([]domain.Register, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	regs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Register])
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapping.ToDomainRegisterSlice(regs), nil
}

func scanMovements(ctx context.Context, q querier, query string, args ...any) ([]domain.Movement, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Movement])
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapping.ToDomainMovementSlice(ms), nil
}

func findOneRegister(ctx context.Context, q querier, query string, args ...any) (*domain.Register, error) {
	regs, err := scanRegisters(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &regs[0], nil
}

// FindRegisterByID retrieves a register by its ID.
func (r *PgxRegisterRepository) FindRegisterByID(ctx context.Context, registerID string) (*domain.Register, error) {
	reg, err := findOneRegister(ctx, r.Pool, `SELECT `+registerColumns+` FROM cash_registers WHERE register_id = $1;`, registerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: register %s", apperrors.ErrNotFound, registerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find register %s: %w", registerID, err)
	}
	return reg, nil
}

// FindRegistersByIDs retrieves multiple registers by their IDs.
func (r *PgxRegisterRepository) FindRegistersByIDs(ctx context.Context, registerIDs []string) (map[string]domain.Register, error) {
	out := make(map[string]domain.Register, len(registerIDs))
	if len(registerIDs) == 0 {
		return out, nil
	}
	regs, err := scanRegisters(ctx, r.Pool, `SELECT `+registerColumns+` FROM cash_registers WHERE register_id = ANY($1);`, registerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query registers by IDs: %w", err)
	}
	for _, reg := range regs {
		out[reg.RegisterID] = reg
	}
	return out, nil
}

// ListRegistersByLocation lists the registers of a location, oldest first.
func (r *PgxRegisterRepository) ListRegistersByLocation(ctx context.Context, locationID string, status *domain.RegisterStatus) ([]domain.Register, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers WHERE location_id = $1`
	args := []any{locationID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY opened_at ASC, register_id ASC;`

	regs, err := scanRegisters(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registers for location %s: %w", locationID, err)
	}
	return regs, nil
}

// FindRegisterByOpenKey finds the register opened with an idempotency key.
func (r *PgxRegisterRepository) FindRegisterByOpenKey(ctx context.Context, locationID, key string) (*domain.Register, error) {
	reg, err := findOneRegister(ctx, r.Pool,
		`SELECT `+registerColumns+` FROM cash_registers WHERE location_id = $1 AND open_request_key = $2;`, locationID, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find register by open key: %w", err)
	}
	return reg, nil
}

// LoadSession reads a register and its whole log inside one REPEATABLE READ snapshot.
func (r *PgxRegisterRepository) LoadSession(ctx context.Context, registerID string) (*domain.Session, error) {
	tx, err := r.BeginSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	reg, err := findOneRegister(ctx, tx, `SELECT `+registerColumns+` FROM cash_registers WHERE register_id = $1;`, registerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: register %s", apperrors.ErrNotFound, registerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load register %s: %w", registerID, err)
	}

	movements, err := scanMovements(ctx, tx,
		`SELECT `+movementColumns+` FROM cash_movements WHERE register_id = $1 ORDER BY created_at ASC, movement_id ASC;`, registerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements of register %s: %w", registerID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &domain.Session{Register: *reg, Movements: movements}, nil
}

// CreateRegisters inserts opened registers in one transaction. The partial unique index on open
// PRIMARY registers turns a second primary into apperrors.ErrConflict.
func (r *PgxRegisterRepository) CreateRegisters(ctx context.Context, registers []domain.Register) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO cash_registers (` + registerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	batch := &pgx.Batch{}
	for _, reg := range registers {
		m := mapping.ToModelRegister(reg)
		batch.Queue(query,
			m.RegisterID, m.LocationID, m.Name, m.Status, m.Role, m.OpeningBalance, m.ClosingBalance,
			m.OpenedBy, m.OpenedAt, m.ClosedBy, m.ClosedAt, m.ResponsibleOperator, m.OpeningNotes, m.ClosingNotes,
			m.OpenRequestKey, m.CloseRequestKey, m.Version, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert registers: %w", mapDBError(err))
	}
	return r.Commit(ctx, tx)
}

// lockRegisters takes row locks on the registers in ID order and returns their status and version.
func lockRegisters(ctx context.Context, tx pgx.Tx, registerIDs []string) (map[string]models.Register, error) {
	rows, err := tx.Query(ctx, `
		SELECT register_id, status, version FROM cash_registers
		WHERE register_id = ANY($1)
		ORDER BY register_id
		FOR UPDATE;
	`, registerIDs)
	if err != nil {
		return nil, mapDBError(err)
	}
	locked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Register, error) {
		var m models.Register
		err := row.Scan(&m.RegisterID, &m.Status, &m.Version)
		return m, err
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	out := make(map[string]models.Register, len(locked))
	for _, m := range locked {
		out[m.RegisterID] = m
	}
	return out, nil
}

// CloseRegister posts the close adjustment and closes the register if it is still open at expectedVersion.
func (r *PgxRegisterRepository) CloseRegister(ctx context.Context, rec domain.Reconciliation, requestKey *string, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	locked, err := lockRegisters(ctx, tx, []string{rec.RegisterID})
	if err != nil {
		return fmt.Errorf("failed to lock register %s: %w", rec.RegisterID, err)
	}
	current, ok := locked[rec.RegisterID]
	if !ok {
		return fmt.Errorf("%w: register %s", apperrors.ErrNotFound, rec.RegisterID)
	}
	if current.Status != string(domain.RegisterOpen) {
		return fmt.Errorf("%w: register %s is already closed", apperrors.ErrInvalidState, rec.RegisterID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: register %s changed during close", apperrors.ErrTransient, rec.RegisterID)
	}

	if rec.Adjustment != nil {
		m := mapping.ToModelMovement(*rec.Adjustment)
		if _, err := tx.Exec(ctx, insertMovementQuery,
			m.MovementID, m.RegisterID, m.MovementType, m.Amount, m.Tag, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert close adjustment: %w", mapDBError(err))
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE cash_registers
		SET status = $2, closing_balance = $3, closed_by = $4, closed_at = $5, closing_notes = $6,
			close_request_key = $7, version = version + 1, last_updated_at = $5, last_updated_by = $4
		WHERE register_id = $1;
	`, rec.RegisterID, string(domain.RegisterClosed), rec.DeclaredBalance, rec.ClosedBy, rec.ClosedAt, rec.Notes, requestKey)
	if err != nil {
		return fmt.Errorf("failed to close register %s: %w", rec.RegisterID, mapDBError(err))
	}
	return r.Commit(ctx, tx)
}

// ApplyShiftTransfer writes every handover movement and reassigns every register, or nothing.
func (r *PgxRegisterRepository) ApplyShiftTransfer(ctx context.Context, transfer domain.ShiftTransfer) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	ids := make([]string, len(transfer.Registers))
	for i, tr := range transfer.Registers {
		ids[i] = tr.RegisterID
	}
	locked, err := lockRegisters(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("failed to lock registers for transfer: %w", err)
	}
	for _, tr := range transfer.Registers {
		current, ok := locked[tr.RegisterID]
		if !ok {
			return fmt.Errorf("%w: register %s", apperrors.ErrNotFound, tr.RegisterID)
		}
		if current.Status != string(domain.RegisterOpen) {
			return fmt.Errorf("%w: register %s is not open", apperrors.ErrInvalidState, tr.RegisterID)
		}
		if current.Version != tr.ExpectedVersion {
			return fmt.Errorf("%w: register %s changed during transfer", apperrors.ErrTransient, tr.RegisterID)
		}
	}

	batch := &pgx.Batch{}
	for _, tr := range transfer.Registers {
		m := mapping.ToModelMovement(transfer.HandoverMovement(tr))
		batch.Queue(insertMovementQuery,
			m.MovementID, m.RegisterID, m.MovementType, m.Amount, m.Tag, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt)
		batch.Queue(`
			UPDATE cash_registers
			SET responsible_operator = $2, version = version + 1, last_updated_at = $3, last_updated_by = $4
			WHERE register_id = $1;
		`, tr.RegisterID, transfer.ToOperator, transfer.TransferredAt, transfer.PerformedBy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to apply shift transfer %s: %w", transfer.TransferID, mapDBError(err))
	}
	return r.Commit(ctx, tx)
}
