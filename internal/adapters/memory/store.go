// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	"github.com/SscSPs/cashledger/internal/utils/pagination"
)

// Store keeps registers and their movement logs in memory. The store-wide mutex only guards
// the index; each register and its log sit behind their own mutex, so appends to different
// registers never wait on each other. Multi-register writes lock entries in id order.
// Every write method validates first and mutates only once nothing can fail.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// entry is one register with its movement log.
type entry struct {
	mu  sync.Mutex
	reg domain.Register
	log []domain.Movement
}

func (e *entry) snapshot() domain.Register {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg
}

var (
	_ portsrepo.RegisterRepositoryFacade = (*Store)(nil)
	_ portsrepo.MovementRepositoryFacade = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Repositories exposes the store through the repository ports.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{RegisterRepo: s, MovementRepo: s}
}

func notFound(registerID string) error {
	return fmt.Errorf("%w: register %s", apperrors.ErrNotFound, registerID)
}

func (s *Store) lookup(registerID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[registerID]
	return e, ok
}

// listed returns the entries in creation order.
func (s *Store) listed() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

func (s *Store) FindRegisterByID(_ context.Context, registerID string) (*domain.Register, error) {
	e, ok := s.lookup(registerID)
	if !ok {
		return nil, notFound(registerID)
	}
	out := e.snapshot()
	return &out, nil
}

func (s *Store) FindRegistersByIDs(_ context.Context, registerIDs []string) (map[string]domain.Register, error) {
	out := make(map[string]domain.Register, len(registerIDs))
	for _, id := range registerIDs {
		if e, ok := s.lookup(id); ok {
			out[id] = e.snapshot()
		}
	}
	return out, nil
}

func (s *Store) ListRegistersByLocation(_ context.Context, locationID string, status *domain.RegisterStatus) ([]domain.Register, error) {
	out := []domain.Register{}
	for _, e := range s.listed() {
		reg := e.snapshot()
		if reg.LocationID != locationID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		out = append(out, reg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

func (s *Store) FindRegisterByOpenKey(_ context.Context, locationID, key string) (*domain.Register, error) {
	for _, e := range s.listed() {
		reg := e.snapshot()
		if reg.LocationID == locationID && reg.OpenRequestKey != nil && *reg.OpenRequestKey == key {
			return &reg, nil
		}
	}
	return nil, fmt.Errorf("%w: no register opened with key %s", apperrors.ErrNotFound, key)
}

func (s *Store) LoadSession(_ context.Context, registerID string) (*domain.Session, error) {
	e, ok := s.lookup(registerID)
	if !ok {
		return nil, notFound(registerID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	movements := make([]domain.Movement, len(e.log))
	copy(movements, e.log)
	return &domain.Session{Register: e.reg, Movements: movements}, nil
}

// CreateRegisters holds the index write lock, so no register can be added concurrently.
// Status flips on existing registers only happen under their entry lock, which is taken
// here while counting open primaries.
func (s *Store) CreateRegisters(_ context.Context, registers []domain.Register) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	primaries := make(map[string]int)
	for _, e := range s.entries {
		e.mu.Lock()
		if e.reg.IsOpen() && e.reg.Role == domain.RolePrimary {
			primaries[e.reg.LocationID]++
		}
		e.mu.Unlock()
	}
	for _, reg := range registers {
		if _, exists := s.entries[reg.RegisterID]; exists {
			return fmt.Errorf("%w: register %s already exists", apperrors.ErrConflict, reg.RegisterID)
		}
		if reg.IsOpen() && reg.Role == domain.RolePrimary {
			primaries[reg.LocationID]++
			if primaries[reg.LocationID] > 1 {
				return fmt.Errorf("%w: location %s already has an open primary register", apperrors.ErrConflict, reg.LocationID)
			}
		}
	}

	for _, reg := range registers {
		s.entries[reg.RegisterID] = &entry{reg: reg}
		s.order = append(s.order, reg.RegisterID)
	}
	return nil
}

func (s *Store) CloseRegister(_ context.Context, rec domain.Reconciliation, requestKey *string, expectedVersion int64) error {
	e, ok := s.lookup(rec.RegisterID)
	if !ok {
		return notFound(rec.RegisterID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	reg := &e.reg
	if !reg.IsOpen() {
		return fmt.Errorf("%w: register %s is already closed", apperrors.ErrInvalidState, rec.RegisterID)
	}
	if reg.Version != expectedVersion {
		return fmt.Errorf("%w: register %s changed during close", apperrors.ErrTransient, rec.RegisterID)
	}

	if rec.Adjustment != nil {
		e.log = append(e.log, *rec.Adjustment)
	}
	declared := rec.DeclaredBalance
	closedBy := rec.ClosedBy
	closedAt := rec.ClosedAt
	reg.Status = domain.RegisterClosed
	reg.ClosingBalance = &declared
	reg.ClosedBy = &closedBy
	reg.ClosedAt = &closedAt
	reg.ClosingNotes = rec.Notes
	reg.CloseRequestKey = requestKey
	reg.Version++
	reg.LastUpdatedAt = closedAt
	reg.LastUpdatedBy = closedBy
	return nil
}

func (s *Store) ApplyShiftTransfer(_ context.Context, transfer domain.ShiftTransfer) error {
	ids := make([]string, 0, len(transfer.Registers))
	for _, tr := range transfer.Registers {
		ids = append(ids, tr.RegisterID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	locked := make(map[string]*entry, len(ids))
	defer func() {
		for _, e := range locked {
			e.mu.Unlock()
		}
	}()
	for _, id := range ids {
		e, ok := s.lookup(id)
		if !ok {
			return notFound(id)
		}
		e.mu.Lock()
		locked[id] = e
	}

	for _, tr := range transfer.Registers {
		reg := locked[tr.RegisterID].reg
		if !reg.IsOpen() {
			return fmt.Errorf("%w: register %s is not open", apperrors.ErrInvalidState, tr.RegisterID)
		}
		if reg.Version != tr.ExpectedVersion {
			return fmt.Errorf("%w: register %s changed during transfer", apperrors.ErrTransient, tr.RegisterID)
		}
	}

	for _, tr := range transfer.Registers {
		e := locked[tr.RegisterID]
		e.log = append(e.log, transfer.HandoverMovement(tr))
		e.reg.ResponsibleOperator = transfer.ToOperator
		e.reg.Version++
		e.reg.LastUpdatedAt = transfer.TransferredAt
		e.reg.LastUpdatedBy = transfer.PerformedBy
	}
	return nil
}

func (s *Store) AppendMovement(_ context.Context, movement domain.Movement) (int64, error) {
	e, ok := s.lookup(movement.RegisterID)
	if !ok {
		return 0, notFound(movement.RegisterID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.reg.IsOpen() {
		return 0, fmt.Errorf("%w: register %s is closed", apperrors.ErrInvalidState, movement.RegisterID)
	}
	e.log = append(e.log, movement)
	e.reg.Version++
	e.reg.LastUpdatedAt = movement.CreatedAt
	e.reg.LastUpdatedBy = movement.CreatedBy
	return e.reg.Version, nil
}

func (s *Store) ListMovementsByRegister(_ context.Context, registerID string, limit int, nextToken *string) ([]domain.Movement, *string, error) {
	e, ok := s.lookup(registerID)
	if !ok {
		return nil, nil, notFound(registerID)
	}

	e.mu.Lock()
	sorted := make([]domain.Movement, len(e.log))
	copy(sorted, e.log)
	e.mu.Unlock()
	sort.SliceStable(sorted, func(i, j int) bool {
		return pagination.IsAfter(sorted[j].CreatedAt, sorted[j].MovementID, sorted[i].CreatedAt, sorted[i].MovementID)
	})

	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		start := len(sorted)
		for i, m := range sorted {
			if pagination.IsAfter(m.CreatedAt, m.MovementID, cursorAt, cursorID) {
				start = i
				break
			}
		}
		sorted = sorted[start:]
	}

	limit = pagination.NormalizeLimit(limit)
	if len(sorted) <= limit {
		return sorted, nil, nil
	}
	page := sorted[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.MovementID)
	return page, &token, nil
}
