package services

import (
	"context"

	"github.com/SscSPs/cashledger/internal/core/domain"
	"github.com/SscSPs/cashledger/internal/dto"
)

// RegisterLifecycleSvc opens and closes registers.
type RegisterLifecycleSvc interface {
	// OpenRegister fails with apperrors.ErrConflict when the location already has an open register
	// and multi-register mode was not requested.
	OpenRegister(ctx context.Context, locationID string, req dto.OpenRegisterRequest, operatorID string) (*domain.Register, error)

	// OpenSession opens a primary register plus any secondary ones atomically.
	OpenSession(ctx context.Context, locationID string, req dto.OpenSessionRequest, operatorID string) ([]domain.Register, error)

	// CloseRegister reconciles and closes a register. Replaying the log afterwards yields the declared balance.
	CloseRegister(ctx context.Context, registerID string, req dto.CloseRegisterRequest, operatorID string) (*domain.Reconciliation, error)

	// CloseSession closes every open register of a location.
	CloseSession(ctx context.Context, locationID string, req dto.CloseSessionRequest, operatorID string) (*domain.SessionClosure, error)
}

// RegisterReaderSvc exposes register lookups.
type RegisterReaderSvc interface {
	GetRegister(ctx context.Context, registerID string) (*domain.Register, error)
	ListRegisters(ctx context.Context, locationID string, params dto.ListRegistersParams) ([]domain.Register, error)
	GetRegisterDetail(ctx context.Context, registerID string) (*dto.RegisterDetail, error)
}

// RegisterSvcFacade combines all register-related service interfaces
type RegisterSvcFacade interface {
	RegisterLifecycleSvc
	RegisterReaderSvc
}
