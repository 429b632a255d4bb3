package dto

import "time"

// TransferShiftRequest hands a set of open registers over to another operator.
type TransferShiftRequest struct {
	RegisterIDs  []string `json:"registerIDs" binding:"required,min=1,max=50,unique,dive,required"`
	FromOperator string   `json:"fromOperator" binding:"required"`
	ToOperator   string   `json:"toOperator" binding:"required,nefield=FromOperator"`
	Notes        string   `json:"notes" binding:"max=500"`
}

// AuditRequest selects the registers of a consolidated audit.
type AuditRequest struct {
	RegisterIDs []string `json:"registerIDs" binding:"required,min=1,max=100,unique,dive,required"`
	// AsOf defaults to the current time.
	AsOf *time.Time `json:"asOf"`
}
