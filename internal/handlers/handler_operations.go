package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// operationsHandler serves the location-wide operations: advisor, shift transfers and audits.
type operationsHandler struct {
	advisor  portssvc.LoadAdvisorSvc
	transfer portssvc.ShiftTransferSvc
	audit    portssvc.AuditSvc
}

func registerOperationsRoutes(location *gin.RouterGroup, advisor portssvc.LoadAdvisorSvc, transfer portssvc.ShiftTransferSvc, audit portssvc.AuditSvc) {
	h := &operationsHandler{advisor: advisor, transfer: transfer, audit: audit}

	location.GET("/advisor", h.recommendRegister)
	location.POST("/shift-transfers", h.transferShift)
	location.POST("/audits", h.consolidatedAudit)
}

// recommendRegister godoc
// @Summary Suggest the register for the next sale
// @Tags operations
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   saleAmount query string true "Amount of the incoming sale"
// @Success 200 {object} domain.LoadRecommendation
// @Failure 400 {object} map[string]string "Invalid sale amount"
// @Failure 404 {object} map[string]string "No open register"
// @Security BearerAuth
// @Router /locations/{location_id}/advisor [get]
func (h *operationsHandler) recommendRegister(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	amount, err := decimal.NewFromString(c.Query("saleAmount"))
	if err != nil {
		respondError(c, logger, fmt.Errorf("%w: saleAmount must be a decimal number", apperrors.ErrValidation), "Invalid sale amount")
		return
	}

	rec, err := h.advisor.RecommendRegister(c.Request.Context(), locationID, amount)
	if err != nil {
		respondError(c, logger, err, "Failed to recommend register")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// transferShift godoc
// @Summary Hand registers over to another operator
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   transfer body dto.TransferShiftRequest true "Registers and operators"
// @Success 201 {object} domain.ShiftTransfer
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /locations/{location_id}/shift-transfers [post]
func (h *operationsHandler) transferShift(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var req dto.TransferShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	transfer, err := h.transfer.TransferShift(c.Request.Context(), locationID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to transfer shift")
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

// consolidatedAudit godoc
// @Summary Audit a set of registers
// @Description Read-only report of balances and activity with recommendations.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   audit body dto.AuditRequest true "Registers to audit"
// @Success 200 {object} domain.AuditRecord
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /locations/{location_id}/audits [post]
func (h *operationsHandler) consolidatedAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var req dto.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	var asOf time.Time
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	rec, err := h.audit.ConsolidatedAudit(c.Request.Context(), locationID, req.RegisterIDs, asOf, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to audit registers")
		return
	}
	c.JSON(http.StatusOK, rec)
}
