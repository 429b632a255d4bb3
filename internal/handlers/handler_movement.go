package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// movementHandler handles the movement log and balances of one register.
type movementHandler struct {
	movementService portssvc.MovementSvcFacade
	balanceService  portssvc.BalanceSvc
}

// registerMovementRoutes registers the movement and balance routes of a register.
func registerMovementRoutes(register *gin.RouterGroup, movementService portssvc.MovementSvcFacade, balanceService portssvc.BalanceSvc) {
	h := &movementHandler{movementService: movementService, balanceService: balanceService}

	register.POST("/movements", h.appendMovement)
	register.GET("/movements", h.listMovements)
	register.GET("/balance", h.getBalance)
}

// appendMovement godoc
// @Summary Record a cash movement
// @Tags movements
// @Accept  json
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Param   movement body dto.AppendMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Register not found"
// @Failure 409 {object} map[string]string "Register is closed"
// @Security BearerAuth
// @Router /registers/{register_id}/movements [post]
func (h *movementHandler) appendMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	var req dto.AppendMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	m, err := h.movementService.AppendMovement(c.Request.Context(), registerID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to append movement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToMovementResponse(m))
}

// listMovements godoc
// @Summary List movements of a register
// @Description Newest first, with a per-type summary of the page.
// @Tags movements
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListMovementsResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /registers/{register_id}/movements [get]
func (h *movementHandler) listMovements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	resp, err := h.movementService.ListMovements(c.Request.Context(), registerID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list movements")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getBalance godoc
// @Summary Get the replayed balance of a register
// @Tags movements
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /registers/{register_id}/balance [get]
func (h *movementHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	bal, err := h.balanceService.CalculateBalance(c.Request.Context(), registerID)
	if err != nil {
		respondError(c, logger, err, "Failed to calculate balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{RegisterID: registerID, Balance: bal})
}
