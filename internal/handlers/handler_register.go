package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// idempotencyKeyHeader may carry the idempotency key instead of the request body.
const idempotencyKeyHeader = "Idempotency-Key"

// registerHandler handles HTTP requests related to the register lifecycle.
type registerHandler struct {
	registerService portssvc.RegisterSvcFacade
}

// newRegisterHandler creates a new registerHandler.
func newRegisterHandler(rs portssvc.RegisterSvcFacade) *registerHandler {
	return &registerHandler{
		registerService: rs,
	}
}

// registerRegisterRoutes registers location-scoped lifecycle routes and register lookups.
func registerRegisterRoutes(location, register *gin.RouterGroup, registerService portssvc.RegisterSvcFacade) {
	h := newRegisterHandler(registerService)

	location.POST("/registers", h.openRegister)
	location.GET("/registers", h.listRegisters)
	location.POST("/sessions", h.openSession)
	location.POST("/sessions/close", h.closeSession)

	register.GET("", h.getRegister)
	register.GET("/detail", h.getRegisterDetail)
	register.POST("/close", h.closeRegister)
}

func idempotencyKey(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader(idempotencyKeyHeader)
}

// openRegister godoc
// @Summary Open a register
// @Description Opens a register at a location. A second open register requires multiRegister.
// @Tags registers
// @Accept  json
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   register body dto.OpenRegisterRequest true "Opening details"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Location already has an open register"
// @Security BearerAuth
// @Router /locations/{location_id}/registers [post]
func (h *registerHandler) openRegister(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var req dto.OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("location_id", locationID))

	reg, err := h.registerService.OpenRegister(c.Request.Context(), locationID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to open register")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRegisterResponse(reg))
}

// listRegisters godoc
// @Summary List registers of a location
// @Tags registers
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   status query string false "OPEN or CLOSED"
// @Success 200 {array} dto.RegisterResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /locations/{location_id}/registers [get]
func (h *registerHandler) listRegisters(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var params dto.ListRegistersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	regs, err := h.registerService.ListRegisters(c.Request.Context(), locationID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list registers")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegisterResponses(regs))
}

// openSession godoc
// @Summary Open a session
// @Description Opens a primary register plus optional secondary registers atomically.
// @Tags registers
// @Accept  json
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   session body dto.OpenSessionRequest true "Opening balances"
// @Success 201 {array} dto.RegisterResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Location already has an open register"
// @Security BearerAuth
// @Router /locations/{location_id}/sessions [post]
func (h *registerHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	regs, err := h.registerService.OpenSession(c.Request.Context(), locationID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to open session")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRegisterResponses(regs))
}

// closeSession godoc
// @Summary Close every open register of a location
// @Tags registers
// @Accept  json
// @Produce  json
// @Param   location_id path string true "Location ID"
// @Param   close body dto.CloseSessionRequest true "Declared balance per register"
// @Success 200 {object} domain.SessionClosure
// @Failure 400 {object} map[string]string "Missing or extra declarations"
// @Failure 404 {object} map[string]string "No open register"
// @Security BearerAuth
// @Router /locations/{location_id}/sessions/close [post]
func (h *registerHandler) closeSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("location_id")

	var req dto.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	closure, err := h.registerService.CloseSession(c.Request.Context(), locationID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to close session")
		return
	}
	c.JSON(http.StatusOK, closure)
}

// getRegister godoc
// @Summary Get a register
// @Tags registers
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Success 200 {object} dto.RegisterResponse
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /registers/{register_id} [get]
func (h *registerHandler) getRegister(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	reg, err := h.registerService.GetRegister(c.Request.Context(), registerID)
	if err != nil {
		respondError(c, logger, err, "Failed to get register")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegisterResponse(reg))
}

// getRegisterDetail godoc
// @Summary Get a register with replayed figures
// @Tags registers
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Success 200 {object} dto.RegisterDetailResponse
// @Failure 404 {object} map[string]string "Register not found"
// @Security BearerAuth
// @Router /registers/{register_id}/detail [get]
func (h *registerHandler) getRegisterDetail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	detail, err := h.registerService.GetRegisterDetail(c.Request.Context(), registerID)
	if err != nil {
		respondError(c, logger, err, "Failed to get register detail")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegisterDetailResponse(detail))
}

// closeRegister godoc
// @Summary Close a register
// @Description Reconciles the declared count against the replayed balance and closes the register.
// @Tags registers
// @Accept  json
// @Produce  json
// @Param   register_id path string true "Register ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   close body dto.CloseRegisterRequest true "Declared balance"
// @Success 200 {object} domain.Reconciliation
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Register not found"
// @Failure 409 {object} map[string]string "Register already closed"
// @Security BearerAuth
// @Router /registers/{register_id}/close [post]
func (h *registerHandler) closeRegister(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	registerID := c.Param("register_id")

	var req dto.CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)

	operatorID, ok := operatorOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.registerService.CloseRegister(c.Request.Context(), registerID, req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to close register")
		return
	}
	c.JSON(http.StatusOK, rec)
}
