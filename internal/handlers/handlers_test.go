package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/SscSPs/cashledger/internal/core/domain"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/dto"
	"github.com/SscSPs/cashledger/internal/handlers"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/SscSPs/cashledger/internal/platform/config"
	"github.com/SscSPs/cashledger/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RegisterService ---
type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) OpenRegister(ctx context.Context, locationID string, req dto.OpenRegisterRequest, operatorID string) (*domain.Register, error) {
	args := m.Called(ctx, locationID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Register), args.Error(1)
}
func (m *MockRegisterService) OpenSession(ctx context.Context, locationID string, req dto.OpenSessionRequest, operatorID string) ([]domain.Register, error) {
	args := m.Called(ctx, locationID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Register), args.Error(1)
}
func (m *MockRegisterService) CloseRegister(ctx context.Context, registerID string, req dto.CloseRegisterRequest, operatorID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, registerID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}
func (m *MockRegisterService) CloseSession(ctx context.Context, locationID string, req dto.CloseSessionRequest, operatorID string) (*domain.SessionClosure, error) {
	args := m.Called(ctx, locationID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionClosure), args.Error(1)
}
func (m *MockRegisterService) GetRegister(ctx context.Context, registerID string) (*domain.Register, error) {
	args := m.Called(ctx, registerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Register), args.Error(1)
}
func (m *MockRegisterService) ListRegisters(ctx context.Context, locationID string, params dto.ListRegistersParams) ([]domain.Register, error) {
	args := m.Called(ctx, locationID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Register), args.Error(1)
}
func (m *MockRegisterService) GetRegisterDetail(ctx context.Context, registerID string) (*dto.RegisterDetail, error) {
	args := m.Called(ctx, registerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RegisterDetail), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.RegisterSvcFacade = (*MockRegisterService)(nil)

// --- Mock MovementService ---
type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) AppendMovement(ctx context.Context, registerID string, req dto.AppendMovementRequest, operatorID string) (*domain.Movement, error) {
	args := m.Called(ctx, registerID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}
func (m *MockMovementService) ListMovements(ctx context.Context, registerID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error) {
	args := m.Called(ctx, registerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListMovementsResponse), args.Error(1)
}

var _ portssvc.MovementSvcFacade = (*MockMovementService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) CalculateBalance(ctx context.Context, registerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, registerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock operations services ---
type MockOperationsService struct {
	mock.Mock
}

func (m *MockOperationsService) RecommendRegister(ctx context.Context, locationID string, saleAmount decimal.Decimal) (*domain.LoadRecommendation, error) {
	args := m.Called(ctx, locationID, saleAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoadRecommendation), args.Error(1)
}
func (m *MockOperationsService) TransferShift(ctx context.Context, locationID string, req dto.TransferShiftRequest, operatorID string) (*domain.ShiftTransfer, error) {
	args := m.Called(ctx, locationID, req, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShiftTransfer), args.Error(1)
}
func (m *MockOperationsService) ConsolidatedAudit(ctx context.Context, locationID string, registerIDs []string, asOf time.Time, operatorID string) (*domain.AuditRecord, error) {
	args := m.Called(ctx, locationID, registerIDs, asOf, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditRecord), args.Error(1)
}

var (
	_ portssvc.LoadAdvisorSvc   = (*MockOperationsService)(nil)
	_ portssvc.ShiftTransferSvc = (*MockOperationsService)(nil)
	_ portssvc.AuditSvc         = (*MockOperationsService)(nil)
)

// --- Test Suite ---
type HandlersTestSuite struct {
	suite.Suite
	router     *gin.Engine
	registers  *MockRegisterService
	movements  *MockMovementService
	balances   *MockBalanceService
	operations *MockOperationsService
	jwtSecret  string
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.registers = new(MockRegisterService)
	suite.movements = new(MockMovementService)
	suite.balances = new(MockBalanceService)
	suite.operations = new(MockOperationsService)

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	handlers.RegisterRoutes(suite.router, &config.Config{JWTSecret: suite.jwtSecret, IsProduction: true}, &portssvc.ServiceContainer{
		Register: suite.registers,
		Movement: suite.movements,
		Balance:  suite.balances,
		Advisor:  suite.operations,
		Transfer: suite.operations,
		Audit:    suite.operations,
	}, prometheus.NewRegistry())
}

// generateTestToken creates a signed JWT for operatorID.
func (suite *HandlersTestSuite) generateTestToken(operatorID string) string {
	signed, err := utils.GenerateOperatorToken(operatorID, suite.jwtSecret, time.Hour, "cashledger-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlersTestSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("op-1"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body["code"]
}

func (suite *HandlersTestSuite) TestOpenRegister_UsesHeaderIdempotencyKey() {
	expected := dto.OpenRegisterRequest{OpeningBalance: decimal.NewFromInt(100000), IdempotencyKey: "key-1"}
	suite.registers.On("OpenRegister", mock.Anything, "L1", mock.MatchedBy(func(req dto.OpenRegisterRequest) bool {
		return req.IdempotencyKey == expected.IdempotencyKey && req.OpeningBalance.Equal(expected.OpeningBalance)
	}), "op-1").Return(&domain.Register{RegisterID: "r1", LocationID: "L1", Status: domain.RegisterOpen, Role: domain.RolePrimary}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/locations/L1/registers",
		map[string]any{"openingBalance": "100000"}, map[string]string{"Idempotency-Key": "key-1"})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.RegisterResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("r1", resp.RegisterID)
	suite.Equal("PRIMARY", resp.Role)
	suite.registers.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestOpenRegister_ConflictMapsTo409() {
	suite.registers.On("OpenRegister", mock.Anything, "L1", mock.Anything, "op-1").
		Return(nil, fmt.Errorf("%w: location already has an open register", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, "/api/v1/locations/L1/registers", map[string]any{"openingBalance": "10"}, nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("conflict", suite.errorCode(w))
}

func (suite *HandlersTestSuite) TestCloseRegister_StatusMapping() {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{apperrors.ErrValidation, http.StatusBadRequest, "validation_error"},
		{apperrors.ErrTransient, http.StatusServiceUnavailable, "temporarily_unavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		suite.registers.On("CloseRegister", mock.Anything, "r1", mock.Anything, "op-1").Return(nil, tc.err).Once()

		w := suite.do(http.MethodPost, "/api/v1/registers/r1/close", map[string]any{"declaredBalance": "125000"}, nil)

		suite.Equal(tc.status, w.Code, "error %v", tc.err)
		suite.Equal(tc.code, suite.errorCode(w))
	}
}

func (suite *HandlersTestSuite) TestCloseRegister_Success() {
	rec := &domain.Reconciliation{
		RegisterID:        "r1",
		CalculatedBalance: decimal.NewFromInt(130000),
		DeclaredBalance:   decimal.NewFromInt(125000),
		Difference:        decimal.NewFromInt(-5000),
	}
	suite.registers.On("CloseRegister", mock.Anything, "r1", mock.MatchedBy(func(req dto.CloseRegisterRequest) bool {
		return req.DeclaredBalance.Equal(decimal.NewFromInt(125000))
	}), "op-1").Return(rec, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/registers/r1/close", map[string]any{"declaredBalance": "125000"}, nil)

	suite.Equal(http.StatusOK, w.Code)
	var got domain.Reconciliation
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.True(got.Difference.Equal(decimal.NewFromInt(-5000)))
}

func (suite *HandlersTestSuite) TestAppendMovement_BindValidation() {
	w := suite.do(http.MethodPost, "/api/v1/registers/r1/movements", map[string]any{"type": "REFUND", "amount": "10"}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.movements.AssertNotCalled(suite.T(), "AppendMovement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestAppendMovement_RequiresAmount() {
	w := suite.do(http.MethodPost, "/api/v1/registers/r1/movements", map[string]any{"type": "ADJUSTMENT"}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("validation_error", suite.errorCode(w))
	suite.movements.AssertNotCalled(suite.T(), "AppendMovement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestAppendMovement_Success() {
	suite.movements.On("AppendMovement", mock.Anything, "r1", mock.Anything, "op-1").
		Return(&domain.Movement{MovementID: "m1", RegisterID: "r1", Type: domain.MovementSale, Amount: decimal.NewFromInt(50000)}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/registers/r1/movements", map[string]any{"type": "SALE", "amount": "50000"}, nil)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.MovementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("m1", resp.MovementID)
	suite.Equal("SALE", resp.Type)
}

func (suite *HandlersTestSuite) TestListMovements_PassesQuery() {
	token := "abc"
	suite.movements.On("ListMovements", mock.Anything, "r1", dto.ListMovementsParams{Limit: 5, NextToken: &token}).
		Return(&dto.ListMovementsResponse{Movements: []dto.MovementResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/registers/r1/movements?limit=5&nextToken=abc", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.movements.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestGetBalance() {
	suite.balances.On("CalculateBalance", mock.Anything, "r1").Return(decimal.NewFromInt(130000), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/registers/r1/balance", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Balance.Equal(decimal.NewFromInt(130000)))
}

func (suite *HandlersTestSuite) TestAdvisor() {
	suite.operations.On("RecommendRegister", mock.Anything, "L1", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(250))
	})).Return(&domain.LoadRecommendation{LocationID: "L1", Suggested: domain.RegisterLoad{RegisterID: "r2"}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/locations/L1/advisor?saleAmount=250", nil, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/locations/L1/advisor?saleAmount=lots", nil, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.operations.On("RecommendRegister", mock.Anything, "L2", mock.Anything).Return(nil, apperrors.ErrNoOpenRegister).Once()
	w = suite.do(http.MethodGet, "/api/v1/locations/L2/advisor?saleAmount=1", nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("no_open_register", suite.errorCode(w))
}

func (suite *HandlersTestSuite) TestTransferShift_RejectsSameOperator() {
	w := suite.do(http.MethodPost, "/api/v1/locations/L1/shift-transfers",
		map[string]any{"registerIDs": []string{"r1"}, "fromOperator": "a", "toOperator": "a"}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.operations.AssertNotCalled(suite.T(), "TransferShift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestAudit_DefaultsAsOf() {
	suite.operations.On("ConsolidatedAudit", mock.Anything, "L1", []string{"r1", "r2"}, time.Time{}, "op-1").
		Return(&domain.AuditRecord{LocationID: "L1", RegistersAudited: 2, Recommendations: []string{domain.NormalOperationRecommendation}}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/locations/L1/audits", map[string]any{"registerIDs": []string{"r1", "r2"}}, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.operations.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestRequiresToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/registers/r1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestHealthAndMetrics() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}
