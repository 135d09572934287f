package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/handlers"
	"github.com/SscSPs/workshop_backend/internal/platform/config"
	"github.com/SscSPs/workshop_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock OrderService ---
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, accountID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, accountID string, params dto.ListOrdersParams) ([]domain.Order, error) {
	args := m.Called(ctx, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderService) DashboardStats(ctx context.Context, accountID string) (*domain.DashboardStats, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardStats), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, accountID string, req dto.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, accountID, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, accountID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, accountID, orderID string) error {
	args := m.Called(ctx, accountID, orderID)
	return args.Error(0)
}

func (m *MockOrderService) ReconcileCompletedOrders(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

// --- Test Suite Setup ---
type OrderHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockOrderService *MockOrderService
	cfg              *config.Config
}

func (suite *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.cfg = &config.Config{
		JWTSecret:         "test-secret-key-that-is-long-enough",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "workshop-test",
		IsProduction:      true,
	}
	suite.mockOrderService = new(MockOrderService)

	handlers.RegisterRoutes(suite.router, suite.cfg, &portssvc.ServiceContainer{
		Order: suite.mockOrderService,
	}, nil)
}

func (suite *OrderHandlerTestSuite) token(accountID string) string {
	token, _, err := utils.GenerateJWT(accountID, suite.cfg.JWTSecret, time.Hour, suite.cfg.JWTIssuer, time.Now())
	suite.Require().NoError(err)
	return token
}

func (suite *OrderHandlerTestSuite) do(method, url, accountID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.token(accountID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *OrderHandlerTestSuite) TestCreateOrder_Success() {
	accountID := uuid.NewString()
	order := &domain.Order{
		OrderID:      uuid.NewString(),
		AccountID:    accountID,
		CustomerName: "Maria",
		Plate:        "ABC1D23",
		Status:       domain.StatusOpen,
		Value:        decimal.RequireFromString("250.00"),
	}
	suite.mockOrderService.On("CreateOrder", mock.Anything, accountID,
		mock.MatchedBy(func(req dto.CreateOrderRequest) bool {
			return req.CustomerName == "Maria" && req.Plate == "abc-1d23" && len(req.Parts) == 1
		}),
	).Return(order, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/orders", accountID, map[string]any{
		"customerName": "Maria",
		"plate":        "abc-1d23",
		"parts":        []map[string]any{{"itemID": uuid.NewString(), "quantity": 2}},
	})

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.OrderResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(order.OrderID, resp.OrderID)
	suite.True(order.Value.Equal(resp.Value))
	suite.Equal(domain.StatusOpen, resp.Status)
	suite.mockOrderService.AssertExpectations(suite.T())
}

func (suite *OrderHandlerTestSuite) TestCreateOrder_RequiresToken() {
	w := suite.do(http.MethodPost, "/api/v1/orders", "", map[string]any{"customerName": "Maria", "plate": "ABC1234"})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockOrderService.AssertNotCalled(suite.T(), "CreateOrder")
}

func (suite *OrderHandlerTestSuite) TestCreateOrder_BindingErrors() {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing customer", map[string]any{"plate": "ABC1234"}},
		{"bad plate", map[string]any{"customerName": "Maria", "plate": "12-ABCD"}},
		{"zero part quantity", map[string]any{"customerName": "Maria", "plate": "ABC1234",
			"parts": []map[string]any{{"itemID": "x", "quantity": 0}}}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do(http.MethodPost, "/api/v1/orders", uuid.NewString(), tt.body)
			suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	suite.mockOrderService.AssertNotCalled(suite.T(), "CreateOrder")
}

func (suite *OrderHandlerTestSuite) TestCreateOrder_ServiceErrorsMapToStatus() {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: item FLT-1", apperrors.ErrInsufficientStock), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: FREE allows 10 orders per month", apperrors.ErrQuotaExceeded), http.StatusForbidden},
		{apperrors.ErrAccountInactive, http.StatusForbidden},
		{fmt.Errorf("%w: customerName is required", apperrors.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: item", apperrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("database unavailable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		suite.Run(tt.err.Error(), func() {
			accountID := uuid.NewString()
			suite.mockOrderService.On("CreateOrder", mock.Anything, accountID, mock.Anything).Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/orders", accountID, map[string]any{"customerName": "Maria", "plate": "ABC1234"})

			suite.Equal(tt.status, w.Code)
			var resp handlers.ErrorResponse
			suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.status == http.StatusInternalServerError {
				suite.Equal("Failed to create order", resp.Error)
			} else {
				suite.Equal(tt.err.Error(), resp.Error)
			}
		})
	}
}

func (suite *OrderHandlerTestSuite) TestUpdateOrder_InvalidTransitionIsConflict() {
	accountID := uuid.NewString()
	orderID := uuid.NewString()
	suite.mockOrderService.On("UpdateOrder", mock.Anything, accountID, orderID,
		mock.MatchedBy(func(req dto.UpdateOrderRequest) bool {
			return req.Status != nil && *req.Status == domain.StatusCompleted
		}),
	).Return(nil, fmt.Errorf("%w: OPEN -> COMPLETED", apperrors.ErrInvalidTransition)).Once()

	w := suite.do(http.MethodPut, "/api/v1/orders/"+orderID, accountID, map[string]any{"status": "COMPLETED"})

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockOrderService.AssertExpectations(suite.T())
}

func (suite *OrderHandlerTestSuite) TestUpdateOrder_UnknownStatusRejected() {
	w := suite.do(http.MethodPut, "/api/v1/orders/"+uuid.NewString(), uuid.NewString(), map[string]any{"status": "DONE"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockOrderService.AssertNotCalled(suite.T(), "UpdateOrder")
}

func (suite *OrderHandlerTestSuite) TestGetOrder_Forbidden() {
	accountID := uuid.NewString()
	orderID := uuid.NewString()
	suite.mockOrderService.On("GetOrder", mock.Anything, accountID, orderID).Return(nil, apperrors.ErrForbidden).Once()

	w := suite.do(http.MethodGet, "/api/v1/orders/"+orderID, accountID, nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *OrderHandlerTestSuite) TestListOrders_FilterAndDashboard() {
	accountID := uuid.NewString()
	suite.mockOrderService.On("ListOrders", mock.Anything, accountID, dto.ListOrdersParams{Status: "IN_PROGRESS"}).
		Return([]domain.Order{{OrderID: "o-1", Status: domain.StatusInProgress}}, nil).Once()
	suite.mockOrderService.On("DashboardStats", mock.Anything, accountID).
		Return(&domain.DashboardStats{Total: 3, Open: 1, InProgress: 1, Completed: 1, ThisMonth: 2}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/orders?status=IN_PROGRESS", accountID, nil)
	suite.Equal(http.StatusOK, w.Code)
	var list []dto.OrderResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Len(list, 1)

	w = suite.do(http.MethodGet, "/api/v1/orders/dashboard", accountID, nil)
	suite.Equal(http.StatusOK, w.Code)
	var stats dto.DashboardResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	suite.Equal(int64(3), stats.Total)
	suite.Equal(int64(2), stats.ThisMonth)

	w = suite.do(http.MethodGet, "/api/v1/orders?status=LOST", accountID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockOrderService.AssertExpectations(suite.T())
}

func (suite *OrderHandlerTestSuite) TestDeleteOrder() {
	accountID := uuid.NewString()
	orderID := uuid.NewString()
	suite.mockOrderService.On("DeleteOrder", mock.Anything, accountID, orderID).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/orders/"+orderID, accountID, nil)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockOrderService.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestOrderHandler(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
