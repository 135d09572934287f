package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/core/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/handlers"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/SscSPs/workshop_backend/internal/platform/config"
	"github.com/SscSPs/workshop_backend/internal/reports"
	"github.com/SscSPs/workshop_backend/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// APITestSuite drives the full router against real services on the memory store.
type APITestSuite struct {
	suite.Suite
	router *gin.Engine
	token  string
}

func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:             "api-test-secret",
		JWTExpiryDuration:     time.Hour,
		JWTIssuer:             "workshop-test",
		SubscriptionGraceDays: domain.DefaultGraceDays,
	}
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(memory.NewSeededStore()), services.ContainerOptions{})
	authLimiter, err := middleware.NewLimiter("100-M", nil)
	suite.Require().NoError(err)

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, container, authLimiter)

	var login dto.LoginResponse
	w := suite.call(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name": "Joana", "email": "joana@garage.test", "password": "secret123", "shopName": "Oficina da Joana",
	}, &login)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.token = login.Token
}

func (suite *APITestSuite) call(method, url string, body any, out any) *httptest.ResponseRecorder {
	raw := []byte(nil)
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		suite.Require().NoError(err)
	}
	req, _ := http.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if suite.token != "" {
		req.Header.Set("Authorization", "Bearer "+suite.token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (suite *APITestSuite) TestHealthAndPublicPlans() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)

	suite.token = ""
	var plans []dto.PlanResponse
	w = suite.call(http.MethodGet, "/api/v1/plans", nil, &plans)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(plans)

	var plan dto.PlanResponse
	w = suite.call(http.MethodGet, "/api/v1/plans/"+domain.PlanFree, nil, &plan)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(10, plan.MonthlyOrderQuota)

	w = suite.call(http.MethodGet, "/api/v1/plans/GOLD", nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.call(http.MethodGet, "/api/v1/me", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestLoginAndProfile() {
	var login dto.LoginResponse
	w := suite.call(http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "joana@garage.test", "password": "secret123"}, &login)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(login.Token)
	suite.NotEmpty(w.Header().Get("X-RateLimit-Limit"))

	w = suite.call(http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "joana@garage.test", "password": "wrong-pass"}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.call(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"name": "Other", "email": "joana@garage.test", "password": "secret123",
	}, nil)
	suite.Equal(http.StatusConflict, w.Code)

	var me dto.AccountResponse
	w = suite.call(http.MethodGet, "/api/v1/me", nil, &me)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Oficina da Joana", me.ShopName)
	suite.Equal(domain.PlanFree, me.PlanCode)
}

func (suite *APITestSuite) TestOrderLifecyclePostsRevenue() {
	var item dto.ItemResponse
	w := suite.call(http.MethodPost, "/api/v1/inventory/items", map[string]any{
		"code": "OIL-5W30", "name": "Oil 5W30", "category": "OILS", "quantity": 10,
		"costPrice": "20.00", "salePrice": "35.00",
	}, &item)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var order dto.OrderResponse
	w = suite.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"customerName": "Carlos",
		"plate":        "ABC1D23",
		"services":     []map[string]any{{"description": "Oil change", "quantity": 1, "unitPrice": "50.00"}},
		"parts":        []map[string]any{{"itemID": item.ItemID, "quantity": 4}},
	}, &order)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.True(decimal.RequireFromString("190.00").Equal(order.Value), order.Value.String())

	var stocked dto.ItemResponse
	suite.call(http.MethodGet, "/api/v1/inventory/items/"+item.ItemID, nil, &stocked)
	suite.Equal(6, stocked.Quantity)

	w = suite.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"customerName": "Carlos", "plate": "ABC1D23",
		"parts": []map[string]any{{"itemID": item.ItemID, "quantity": 7}},
	}, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.call(http.MethodPut, "/api/v1/orders/"+order.OrderID, map[string]any{"status": "COMPLETED"}, nil)
	suite.Equal(http.StatusConflict, w.Code)

	for _, status := range []string{"IN_PROGRESS", "COMPLETED"} {
		w = suite.call(http.MethodPut, "/api/v1/orders/"+order.OrderID, map[string]any{"status": status}, &order)
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	}
	suite.NotNil(order.CompletedAt)

	var summary domain.FinancialSummary
	w = suite.call(http.MethodGet, "/api/v1/finance/summary", nil, &summary)
	suite.Equal(http.StatusOK, w.Code)
	suite.True(decimal.RequireFromString("190.00").Equal(summary.TotalIn), summary.TotalIn.String())

	var list dto.ListTransactionsResponse
	w = suite.call(http.MethodGet, "/api/v1/finance/transactions?direction=IN", nil, &list)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().Len(list.Transactions, 1)
	suite.Equal(domain.OriginOrder, list.Transactions[0].OriginKind)

	var alerts []dto.AlertResponse
	w = suite.call(http.MethodGet, "/api/v1/inventory/alerts", nil, &alerts)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestLedgerReversalAndCashFlowExport() {
	var txn dto.TransactionResponse
	w := suite.call(http.MethodPost, "/api/v1/finance/transactions", map[string]any{
		"direction": "OUT", "amount": "80.00", "description": "Electricity bill",
	}, &txn)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.Equal(domain.MethodCash, txn.PaymentMethod)

	var reversal dto.TransactionResponse
	w = suite.call(http.MethodPost, "/api/v1/finance/transactions/"+txn.TransactionID+"/reverse", nil, &reversal)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.Equal(domain.DirectionIn, reversal.Direction)

	w = suite.call(http.MethodPost, "/api/v1/finance/transactions/"+txn.TransactionID+"/reverse", nil, nil)
	suite.Equal(http.StatusConflict, w.Code)
	w = suite.call(http.MethodPost, "/api/v1/finance/transactions/"+reversal.TransactionID+"/reverse", nil, nil)
	suite.Equal(http.StatusConflict, w.Code)

	today := time.Now().UTC().Format(time.DateOnly)
	var rows []dto.CashFlowResponse
	w = suite.call(http.MethodGet, "/api/v1/finance/cash-flow?from="+today+"&to="+today, nil, &rows)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().Len(rows, 1)
	suite.True(rows[0].DailyBalance.IsZero(), rows[0].DailyBalance.String())

	w = suite.call(http.MethodGet, "/api/v1/finance/cash-flow?from="+today, nil, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.call(http.MethodGet, "/api/v1/finance/cash-flow/export?from="+today+"&to="+today, nil, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(reports.ContentTypeXLSX, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), ".xlsx")
	suite.NotZero(w.Body.Len())
}

func (suite *APITestSuite) TestCategories() {
	var category dto.CategoryResponse
	w := suite.call(http.MethodPost, "/api/v1/finance/categories", map[string]any{"name": "Tools", "direction": "OUT"}, &category)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.False(category.System)

	w = suite.call(http.MethodPost, "/api/v1/finance/categories", map[string]any{"name": "Tools", "direction": "OUT"}, nil)
	suite.Equal(http.StatusConflict, w.Code)

	var categories []dto.CategoryResponse
	suite.call(http.MethodGet, "/api/v1/finance/categories", nil, &categories)
	var systemID string
	for _, c := range categories {
		if c.System {
			systemID = c.CategoryID
		}
	}
	suite.Require().NotEmpty(systemID)

	w = suite.call(http.MethodDelete, "/api/v1/finance/categories/"+systemID, nil, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	w = suite.call(http.MethodDelete, "/api/v1/finance/categories/"+category.CategoryID, nil, nil)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *APITestSuite) TestSubscriptionAndPayments() {
	var subscribed dto.SubscribeResponse
	w := suite.call(http.MethodPost, "/api/v1/subscription", map[string]any{"planCode": "premium"}, &subscribed)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.Equal(domain.PlanPremium, subscribed.Subscription.PlanCode)
	suite.Equal(domain.PaymentPending, subscribed.Payment.Status)

	w = suite.call(http.MethodPost, "/api/v1/subscription", map[string]any{"planCode": "premium", "paymentMethod": "BITCOIN"}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	var paid dto.PaymentResponse
	w = suite.call(http.MethodPost, "/api/v1/payments/"+subscribed.Payment.PaymentID+"/confirm", nil, &paid)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(domain.PaymentPaid, paid.Status)
	suite.NotNil(paid.PaidAt)

	w = suite.call(http.MethodPost, "/api/v1/payments/"+subscribed.Payment.PaymentID+"/cancel", nil, nil)
	suite.Equal(http.StatusConflict, w.Code)

	var payments []dto.PaymentResponse
	suite.call(http.MethodGet, "/api/v1/payments", nil, &payments)
	suite.Len(payments, 1)

	var canceled dto.SubscriptionResponse
	w = suite.call(http.MethodPost, "/api/v1/subscription/cancel", nil, &canceled)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(domain.SubscriptionCanceled, canceled.Status)

	w = suite.call(http.MethodPost, "/api/v1/subscription/cancel", nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
