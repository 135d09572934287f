package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/SscSPs/workshop_backend/internal/reports"
	"github.com/gin-gonic/gin"
)

// financeHandler handles ledger transactions, cash-flow reads and categories.
type financeHandler struct {
	financeService  portssvc.FinanceSvcFacade
	categoryService portssvc.CategorySvcFacade
}

func newFinanceHandler(fs portssvc.FinanceSvcFacade, cs portssvc.CategorySvcFacade) *financeHandler {
	return &financeHandler{financeService: fs, categoryService: cs}
}

// registerFinanceRoutes registers routes related to the financial ledger.
func registerFinanceRoutes(rg *gin.RouterGroup, financeService portssvc.FinanceSvcFacade, categoryService portssvc.CategorySvcFacade) {
	h := newFinanceHandler(financeService, categoryService)

	finance := rg.Group("/finance")
	{
		transactions := finance.Group("/transactions")
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.POST("/:transactionID/reverse", h.reverseTransaction)

		finance.GET("/summary", h.getSummary)
		finance.GET("/cash-flow", h.getCashFlow)
		finance.GET("/cash-flow/export", h.exportCashFlow)

		categories := finance.Group("/categories")
		categories.POST("", h.createCategory)
		categories.GET("", h.listCategories)
		categories.DELETE("/:categoryID", h.deleteCategory)
	}
}

// createTransaction godoc
// @Summary Post a manual transaction
// @Tags finance
// @Accept json
// @Produce json
// @Param transaction body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/transactions [post]
func (h *financeHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	txn, err := h.financeService.Post(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, err, "Failed to post transaction")
		return
	}

	logger.Info("Transaction posted", slog.String("transaction_id", txn.TransactionID), slog.String("amount", txn.Amount.String()))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List transactions, newest effective date first
// @Tags finance
// @Produce json
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day (inclusive), YYYY-MM-DD"
// @Param direction query string false "IN or OUT"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/transactions [get]
func (h *financeHandler) listTransactions(c *gin.Context) {
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	resp, err := h.financeService.ListTransactions(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getTransaction godoc
// @Summary Get a transaction
// @Tags finance
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/transactions/{transactionID} [get]
func (h *financeHandler) getTransaction(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	txn, err := h.financeService.GetTransaction(c.Request.Context(), accountID, c.Param("transactionID"))
	if err != nil {
		respondError(c, err, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Posts an opposite-direction reversal dated today.
// @Tags finance
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 201 {object} dto.TransactionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already reversed, or is itself a reversal"
// @Security BearerAuth
// @Router /finance/transactions/{transactionID}/reverse [post]
func (h *financeHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	reversal, err := h.financeService.Reverse(c.Request.Context(), accountID, c.Param("transactionID"))
	if err != nil {
		respondError(c, err, "Failed to reverse transaction")
		return
	}

	logger.Info("Transaction reversed", slog.String("reversal_id", reversal.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}

// getSummary godoc
// @Summary Financial summary for the dashboard
// @Tags finance
// @Produce json
// @Success 200 {object} domain.FinancialSummary
// @Security BearerAuth
// @Router /finance/summary [get]
func (h *financeHandler) getSummary(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	summary, err := h.financeService.GetSummary(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to compute summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// bindCashFlowRange parses the required inclusive from/to day range.
func bindCashFlowRange(c *gin.Context) (time.Time, time.Time, bool) {
	var params dto.CashFlowParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.DateOnly, params.From)
	if err != nil {
		badRequest(c, "Invalid from date", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.DateOnly, params.To)
	if err != nil {
		badRequest(c, "Invalid to date", err)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// getCashFlow godoc
// @Summary Daily cash-flow rollup
// @Tags finance
// @Produce json
// @Param from query string true "First day, YYYY-MM-DD"
// @Param to query string true "Last day (inclusive), YYYY-MM-DD"
// @Success 200 {array} dto.CashFlowResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/cash-flow [get]
func (h *financeHandler) getCashFlow(c *gin.Context) {
	from, to, ok := bindCashFlowRange(c)
	if !ok {
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	rows, err := h.financeService.GetCashFlow(c.Request.Context(), accountID, from, to)
	if err != nil {
		respondError(c, err, "Failed to load cash flow")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashFlowResponses(rows))
}

// exportCashFlow godoc
// @Summary Export the daily cash-flow rollup as an XLSX workbook
// @Tags finance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "First day, YYYY-MM-DD"
// @Param to query string true "Last day (inclusive), YYYY-MM-DD"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/cash-flow/export [get]
func (h *financeHandler) exportCashFlow(c *gin.Context) {
	from, to, ok := bindCashFlowRange(c)
	if !ok {
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.financeService.ExportCashFlow(c.Request.Context(), accountID, from, to, &buf); err != nil {
		respondError(c, err, "Failed to export cash flow")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+reports.CashFlowFilename(from, to)+`"`)
	c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
}

// createCategory godoc
// @Summary Create a private category
// @Tags finance
// @Accept json
// @Produce json
// @Param category body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already used for this direction"
// @Security BearerAuth
// @Router /finance/categories [post]
func (h *financeHandler) createCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCategoryResponse(category))
}

// listCategories godoc
// @Summary List system and private categories
// @Tags finance
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Security BearerAuth
// @Router /finance/categories [get]
func (h *financeHandler) listCategories(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	categories, err := h.categoryService.ListCategories(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryResponses(categories))
}

// deleteCategory godoc
// @Summary Delete a private category
// @Tags finance
// @Param categoryID path string true "Category ID"
// @Success 204
// @Failure 403 {object} ErrorResponse "System or foreign category"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Still referenced by transactions"
// @Security BearerAuth
// @Router /finance/categories/{categoryID} [delete]
func (h *financeHandler) deleteCategory(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	if err := h.categoryService.DeleteCategory(c.Request.Context(), accountID, c.Param("categoryID")); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}
