package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// subscriptionHandler handles plan subscriptions and their payments.
type subscriptionHandler struct {
	subscriptionService portssvc.SubscriptionSvcFacade
}

func registerSubscriptionRoutes(rg *gin.RouterGroup, subscriptionService portssvc.SubscriptionSvcFacade) {
	h := &subscriptionHandler{subscriptionService: subscriptionService}

	subscription := rg.Group("/subscription")
	{
		subscription.POST("", h.subscribe)
		subscription.GET("", h.getSubscription)
		subscription.POST("/cancel", h.cancel)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("", h.listPayments)
		payments.POST("/:paymentID/confirm", h.confirmPayment)
		payments.POST("/:paymentID/cancel", h.cancelPayment)
	}
}

// subscribe godoc
// @Summary Subscribe to a plan or change plan
// @Description Activates the plan and issues a PENDING payment for one month.
// @Tags billing
// @Accept json
// @Produce json
// @Param subscription body dto.SubscribeRequest true "Plan"
// @Success 201 {object} dto.SubscribeResponse
// @Failure 400 {object} ErrorResponse "Unknown or inactive plan"
// @Security BearerAuth
// @Router /subscription [post]
func (h *subscriptionHandler) subscribe(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	sub, payment, err := h.subscriptionService.Subscribe(c.Request.Context(), accountID, req)
	if err != nil {
		respondError(c, err, "Failed to subscribe")
		return
	}

	logger.Info("Subscribed", slog.String("plan_code", sub.PlanCode), slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, dto.SubscribeResponse{
		Subscription: dto.ToSubscriptionResponse(sub),
		Payment:      dto.ToPaymentResponse(payment),
	})
}

// getSubscription godoc
// @Summary Get the latest subscription
// @Tags billing
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /subscription [get]
func (h *subscriptionHandler) getSubscription(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to get subscription")
		return
	}
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// cancel godoc
// @Summary Cancel the current subscription
// @Tags billing
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} ErrorResponse "No active subscription"
// @Security BearerAuth
// @Router /subscription/cancel [post]
func (h *subscriptionHandler) cancel(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to cancel subscription")
		return
	}
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// listPayments godoc
// @Summary List payments, newest first
// @Tags billing
// @Produce json
// @Success 200 {array} dto.PaymentResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *subscriptionHandler) listPayments(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	payments, err := h.subscriptionService.ListPayments(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// confirmPayment godoc
// @Summary Confirm a pending payment
// @Description Marks the payment PAID. A subscription payment reactivates the subscription and the account.
// @Tags billing
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Payment is not pending"
// @Security BearerAuth
// @Router /payments/{paymentID}/confirm [post]
func (h *subscriptionHandler) confirmPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}

	payment, err := h.subscriptionService.ConfirmPayment(c.Request.Context(), accountID, c.Param("paymentID"))
	if err != nil {
		respondError(c, err, "Failed to confirm payment")
		return
	}

	logger.Info("Payment confirmed", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// cancelPayment godoc
// @Summary Cancel a pending payment
// @Tags billing
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Payment is not pending"
// @Security BearerAuth
// @Router /payments/{paymentID}/cancel [post]
func (h *subscriptionHandler) cancelPayment(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	payment, err := h.subscriptionService.CancelPayment(c.Request.Context(), accountID, c.Param("paymentID"))
	if err != nil {
		respondError(c, err, "Failed to cancel payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}
