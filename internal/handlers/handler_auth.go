package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// authHandler handles registration, login and the caller's profile.
type authHandler struct {
	accountService portssvc.AccountSvcFacade
}

func newAuthHandler(as portssvc.AccountSvcFacade) *authHandler {
	return &authHandler{accountService: as}
}

// registerAuthRoutes sets up the public authentication routes. Both are
// rate limited per client IP when a limiter is given.
func registerAuthRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, authLimiter *limiter.Limiter) {
	h := newAuthHandler(accountService)

	auth := rg.Group("/auth")
	if authLimiter != nil {
		auth.Use(middleware.RateLimit(authLimiter))
	}
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

// registerProfileRoutes sets up the authenticated profile route.
func registerProfileRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAuthHandler(accountService)
	rg.GET("/me", h.me)
}

// register godoc
// @Summary Register a new shop account
// @Description Creates an account on the FREE plan and returns a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post]
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to register account")
		return
	}

	logger.Info("Account registered", slog.String("account_id", resp.Account.AccountID))
	c.JSON(http.StatusCreated, resp)
}

// login godoc
// @Summary Log in
// @Description Authenticates by email and password and returns a JWT.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Account inactive"
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.accountService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to log in")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// me godoc
// @Summary Get the caller's account
// @Tags auth
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (h *authHandler) me(c *gin.Context) {
	accountID, ok := requireAccountID(c)
	if !ok {
		return
	}
	account, err := h.accountService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
