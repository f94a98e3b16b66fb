package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/service"
)

// Handlers contains the HTTP handlers for the check-in API.
type Handlers struct {
	auth      *service.AuthService
	bootstrap *service.BootstrapService
	balance   *service.BalanceService
	actions   *service.ActionService
	logger    *zap.Logger

	// baseCtx scopes the background bootstrap kicked off after login, so
	// shutting the server down cancels its delay and retries.
	baseCtx context.Context
}

// NewHandlers creates the handler set.
func NewHandlers(
	baseCtx context.Context,
	auth *service.AuthService,
	bootstrap *service.BootstrapService,
	balance *service.BalanceService,
	actions *service.ActionService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		auth:      auth,
		bootstrap: bootstrap,
		balance:   balance,
		actions:   actions,
		logger:    logger,
		baseCtx:   baseCtx,
	}
}

// Login handles the email OTP login request.
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email)
	if err != nil {
		var perr *core.ProviderError

		switch {
		case errors.Is(err, core.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Enter a valid email"})
		case errors.Is(err, core.ErrLoginInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Login already in progress"})
		case errors.As(err, &perr):
			c.JSON(http.StatusUnauthorized, gin.H{"error": perr.Message})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again"})
		}
		return
	}

	// The provider may take a moment to honor the fresh token, so the
	// account resolves in the background.
	go func() {
		if err := h.bootstrap.Run(h.baseCtx); err != nil {
			h.logger.Warn("bootstrap after login failed", zap.Error(err))
			return
		}
		if err := h.balance.Refresh(h.baseCtx); err != nil {
			h.logger.Warn("balance refresh after login failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
	})
}

// Logout handles session disconnect.
func (h *Handlers) Logout(c *gin.Context) {
	credentialID := c.GetString(contextKeyCredentialID)

	if err := h.auth.Logout(c.Request.Context(), credentialID); err != nil {
		if errors.Is(err, core.ErrNoSession) {
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the bootstrap state and the account metadata, cached or
// resolved.
func (h *Handlers) Me(c *gin.Context) {
	resp := gin.H{
		"email": c.GetString(contextKeyEmail),
		"state": h.bootstrap.State(),
	}

	if account, ok := h.bootstrap.Account(); ok {
		resp["public_address"] = account.PublicAddress
		resp["email"] = account.Email
	}

	c.JSON(http.StatusOK, resp)
}

// Balance returns the current balance view without fetching.
func (h *Handlers) Balance(c *gin.Context) {
	view := h.balance.View()
	c.JSON(http.StatusOK, gin.H{
		"balance":    view.Display,
		"refreshing": view.Refreshing,
	})
}

// RefreshBalance fetches the balance and returns the updated view.
func (h *Handlers) RefreshBalance(c *gin.Context) {
	if err := h.balance.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Balance refresh failed"})
		return
	}

	view := h.balance.View()
	c.JSON(http.StatusOK, gin.H{
		"balance":    view.Display,
		"refreshing": view.Refreshing,
	})
}

// Airdrop requests the fixed test-network grant.
func (h *Handlers) Airdrop(c *gin.Context) {
	signature, err := h.actions.Airdrop(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoAccount), errors.Is(err, core.ErrNoConnection):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Public address not found or connection not established"})
		case errors.Is(err, core.ErrActionInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Airdrop already in progress"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Airdrop failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Airdropped 2 SOL!",
		"signature": signature,
	})
}

// CheckIn submits the proof-of-liveness transfer.
func (h *Handlers) CheckIn(c *gin.Context) {
	result, err := h.actions.CheckIn(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoAccount), errors.Is(err, core.ErrNoConnection):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Public address not found or wallet not initialized"})
		case errors.Is(err, core.ErrActionInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Check-in already in progress"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": result.Signature})
}
