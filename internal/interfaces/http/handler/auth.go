package handler

import (
	"time"

	"github.com/anchala/pos/internal/application/identity"
	"github.com/anchala/pos/internal/infrastructure/auth"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/anchala/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// LoginRequest represents the request body for operator login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	PIN      string `json:"pin" binding:"required,min=4,max=32"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	Operator    string    `json:"operator"`
}

// CurrentOperatorResponse describes the authenticated session
type CurrentOperatorResponse struct {
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogoutResponse represents the response body for logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles operator authentication
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	tokens      *auth.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
	}
}

// Login authenticates the operator
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		PIN:      req.PIN,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		TokenType:   result.TokenType,
		Operator:    result.Operator,
	})
}

// Logout revokes the bearer token
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := h.claims(c)
	if claims == nil {
		h.Unauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	input := identity.LogoutInput{
		Operator: claims.Operator,
		TokenJTI: claims.ID,
	}
	if claims.ExpiresAt != nil {
		input.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// Me returns the operator behind the bearer token
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	result, err := h.authService.CurrentOperator(h.claims(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, CurrentOperatorResponse{
		Operator:  result.Operator,
		ExpiresAt: result.ExpiresAt,
	})
}

// claims prefers what the JWT middleware stored and falls back to
// validating the header, for routes mounted without the middleware.
func (h *AuthHandler) claims(c *gin.Context) *auth.Claims {
	if claims := middleware.GetJWTClaims(c); claims != nil {
		return claims
	}
	if h.tokens == nil {
		return nil
	}
	token, err := middleware.BearerToken(c)
	if err != nil {
		return nil
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		return nil
	}
	return claims
}
