package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/anchala/pos/internal/infrastructure/auth"
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTOperatorKey = "jwt_operator"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	TokenService *auth.TokenService
	// TokenBlacklist is consulted for revoked token ids when set
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are served without a token
	SkipPaths []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves health probes and login open
func DefaultJWTConfig(tokens *auth.TokenService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		TokenService: tokens,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/auth/login",
		},
	}
}

// Authenticate requires a valid bearer token on every path outside
// cfg.SkipPaths and stores the claims and operator on the request.
func Authenticate(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := verify(c, cfg, log)
		if err != nil {
			rejectUnauthenticated(c, cfg, log, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTOperatorKey, claims.Operator)
		ctx := c.Request.Context()
		ctx, _ = logger.WithOperator(ctx, logger.FromContext(ctx), claims.Operator)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func verify(c *gin.Context, cfg JWTMiddlewareConfig, log *zap.Logger) (*auth.Claims, error) {
	raw, err := BearerToken(c)
	if err != nil {
		return nil, errors.Join(auth.ErrInvalidToken, err)
	}
	claims, err := cfg.TokenService.Validate(raw)
	if err != nil {
		return nil, err
	}
	if cfg.TokenBlacklist == nil || claims.ID == "" {
		return claims, nil
	}

	revoked, err := cfg.TokenBlacklist.IsBlacklisted(c.Request.Context(), claims.ID)
	switch {
	case err != nil:
		// fail open: a Redis outage must not lock the till
		log.Error("Token blacklist unavailable", zap.String("jti", claims.ID), zap.Error(err))
	case revoked:
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return "", errors.New("invalid authorization header format")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errors.New("missing token")
	}
	return token, nil
}

var authFailures = []struct {
	err     error
	code    string
	message string
}{
	{auth.ErrExpiredToken, dto.ErrCodeTokenExpired, "Token has expired"},
	{auth.ErrTokenRevoked, dto.ErrCodeTokenRevoked, "Token has been revoked"},
	{auth.ErrTokenNotYetValid, dto.ErrCodeTokenInvalid, "Token is not yet valid"},
	{auth.ErrInvalidToken, dto.ErrCodeTokenInvalid, "Invalid token"},
	{auth.ErrInvalidClaims, dto.ErrCodeTokenInvalid, "Invalid token"},
	{auth.ErrMissingOperator, dto.ErrCodeTokenInvalid, "Invalid token"},
}

func rejectUnauthenticated(c *gin.Context, cfg JWTMiddlewareConfig, log *zap.Logger, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		c.Abort()
		return
	}
	log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			code, msg = f.code, f.message
			break
		}
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, msg, getRequestIDFromContext(c)))
}

// GetJWTClaims is the claims stored by Authenticate, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetOperator is the authenticated operator name, or ""
func GetOperator(c *gin.Context) string {
	return c.GetString(JWTOperatorKey)
}
