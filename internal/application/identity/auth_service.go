package identity

import (
	"context"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Authenticator checks operator credentials
type Authenticator interface {
	Authenticate(username, pin string) (string, error)
}

// AuthService handles operator login and logout
type AuthService struct {
	authenticator Authenticator
	tokens        *auth.TokenService
	blacklist     auth.TokenBlacklist
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout only ends the session client side.
func NewAuthService(
	authenticator Authenticator,
	tokens *auth.TokenService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		authenticator: authenticator,
		tokens:        tokens,
		blacklist:     blacklist,
		logger:        logger,
		now:           time.Now,
	}
}

// Login authenticates the operator and returns a bearer token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	operator, err := s.authenticator.Authenticate(input.Username, input.PIN)
	if err != nil {
		s.logger.Warn("Failed login attempt",
			zap.String("username", input.Username),
			zap.String("ip", input.IP))
		return nil, shared.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid operator name or PIN")
	}

	token, err := s.tokens.Issue(operator)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Operator logged in",
		zap.String("operator", operator),
		zap.String("ip", input.IP))

	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Operator:    operator,
	}, nil
}

// Logout revokes the token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Operator logout", zap.String("operator", input.Operator))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := input.ExpiresAt.Sub(s.now())
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("jti", input.TokenJTI), zap.Error(err))
		return shared.NewPersistenceError("Failed to revoke token", err)
	}
	return nil
}

// CurrentOperator describes the session behind validated claims
func (s *AuthService) CurrentOperator(claims *auth.Claims) (*CurrentOperatorResult, error) {
	if claims == nil || claims.Operator == "" {
		return nil, shared.NewUnauthorizedError(shared.CodeUnauthorized, "Authentication required")
	}
	result := &CurrentOperatorResult{Operator: claims.Operator}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
