package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/anchala/pos/internal/infrastructure/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login; it does not say
// which part was wrong.
var ErrInvalidCredentials = errors.New("invalid operator name or PIN")

// MinPINLength is the shortest PIN HashPIN accepts
const MinPINLength = 4

// OperatorAuthenticator checks the single operator's name and PIN against
// the configured bcrypt hash.
type OperatorAuthenticator struct {
	operator string
	pinHash  []byte
}

// NewOperatorAuthenticator creates an authenticator from the auth configuration
func NewOperatorAuthenticator(cfg config.AuthConfig) *OperatorAuthenticator {
	return &OperatorAuthenticator{
		operator: strings.TrimSpace(cfg.OperatorName),
		pinHash:  []byte(cfg.PINHash),
	}
}

// Authenticate returns the canonical operator name on success
func (a *OperatorAuthenticator) Authenticate(username, pin string) (string, error) {
	nameOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(username))),
		[]byte(strings.ToLower(a.operator)),
	) == 1
	// always run bcrypt so a wrong name costs the same as a wrong PIN
	pinErr := bcrypt.CompareHashAndPassword(a.pinHash, []byte(pin))
	if !nameOK || pinErr != nil {
		return "", ErrInvalidCredentials
	}
	return a.operator, nil
}

// HashPIN produces the bcrypt hash to put in auth.pin_hash
func HashPIN(pin string) (string, error) {
	if len(pin) < MinPINLength {
		return "", errors.New("PIN must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
