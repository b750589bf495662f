package identity

import "time"

// LoginInput contains the input for operator login
type LoginInput struct {
	Username string
	PIN      string
	IP       string
}

// LoginResult is an issued bearer token
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	Operator    string    `json:"operator"`
}

// LogoutInput identifies the token to revoke
type LogoutInput struct {
	Operator  string
	TokenJTI  string
	ExpiresAt time.Time
}

// CurrentOperatorResult describes the authenticated session
type CurrentOperatorResult struct {
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}
