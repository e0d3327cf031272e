package model

import "time"

type User struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// ExternalIdentity is the verified profile returned by the identity provider.
type ExternalIdentity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	GivenName   string `json:"given_name"`
	Surname     string `json:"surname"`
}

type AuthClaims struct {
	UserID      int64  `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	ExternalID  string `json:"external_id"`
	Type        string `json:"token_type"`
	TokenID     string `json:"jti"`
}
