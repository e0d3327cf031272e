package model

import "time"

// RefreshToken is the persisted server-side record for one refresh credential.
// A row grants a new access token iff it is not revoked and not expired;
// revocation is monotonic and rows are kept (not deleted) for audit.
type RefreshToken struct {
	ID         int64     `json:"id"`
	Token      string    `json:"token"`
	UserID     int64     `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsRevoked  bool      `json:"is_revoked"`
	CreatedAt  time.Time `json:"created_at"`
	DeviceInfo string    `json:"device_info,omitempty"`
}

// TokenPair is the wire shape returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	UserEmail    string `json:"userEmail"`
}
