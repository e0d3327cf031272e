// Package identity validates third-party identity-provider access tokens and
// extracts a verified user profile from the provider's response.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"auth-gateway/internal/model"
)

// Verifier checks an opaque external bearer token and returns the identity it
// belongs to. ErrInvalidExternalToken means the provider rejected the token.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (model.ExternalIdentity, error)
}

// GraphVerifier resolves tokens against the Microsoft Graph /me endpoint.
type GraphVerifier struct {
	client *http.Client
	meURL  string
}

func NewGraphVerifier(meURL string, timeout time.Duration) *GraphVerifier {
	return &GraphVerifier{
		client: &http.Client{Timeout: timeout},
		meURL:  meURL,
	}
}

// graphProfile mirrors the fields /me may return. The provider renames or
// omits email fields depending on tenant configuration, so extraction below
// follows an explicit priority list instead of probing dynamically.
type graphProfile struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	PreferredUsername string `json:"preferredUsername"`
	DisplayName       string `json:"displayName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
}

func (v *GraphVerifier) Verify(ctx context.Context, accessToken string) (model.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.meURL, nil)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		slog.Warn("external token validation failed", "status", resp.StatusCode)
		return model.ExternalIdentity{}, model.ErrInvalidExternalToken
	}

	var profile graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("decode identity profile: %w", err)
	}

	if strings.TrimSpace(profile.ID) == "" {
		slog.Warn("identity provider response missing id")
		return model.ExternalIdentity{}, model.ErrInvalidExternalToken
	}

	return model.ExternalIdentity{
		ID:          profile.ID,
		Email:       resolveEmail(profile),
		DisplayName: resolveDisplayName(profile),
		GivenName:   profile.GivenName,
		Surname:     profile.Surname,
	}, nil
}

// resolveEmail picks the first populated email-bearing field. The synthesized
// placeholder keeps accounts usable when the tenant exposes no email at all.
func resolveEmail(p graphProfile) string {
	for _, candidate := range []string{p.Mail, p.UserPrincipalName, p.PreferredUsername} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}

	return p.ID + "@azure.local"
}

func resolveDisplayName(p graphProfile) string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}

	return "User"
}
