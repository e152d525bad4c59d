// Package facebook verifies Facebook access tokens and maps them to provider-neutral profiles.
package facebook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// Verifier implements service.OAuthVerifier for Facebook sign-in. The
// credential is a Graph API access token and the profile comes from /me.
// Facebook only ever returns a confirmed address, so the email field can be
// trusted for account matching when present.
type Verifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVerifier creates a Facebook access token verifier.
func NewVerifier(logger *slog.Logger) service.OAuthVerifier {
	return &Verifier{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Provider returns the OAuth provider this verifier serves.
func (v *Verifier) Provider() entity.Provider {
	return entity.ProviderFacebook
}

type facebookUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves the token to the Graph API user behind it. The email is
// absent when the account is phone-only or the permission was not granted.
func (v *Verifier) Verify(ctx context.Context, credential string) (*service.OAuthProfile, error) {
	query := url.Values{}
	query.Set("fields", "id,email")
	query.Set("access_token", credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/me?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build facebook request")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call facebook graph api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("facebook token validation failed", slog.Int("status", resp.StatusCode))

		return nil, errors.Errorf("facebook graph api returned %d", resp.StatusCode)
	}

	var user facebookUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "decode facebook response")
	}
	if user.ID == "" {
		return nil, errors.New("facebook response carries no user id")
	}

	profile := &service.OAuthProfile{
		ExternalID:  user.ID,
		Email:       user.Email,
		AccessToken: credential,
	}
	if user.Email != "" {
		profile.Emails = []string{user.Email}
	}

	v.logger.Info("facebook access token verified",
		slog.String("externalID", profile.ExternalID))

	return profile, nil
}
