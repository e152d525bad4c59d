// Package twitter verifies Twitter access tokens and maps them to provider-neutral profiles.
package twitter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

const defaultBaseURL = "https://api.twitter.com"

// Verifier implements service.OAuthVerifier for Twitter sign-in. The
// credential is an OAuth 2.0 user token resolved through /2/users/me. The API
// does not expose the account email, so identities created through this
// provider start without one.
type Verifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVerifier creates a Twitter access token verifier.
func NewVerifier(logger *slog.Logger) service.OAuthVerifier {
	return &Verifier{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Provider returns the OAuth provider this verifier serves.
func (v *Verifier) Provider() entity.Provider {
	return entity.ProviderTwitter
}

type twitterUser struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Verify resolves the token to the user it was issued for.
func (v *Verifier) Verify(ctx context.Context, credential string) (*service.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/2/users/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build twitter request")
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call twitter api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("twitter token validation failed", slog.Int("status", resp.StatusCode))

		return nil, errors.Errorf("twitter api returned %d", resp.StatusCode)
	}

	var user twitterUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "decode twitter response")
	}
	if user.Data.ID == "" {
		return nil, errors.New("twitter response carries no user id")
	}

	v.logger.Info("twitter access token verified",
		slog.String("externalID", user.Data.ID))

	return &service.OAuthProfile{
		ExternalID:  user.Data.ID,
		AccessToken: credential,
	}, nil
}
