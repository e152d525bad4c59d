package google

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/idtoken"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/errors"
)

func testVerifierConfig(clientID string) *config.Config {
	return &config.Config{
		GoogleOAuth: &config.GoogleOAuthConfig{ClientID: clientID},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewVerifier_RequiresClientID(t *testing.T) {
	verifier, err := NewVerifier(&config.Config{}, discardLogger())
	assert.Error(t, err)
	assert.Nil(t, verifier)
}

func TestVerifier_Provider(t *testing.T) {
	verifier, err := NewVerifier(testVerifierConfig("client-id"), discardLogger())
	assert.NoError(t, err)
	assert.Equal(t, entity.ProviderGoogle, verifier.Provider())
}

func TestVerifier_Verify(t *testing.T) {
	verifier := &Verifier{
		clientID: "client-id",
		logger:   discardLogger(),
		validate: func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
			assert.Equal(t, "raw-id-token", token)
			assert.Equal(t, "client-id", audience)

			return &idtoken.Payload{
				Subject: "google-sub-123",
				Claims: map[string]any{
					"email":          "alice@example.com",
					"email_verified": true,
				},
			}, nil
		},
	}

	profile, err := verifier.Verify(context.Background(), "raw-id-token")
	assert.NoError(t, err)
	assert.Equal(t, "google-sub-123", profile.ExternalID)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, []string{"alice@example.com"}, profile.Emails)
}

func TestVerifier_Verify_UnverifiedEmailDropped(t *testing.T) {
	verifier := &Verifier{
		clientID: "client-id",
		logger:   discardLogger(),
		validate: func(_ context.Context, _, _ string) (*idtoken.Payload, error) {
			return &idtoken.Payload{
				Subject: "google-sub-123",
				Claims: map[string]any{
					"email":          "alice@example.com",
					"email_verified": false,
				},
			}, nil
		},
	}

	profile, err := verifier.Verify(context.Background(), "raw-id-token")
	assert.NoError(t, err)
	assert.Equal(t, "google-sub-123", profile.ExternalID)
	assert.Empty(t, profile.Email)
	assert.Empty(t, profile.Emails)
}

func TestVerifier_Verify_InvalidToken(t *testing.T) {
	verifier := &Verifier{
		clientID: "client-id",
		logger:   discardLogger(),
		validate: func(_ context.Context, _, _ string) (*idtoken.Payload, error) {
			return nil, errors.New("idtoken: signature mismatch")
		},
	}

	profile, err := verifier.Verify(context.Background(), "tampered")
	assert.Error(t, err)
	assert.Nil(t, profile)
}
