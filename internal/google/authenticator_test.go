package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newTokenEndpoint serves the OAuth token endpoint, answering every exchange
// or refresh with a fresh access token.
func newTokenEndpoint(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"granted-%d","token_type":"Bearer","refresh_token":"refresh-token","expires_in":3600}`, hits)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestAuthenticator(t *testing.T, store *FileTokenStore, grant GrantFunc) (*Authenticator, *int) {
	t.Helper()
	srv, hits := newTokenEndpoint(t)

	a := NewAuthenticator(FamilyMail, store, grant, nil)
	a.conf = &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		Scopes: ScopesFor(FamilyMail),
	}
	return a, hits
}

func TestAuthenticateValidTokenNeedsNoGrant(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Save(FamilyMail, &oauth2.Token{
		AccessToken: "still-valid",
		Expiry:      time.Now().Add(time.Hour),
	}))

	grants := 0
	a, hits := newTestAuthenticator(t, store, func(ctx context.Context, authURL string) (string, error) {
		grants++
		return "code", nil
	})

	token, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-valid", token.AccessToken)
	assert.Zero(t, grants)
	assert.Zero(t, *hits, "no token endpoint traffic for a valid credential")
}

func TestAuthenticateRefreshesExpiredToken(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Save(FamilyMail, &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	grants := 0
	a, _ := newTestAuthenticator(t, store, func(ctx context.Context, authURL string) (string, error) {
		grants++
		return "code", nil
	})

	token, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "expired", token.AccessToken)
	assert.Zero(t, grants, "refreshable credential must not trigger an interactive grant")

	// The refreshed token was persisted back.
	persisted, err := store.Load(FamilyMail)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, persisted.AccessToken)
}

func TestAuthenticateAbsentTokenTriggersOneGrant(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	grants := 0
	a, _ := newTestAuthenticator(t, store, func(ctx context.Context, authURL string) (string, error) {
		grants++
		assert.Contains(t, authURL, "access_type=offline")
		return "auth-code", nil
	})

	token, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, 1, grants, "exactly one interactive grant")

	persisted, err := store.Load(FamilyMail)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, persisted.AccessToken)
}

func TestAuthenticateHeadlessWithoutCredentialFails(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	a, _ := newTestAuthenticator(t, store, nil)

	_, err := a.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive grant is unavailable")
}

func TestScopesFor(t *testing.T) {
	assert.Contains(t, ScopesFor(FamilyMail)[0], "gmail")
	assert.Len(t, ScopesFor(FamilyMail), 2)
	assert.Contains(t, ScopesFor(FamilyCalendar)[0], "calendar")
}
