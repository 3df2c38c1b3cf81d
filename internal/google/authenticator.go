package google

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/teemow/taskpilot/internal/logging"
)

// GrantFunc performs the interactive part of an authorization grant: it
// presents authURL to the user and returns the authorization code. The grant
// UI itself is an external collaborator of the credential lifecycle.
type GrantFunc func(ctx context.Context, authURL string) (string, error)

// Authenticator obtains a valid credential for one capability family.
type Authenticator struct {
	family Family
	conf   *oauth2.Config
	store  *FileTokenStore
	grant  GrantFunc
	logger *slog.Logger
}

// NewAuthenticator creates an authenticator for a capability family. A nil
// grant makes authentication fail when an interactive grant would be needed,
// which is the correct behavior for headless execution contexts.
func NewAuthenticator(family Family, store *FileTokenStore, grant GrantFunc, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		family: family,
		conf:   OAuthConfig(family),
		store:  store,
		grant:  grant,
		logger: logger,
	}
}

// Authenticate loads the persisted credential for the family, refreshes it
// in place when expired with a refresh token, falls back to an interactive
// grant otherwise, and persists the result before returning it. The whole
// cycle runs under the store's per-family lock.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	unlock, err := a.store.Lock(a.family)
	if err != nil {
		return nil, fmt.Errorf("failed to lock credential store: %w", err)
	}
	defer unlock()

	token, err := a.store.Load(a.family)
	if err == nil && token.Valid() {
		return token, nil
	}

	if token != nil && token.RefreshToken != "" {
		refreshed, refreshErr := a.conf.TokenSource(ctx, token).Token()
		if refreshErr == nil {
			if err := a.store.Save(a.family, refreshed); err != nil {
				return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
			}
			a.logger.Debug("token refreshed", logging.Family(string(a.family)))
			return refreshed, nil
		}
		a.logger.Warn("token refresh failed, falling back to interactive grant",
			logging.Family(string(a.family)),
			logging.Err(refreshErr))
	}

	if a.grant == nil {
		return nil, fmt.Errorf("no valid %s credential and interactive grant is unavailable", a.family)
	}

	authURL := a.conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
	code, err := a.grant(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("authorization grant failed: %w", err)
	}

	token, err = a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := a.store.Save(a.family, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	a.logger.Info("credential granted", logging.Family(string(a.family)))
	return token, nil
}

// TerminalGrant prompts for an authorization code on the terminal. It
// returns an error when stdin is not a terminal.
func TerminalGrant(ctx context.Context, authURL string) (string, error) {
	if !isTerminal() {
		return "", fmt.Errorf("interactive grant requires a terminal")
	}

	fmt.Fprintf(os.Stderr, "Visit the following URL to authorize access:\n\n  %s\n\nEnter the authorization code: ", authURL)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty authorization code")
	}
	return code, nil
}

func isTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
