package google

import (
	"context"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// Family identifies one Google capability family with its own credential.
type Family string

const (
	FamilyMail     Family = "gmail"
	FamilyCalendar Family = "calendar"
)

// ScopesFor returns the OAuth scopes required by a capability family.
func ScopesFor(family Family) []string {
	switch family {
	case FamilyCalendar:
		return []string{calendar.CalendarEventsScope}
	default:
		return []string{gmail.GmailSendScope, gmail.GmailModifyScope}
	}
}

// OAuthConfig returns the OAuth2 configuration for a capability family.
// Client credentials come from the environment so they never live in source.
func OAuthConfig(family Family) *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       ScopesFor(family),
	}
}

// HTTPClient returns an HTTP client that authorizes requests with the given
// token. The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol
// errors against the Google APIs.
func HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}
	return client
}
