package workflow

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// OutgoingMail describes one email to be sent. AttachmentPath is empty when
// the request carries no attachment.
type OutgoingMail struct {
	From           string
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// MeetingInput describes one calendar event with a conference request.
type MeetingInput struct {
	Start     time.Time
	End       time.Time
	Attendees []string
	TimeZone  string
}

// MailService is the mail capability consumed by the send, sort and removal
// nodes. A service handle is scoped to one run and must not be shared.
type MailService interface {
	// ListMessages lists messages matching the query filter (empty lists
	// all mail), reduced to EmailRecords.
	ListMessages(ctx context.Context, query string) ([]EmailRecord, error)

	// EnsureLabel returns the ID of the label with the given name,
	// creating it only if no label of that name exists.
	EnsureLabel(ctx context.Context, name string) (string, error)

	// ApplyLabel adds the label to a message.
	ApplyLabel(ctx context.Context, messageID, labelID string) error

	// DeleteLabelNamed deletes the label with the given name if it exists.
	// Deleting an absent label is not an error.
	DeleteLabelNamed(ctx context.Context, name string) error

	// Send submits one outbound email and returns the message ID.
	Send(ctx context.Context, mail OutgoingMail) (string, error)
}

// CalendarService is the calendar capability consumed by the scheduling node.
type CalendarService interface {
	// ScheduleMeeting creates the event and returns its conferencing link.
	ScheduleMeeting(ctx context.Context, in MeetingInput) (string, error)
}

// MailProvider builds a MailService from an authorized credential.
type MailProvider interface {
	MailService(ctx context.Context, token *oauth2.Token) (MailService, error)
}

// CalendarProvider builds a CalendarService from an authorized credential.
type CalendarProvider interface {
	CalendarService(ctx context.Context, token *oauth2.Token) (CalendarService, error)
}

// Authenticator obtains a valid credential for one capability family,
// refreshing or interactively granting as needed, and persists the result.
type Authenticator interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
}

// Transcriber converts an audio file into a dialogue-formatted transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Searcher answers a free-form query with its first web search result.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}
