package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnrecognized reports that the model produced a label outside the
// closed set for a decision point.
var ErrUnrecognized = errors.New("unrecognized classification label")

// ErrMalformed reports that the model produced structurally invalid output
// for a field extraction.
var ErrMalformed = errors.New("malformed extraction output")

// Route selects the first edge out of the workflow entry point.
type Route string

const (
	RouteMailAuth     Route = "mail_auth"
	RouteCalendarAuth Route = "calendar_auth"
	RouteTranscribe   Route = "transcribe"
	RouteWebSearch    Route = "web_search"
)

// MailIntent selects the node that runs after mail authentication.
type MailIntent string

const (
	MailIntentSend MailIntent = "send"
	MailIntentSort MailIntent = "sort"
)

// Criterion names the email field labels are derived from on the sort path.
type Criterion string

const (
	CriterionSender  Criterion = "sender"
	CriterionSubject Criterion = "subject"
)

// EmailFields holds the structured fields extracted for the send-mail path.
// Attachment is empty when the request carries no attachment path.
type EmailFields struct {
	Sender     string `json:"sender"`
	Receiver   string `json:"receiver"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Attachment string `json:"attachment"`
}

// MeetingFields holds the structured fields extracted for the scheduling path.
type MeetingFields struct {
	Start        time.Time
	Participants []string
}

// Oracle classifies requests and extracts structured fields from them.
// Implementations must be side-effect free with respect to workflow state.
type Oracle interface {
	// Route classifies the request into one of the four entry branches.
	Route(ctx context.Context, text string) (Route, error)

	// MailIntent decides between sending and sorting after mail auth.
	MailIntent(ctx context.Context, text string) (MailIntent, error)

	// RemoveLabels decides whether a label-removal pass should follow a
	// completed sort.
	RemoveLabels(ctx context.Context, text string) (bool, error)

	// EmailFields extracts the send-mail fields from the request.
	EmailFields(ctx context.Context, text string) (*EmailFields, error)

	// MeetingFields extracts the meeting start time and participants.
	MeetingFields(ctx context.Context, text string) (*MeetingFields, error)

	// Criterion extracts the grouping criterion for the sort path.
	Criterion(ctx context.Context, text string) (Criterion, error)

	// FilePath extracts an uploaded file path from the request.
	FilePath(ctx context.Context, text string) (string, error)
}

// ParseRoute validates a raw label against the closed route set.
func ParseRoute(s string) (Route, error) {
	switch Route(strings.ToLower(strings.TrimSpace(s))) {
	case RouteMailAuth, "gmail_authentication":
		return RouteMailAuth, nil
	case RouteCalendarAuth, "calendar_authentication":
		return RouteCalendarAuth, nil
	case RouteTranscribe, "transcribe_audio":
		return RouteTranscribe, nil
	case RouteWebSearch, "search":
		return RouteWebSearch, nil
	}
	return "", fmt.Errorf("route %q: %w", s, ErrUnrecognized)
}

// ParseMailIntent validates a raw label against the send/sort set.
func ParseMailIntent(s string) (MailIntent, error) {
	switch MailIntent(strings.ToLower(strings.TrimSpace(s))) {
	case MailIntentSend:
		return MailIntentSend, nil
	case MailIntentSort, "apply_labels":
		return MailIntentSort, nil
	}
	return "", fmt.Errorf("mail intent %q: %w", s, ErrUnrecognized)
}

// ParseCriterion validates a raw label against the sender/subject set.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(strings.ToLower(strings.TrimSpace(s))) {
	case CriterionSender:
		return CriterionSender, nil
	case CriterionSubject:
		return CriterionSubject, nil
	}
	return "", fmt.Errorf("criterion %q: %w", s, ErrUnrecognized)
}

// ParseRemoval validates a raw removal answer. Accepted affirmatives are
// "y", "yes" and "true"; negatives are "n", "no" and "false". Anything else
// is an error, not a default.
func ParseRemoval(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true":
		return true, nil
	case "n", "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("removal answer %q: %w", s, ErrUnrecognized)
}

// NormalizePath converts backslash path separators to the forward form, as
// requests often carry Windows-style paths.
func NormalizePath(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
}
