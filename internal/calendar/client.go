package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/taskpilot/internal/google"
	"github.com/teemow/taskpilot/internal/workflow"
)

// Client wraps the Google Calendar service.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client authorized with the given token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(google.HTTPClient(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Provider builds run-scoped calendar services from credentials.
type Provider struct{}

// CalendarService implements workflow.CalendarProvider.
func (Provider) CalendarService(ctx context.Context, token *oauth2.Token) (workflow.CalendarService, error) {
	return NewClient(ctx, token)
}

// ScheduleMeeting creates a calendar event with a Google Meet conference
// request and returns the assigned conferencing link.
func (c *Client) ScheduleMeeting(ctx context.Context, in workflow.MeetingInput) (string, error) {
	event := buildEvent(in, fmt.Sprintf("meet-%d", time.Now().UnixNano()))

	created, err := c.svc.Events.Insert("primary", event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	link := meetLink(created)
	if link == "" {
		return "", fmt.Errorf("event %s was created without a conferencing link", created.Id)
	}
	return link, nil
}

// buildEvent renders a meeting as a calendar event with a conference
// create request attached.
func buildEvent(in workflow.MeetingInput, requestID string) *calendar.Event {
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     "Google Meet Meeting",
		Description: "Scheduled via taskpilot",
		Start: &calendar.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: tz,
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
				RequestId:             requestID,
			},
		},
	}

	for _, email := range in.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	return event
}

// meetLink returns the event's conferencing link, preferring the hangout
// link and falling back to the first video entry point.
func meetLink(event *calendar.Event) string {
	if event.HangoutLink != "" {
		return event.HangoutLink
	}
	if event.ConferenceData == nil {
		return ""
	}
	for _, ep := range event.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" {
			return ep.Uri
		}
	}
	return ""
}
