package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/taskpilot/internal/workflow"
)

func TestBuildEvent(t *testing.T) {
	start := time.Date(2025, 1, 26, 18, 0, 0, 0, time.UTC)
	event := buildEvent(workflow.MeetingInput{
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"shivam@kl.com", "hello@gmail.com"},
		TimeZone:  "UTC",
	}, "meet-123")

	assert.Equal(t, "Google Meet Meeting", event.Summary)
	assert.Equal(t, "2025-01-26T18:00:00Z", event.Start.DateTime)
	assert.Equal(t, "2025-01-26T19:00:00Z", event.End.DateTime)
	assert.Equal(t, "UTC", event.Start.TimeZone)
	assert.Equal(t, "UTC", event.End.TimeZone)

	require.Len(t, event.Attendees, 2)
	assert.Equal(t, "shivam@kl.com", event.Attendees[0].Email)

	require.NotNil(t, event.ConferenceData)
	require.NotNil(t, event.ConferenceData.CreateRequest)
	assert.Equal(t, "hangoutsMeet", event.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)
	assert.Equal(t, "meet-123", event.ConferenceData.CreateRequest.RequestId)
}

func TestBuildEventDefaultsTimeZone(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	event := buildEvent(workflow.MeetingInput{Start: start, End: start.Add(time.Hour)}, "r1")

	assert.Equal(t, "UTC", event.Start.TimeZone)
}

func TestMeetLink(t *testing.T) {
	tests := []struct {
		name     string
		event    *calendar.Event
		expected string
	}{
		{
			name:     "hangout link preferred",
			event:    &calendar.Event{HangoutLink: "https://meet.google.com/abc"},
			expected: "https://meet.google.com/abc",
		},
		{
			name: "video entry point fallback",
			event: &calendar.Event{
				ConferenceData: &calendar.ConferenceData{
					EntryPoints: []*calendar.EntryPoint{
						{EntryPointType: "phone", Uri: "tel:+1234"},
						{EntryPointType: "video", Uri: "https://meet.google.com/xyz"},
					},
				},
			},
			expected: "https://meet.google.com/xyz",
		},
		{
			name:     "no conference data",
			event:    &calendar.Event{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, meetLink(tt.event))
		})
	}
}
