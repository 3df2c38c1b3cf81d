package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Route
		wantErr  bool
	}{
		{name: "mail auth", input: "mail_auth", expected: RouteMailAuth},
		{name: "legacy gmail label", input: "gmail_authentication", expected: RouteMailAuth},
		{name: "calendar auth", input: "calendar_auth", expected: RouteCalendarAuth},
		{name: "transcribe", input: "transcribe", expected: RouteTranscribe},
		{name: "web search", input: "web_search", expected: RouteWebSearch},
		{name: "mixed case with spaces", input: "  Web_Search ", expected: RouteWebSearch},
		{name: "out of set", input: "order_pizza", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnrecognized)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseMailIntent(t *testing.T) {
	got, err := ParseMailIntent("send")
	assert.NoError(t, err)
	assert.Equal(t, MailIntentSend, got)

	got, err = ParseMailIntent("sort")
	assert.NoError(t, err)
	assert.Equal(t, MailIntentSort, got)

	// Unrecognized answers are an error, never a default branch.
	_, err = ParseMailIntent("maybe")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestParseCriterion(t *testing.T) {
	got, err := ParseCriterion("SENDER")
	assert.NoError(t, err)
	assert.Equal(t, CriterionSender, got)

	got, err = ParseCriterion("subject")
	assert.NoError(t, err)
	assert.Equal(t, CriterionSubject, got)

	_, err = ParseCriterion("date")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestParseRemoval(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{input: "y", expected: true},
		{input: "yes", expected: true},
		{input: "true", expected: true},
		{input: "n", expected: false},
		{input: "no", expected: false},
		{input: "false", expected: false},
		{input: "dunno", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRemoval(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnrecognized)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "D:/docs/report.pdf", NormalizePath(`D:\docs\report.pdf`))
	assert.Equal(t, "/tmp/audio.wav", NormalizePath("/tmp/audio.wav"))
	assert.Equal(t, "a/b", NormalizePath(` a\b `))
	assert.Equal(t, "", NormalizePath(""))
}
