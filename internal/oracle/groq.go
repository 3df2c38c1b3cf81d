package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// GroqConfig holds configuration for the Groq-backed oracle.
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Groq implements Oracle using the Groq chat completions API in JSON mode.
type Groq struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGroq creates a new Groq oracle. Zero-valued config fields get defaults.
func NewGroq(cfg GroqConfig) (*Groq, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Groq{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one JSON-mode chat completion and unmarshals the model's
// answer into out.
func (g *Groq) complete(ctx context.Context, system, user string, out any) error {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return fmt.Errorf("groq API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return fmt.Errorf("groq API error: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return fmt.Errorf("groq response contained no choices")
	}

	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("model output is not valid JSON: %w: %w", ErrMalformed, err)
	}
	return nil
}

const routeSystemPrompt = `You are a request router. Given the user's request,
classify it into exactly one of these categories:
  "mail_auth"     - the user wants to send, sort or label emails
  "calendar_auth" - the user wants to schedule a meeting
  "transcribe"    - the user wants an audio file transcribed
  "web_search"    - anything that needs information from the web
Respond with JSON: {"datasource": "<category>"}`

// Route classifies the request into one of the four entry branches.
func (g *Groq) Route(ctx context.Context, text string) (Route, error) {
	var out struct {
		Datasource string `json:"datasource"`
	}
	if err := g.complete(ctx, routeSystemPrompt, text, &out); err != nil {
		return "", err
	}
	return ParseRoute(out.Datasource)
}

const mailIntentSystemPrompt = `Decide whether the user wants to send an email
or to sort/apply labels to their emails. Respond with JSON:
{"option": "send"} or {"option": "sort"}`

// MailIntent decides between sending and sorting after mail auth.
func (g *Groq) MailIntent(ctx context.Context, text string) (MailIntent, error) {
	var out struct {
		Option string `json:"option"`
	}
	if err := g.complete(ctx, mailIntentSystemPrompt, text, &out); err != nil {
		return "", err
	}
	return ParseMailIntent(out.Option)
}

const removalSystemPrompt = `Decide whether the user wants the labels that were
just applied to be removed again. Respond with JSON:
{"binary": "y"} to remove the labels or {"binary": "n"} to keep them.`

// RemoveLabels decides whether a label-removal pass should run.
func (g *Groq) RemoveLabels(ctx context.Context, text string) (bool, error) {
	var out struct {
		Binary string `json:"binary"`
	}
	if err := g.complete(ctx, removalSystemPrompt, text, &out); err != nil {
		return false, err
	}
	return ParseRemoval(out.Binary)
}

const emailSystemPrompt = `Extract the email fields from the user's request.
If there is a path to an attachment, replace any backslashes in it with
forward slashes. If there is no attachment, use an empty string.
Respond with JSON:
{"sender": "...", "receiver": "...", "subject": "...", "body": "...", "attachment": "..."}`

// EmailFields extracts the send-mail fields from the request.
func (g *Groq) EmailFields(ctx context.Context, text string) (*EmailFields, error) {
	var out EmailFields
	if err := g.complete(ctx, emailSystemPrompt, text, &out); err != nil {
		return nil, err
	}
	if out.Receiver == "" {
		return nil, fmt.Errorf("email extraction produced no receiver: %w", ErrMalformed)
	}
	out.Attachment = NormalizePath(out.Attachment)
	if out.Attachment == "/" || out.Attachment == "." {
		out.Attachment = ""
	}
	return &out, nil
}

const meetingSystemPrompt = `Extract the meeting start time and the
participants' email addresses from the user's request. Respond with JSON:
{"start": "<RFC 3339 timestamp, e.g. 2025-01-26T18:00:00Z>", "participants": ["a@x.com", ...]}`

// MeetingFields extracts the meeting start time and participants.
func (g *Groq) MeetingFields(ctx context.Context, text string) (*MeetingFields, error) {
	var out struct {
		Start        string   `json:"start"`
		Participants []string `json:"participants"`
	}
	if err := g.complete(ctx, meetingSystemPrompt, text, &out); err != nil {
		return nil, err
	}

	start, err := parseMeetingTime(out.Start)
	if err != nil {
		return nil, fmt.Errorf("meeting start %q: %w: %w", out.Start, ErrMalformed, err)
	}
	if len(out.Participants) == 0 {
		return nil, fmt.Errorf("meeting extraction produced no participants: %w", ErrMalformed)
	}
	return &MeetingFields{Start: start, Participants: out.Participants}, nil
}

// parseMeetingTime accepts RFC 3339 with or without a zone offset; models
// frequently omit the trailing "Z".
func parseMeetingTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

const criterionSystemPrompt = `The user wants their emails labeled. Decide
whether labels should be grouped by "sender" or by "subject". Respond with
JSON: {"criteria": "sender"} or {"criteria": "subject"}`

// Criterion extracts the grouping criterion for the sort path.
func (g *Groq) Criterion(ctx context.Context, text string) (Criterion, error) {
	var out struct {
		Criteria string `json:"criteria"`
	}
	if err := g.complete(ctx, criterionSystemPrompt, text, &out); err != nil {
		return "", err
	}
	return ParseCriterion(out.Criteria)
}

const filePathSystemPrompt = `Extract the path of the uploaded file from the
user's request. Convert any backslashes in the path to forward slashes.
Provide only the path, nothing else. Respond with JSON:
{"file_path": "..."}`

// FilePath extracts an uploaded file path from the request.
func (g *Groq) FilePath(ctx context.Context, text string) (string, error) {
	var out struct {
		FilePath string `json:"file_path"`
	}
	if err := g.complete(ctx, filePathSystemPrompt, text, &out); err != nil {
		return "", err
	}
	path := NormalizePath(out.FilePath)
	if path == "" {
		return "", fmt.Errorf("file path extraction produced no path: %w", ErrMalformed)
	}
	return path, nil
}
