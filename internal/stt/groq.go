package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "whisper-large-v3-turbo"

	// Fixed decoding parameters: English, low temperature for
	// deterministic-leaning output.
	language    = "en"
	temperature = 0.2
)

// transcriptionPrompt steers the model toward a structured dialogue format.
const transcriptionPrompt = `You are a highly skilled transcriptionist with over 15 years of experience in converting audio recordings into accurate, well-structured, and easy-to-read dialogue formats. Your expertise lies in capturing the nuances of conversations, including tone, pauses, and key points, while maintaining clarity and coherence.
Here's an example of how you format the transcription:
[Speaker 1] : "Let's start by reviewing the project timeline. Does everyone have the updated document?"
[Speaker 2] : "Yes, I've gone through it. I think we need to adjust the deadlines for phase two."
[Speaker 1] : "Agreed. Let's discuss that in detail after we cover the budget updates."`

// GroqConfig holds configuration for the Groq Whisper transcriber.
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Groq transcribes audio files through Groq's Whisper API.
type Groq struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGroq creates a new Groq transcriber. Zero-valued config fields get
// defaults.
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
		cfg.Timeout = 120 * time.Second
	}
	return &Groq{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Transcribe reads the audio file and submits its raw bytes for
// transcription, returning the dialogue-formatted transcript text.
func (g *Groq) Transcribe(ctx context.Context, filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file %s: %w", filePath, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", path.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"model":           g.model,
		"language":        language,
		"temperature":     strconv.FormatFloat(temperature, 'f', -1, 64),
		"response_format": "json",
		"prompt":          transcriptionPrompt,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API error: status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return parsed.Text, nil
}
