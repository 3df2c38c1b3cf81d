package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all process-wide settings. It is constructed once at startup
// and passed by reference to the workflow engine and capability clients.
// There are no package-level mutable globals anywhere in the application.
type Config struct {
	// GroqAPIKey authenticates classification, extraction and
	// transcription calls against the Groq API.
	GroqAPIKey string

	// TavilyAPIKey authenticates web search calls.
	TavilyAPIKey string

	// TokenDir is the directory holding the persisted Google OAuth
	// tokens, one file per capability family.
	TokenDir string

	// TimeZone is the IANA time zone used for scheduled meetings.
	TimeZone string

	// SortQuery is an optional Gmail search filter applied when listing
	// messages for the sort-mail path. Empty means all mail.
	SortQuery string

	// Debug enables debug-level logging.
	Debug bool
}

// FromEnv builds a Config from the environment, applying defaults for
// anything unset. It does not validate API keys; capabilities report a
// missing key when they are first used.
func FromEnv() (*Config, error) {
	tokenDir := os.Getenv("TASKPILOT_TOKEN_DIR")
	if tokenDir == "" {
		dir, err := defaultTokenDir()
		if err != nil {
			return nil, err
		}
		tokenDir = dir
	}

	tz := os.Getenv("TASKPILOT_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}

	return &Config{
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
		TokenDir:     tokenDir,
		TimeZone:     tz,
	}, nil
}

func defaultTokenDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskpilot"), nil
	}
	home := os.Getenv("HOME")
	if home == "" && runtime.GOOS == "windows" {
		home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	if home == "" {
		return "", fmt.Errorf("cannot determine home directory for token storage")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "taskpilot"), nil
	}
	return filepath.Join(home, ".cache", "taskpilot"), nil
}
