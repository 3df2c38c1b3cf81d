package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/taskpilot/internal/calendar"
	"github.com/teemow/taskpilot/internal/config"
	"github.com/teemow/taskpilot/internal/gmail"
	"github.com/teemow/taskpilot/internal/google"
	"github.com/teemow/taskpilot/internal/oracle"
	"github.com/teemow/taskpilot/internal/stt"
	"github.com/teemow/taskpilot/internal/websearch"
	"github.com/teemow/taskpilot/internal/workflow"
)

// buildEngine wires the workflow engine from configuration. The grant
// function handles interactive OAuth consent; pass nil when no terminal is
// available, in which case authentication fails until tokens exist on disk.
func buildEngine(cfg *config.Config, logger *slog.Logger, metrics workflow.MetricsRecorder, grant google.GrantFunc) (*workflow.Engine, error) {
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required for request routing")
	}

	orc, err := oracle.NewGroq(oracle.GroqConfig{APIKey: cfg.GroqAPIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	transcriber, err := stt.NewGroq(stt.GroqConfig{APIKey: cfg.GroqAPIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	// Web search is optional: without a key the search path reports the
	// missing credential instead of failing startup.
	var searcher workflow.Searcher
	if cfg.TavilyAPIKey != "" {
		searcher, err = websearch.NewTavily(websearch.TavilyConfig{APIKey: cfg.TavilyAPIKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create searcher: %w", err)
		}
	} else {
		searcher = unavailableSearcher{}
	}

	store := google.NewFileTokenStore(cfg.TokenDir)

	return workflow.New(workflow.Deps{
		Oracle:       orc,
		MailAuth:     google.NewAuthenticator(google.FamilyMail, store, grant, logger),
		CalendarAuth: google.NewAuthenticator(google.FamilyCalendar, store, grant, logger),
		Mail:         gmail.Provider{},
		Calendar:     calendar.Provider{},
		Transcriber:  transcriber,
		Searcher:     searcher,
		TimeZone:     cfg.TimeZone,
		SortQuery:    cfg.SortQuery,
		Logger:       logger,
		Metrics:      metrics,
	})
}

// unavailableSearcher stands in when no Tavily key is configured.
type unavailableSearcher struct{}

func (unavailableSearcher) Search(context.Context, string) (string, error) {
	return "", fmt.Errorf("web search is not configured: set TAVILY_API_KEY")
}
