package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/taskpilot/internal/config"
	"github.com/teemow/taskpilot/internal/google"
	"github.com/teemow/taskpilot/internal/workflow"
)

func newRunCmd() *cobra.Command {
	var (
		debugMode      bool
		filePath       string
		confirmRemoval string
		sortQuery      string
		timeZone       string
	)

	cmd := &cobra.Command{
		Use:   "run [request...]",
		Short: "Route a task request to the matching capability and execute it",
		Long: `Route a free-form request to one of the task capabilities and execute it:

  - send an email (optionally with an attachment)
  - sort emails by sender or subject and apply Gmail labels
  - schedule a Google Meet meeting
  - transcribe an audio file
  - search the web

The request is classified first; a request that matches no capability is
rejected rather than guessed at. Sorting asks whether the applied labels
should be removed again; answer ahead of time with --confirm-removal.

Google authorization runs interactively in the terminal on first use and
caches tokens per capability under the token directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			cfg.Debug = debugMode
			if sortQuery != "" {
				cfg.SortQuery = sortQuery
			}
			if timeZone != "" {
				cfg.TimeZone = timeZone
			}

			return runTask(cfg, strings.Join(args, " "), filePath, confirmRemoval)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&filePath, "file", "", "Path to a file used as the email attachment or as the audio to transcribe")
	cmd.Flags().StringVar(&confirmRemoval, "confirm-removal", "", "Answer to the label-removal question asked after sorting (e.g., 'yes' or 'no')")
	cmd.Flags().StringVar(&sortQuery, "sort-query", "", "Gmail search filter applied when listing messages for sorting (default: all mail)")
	cmd.Flags().StringVar(&timeZone, "timezone", "", "IANA time zone for scheduled meetings. Can also use TASKPILOT_TIMEZONE env var. Default: UTC")

	return cmd
}

func runTask(cfg *config.Config, query, filePath, confirmRemoval string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg.Debug)

	engine, err := buildEngine(cfg, logger, nil, google.TerminalGrant)
	if err != nil {
		return err
	}

	final, err := engine.Run(ctx, workflow.Request{
		Text:     query,
		File:     filePath,
		FollowUp: confirmRemoval,
	})
	if err != nil {
		var wfErr *workflow.Error
		if errors.As(err, &wfErr) {
			return fmt.Errorf("task failed during %s: %w", wfErr.Kind, wfErr.Err)
		}
		return err
	}

	fmt.Println(describeResult(final))
	return nil
}

// describeResult renders the final workflow state for the terminal.
func describeResult(s *workflow.State) string {
	switch p := s.Messages.(type) {
	case workflow.TextPayload:
		return p.Text
	case workflow.DocumentPayload:
		return p.Content
	case workflow.CredentialPayload:
		return "labels removed"
	default:
		return "task completed"
	}
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for task output.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
