package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the taskpilot application
var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Routes task requests to email, calendar, transcription and search capabilities",
	Long: `taskpilot takes a free-form request and routes it to the matching task
capability: sending an email, sorting and labeling emails, scheduling a
Google Meet meeting, transcribing an audio file, or searching the web.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taskpilot version %s\n" .Version}}`)

	// If no subcommand is provided, run the run command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
