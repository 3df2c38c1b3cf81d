// Package cmd implements the command-line interface for taskpilot.
//
// This package provides the following commands:
//   - run: Route a task request to the matching capability and execute it
//   - serve: Start the MCP server to provide the task workflow to AI assistants
//   - version: Display version information
//
// The run command is the default command when no subcommand is specified.
package cmd
