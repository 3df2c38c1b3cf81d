// Package workflow_tools provides MCP (Model Context Protocol) tools for
// running routed tasks through the workflow engine.
//
// This package exposes the task workflow through MCP tools that can be
// called by AI agents or other MCP clients. It provides:
//
//   - run_task: Route a free-form request to one of the task capabilities
//     (send email, sort and label email, schedule a meeting, transcribe an
//     audio file, search the web) and return the outcome
//
// The run_task tool accepts the raw request text, an optional path to an
// uploaded file for transcription or attachment, and an optional answer to
// the label-removal question asked after a completed sort.
//
// Handlers are wrapped with instrumentation so every invocation is recorded
// in the tool metrics.
package workflow_tools
