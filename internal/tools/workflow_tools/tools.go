package workflow_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskpilot/internal/instrumentation"
	"github.com/teemow/taskpilot/internal/workflow"
)

// Runner executes a routed task end to end. *workflow.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) (*workflow.State, error)
}

// RegisterWorkflowTools registers the task workflow tools with the MCP server.
// The metrics recorder may be nil, in which case invocations are not recorded.
func RegisterWorkflowTools(s *mcpserver.MCPServer, runner Runner, metrics *instrumentation.Metrics) error {
	if runner == nil {
		return fmt.Errorf("workflow runner is required")
	}

	runTaskTool := mcp.NewTool("run_task",
		mcp.WithDescription("Route a free-form request to the matching task capability: send an email, sort and label emails, schedule a Google Meet meeting, transcribe an audio file, or search the web"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The task request in plain language (e.g., 'send an email to bob@example.com about the launch')"),
		),
		mcp.WithString("file",
			mcp.Description("Path to an uploaded file, used as the email attachment or as the audio to transcribe"),
		),
		mcp.WithString("confirm_removal",
			mcp.Description("Answer to the label-removal question asked after sorting (e.g., 'yes' or 'no')"),
		),
	)

	s.AddTool(runTaskTool, InstrumentedToolHandler("run_task", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRunTask(ctx, request, runner)
		}))

	return nil
}

func handleRunTask(ctx context.Context, request mcp.CallToolRequest, runner Runner) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	req := workflow.Request{Text: query}
	if file, ok := args["file"].(string); ok {
		req.File = file
	}
	if answer, ok := args["confirm_removal"].(string); ok {
		req.FollowUp = answer
	}

	final, err := runner.Run(ctx, req)
	if err != nil {
		var wfErr *workflow.Error
		if errors.As(err, &wfErr) {
			return mcp.NewToolResultError(fmt.Sprintf("Task failed during %s: %v", wfErr.Kind, wfErr.Err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Task failed: %v", err)), nil
	}

	return mcp.NewToolResultText(describeOutcome(final)), nil
}

// describeOutcome renders the final workflow state as tool output.
func describeOutcome(s *workflow.State) string {
	switch p := s.Messages.(type) {
	case workflow.TextPayload:
		return p.Text
	case workflow.DocumentPayload:
		return p.Content
	case workflow.CredentialPayload:
		// Removal runs end with the session credential in the result slot.
		// The credential itself never leaves the process.
		return "labels removed"
	default:
		return "task completed"
	}
}
