package workflow_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/taskpilot/internal/instrumentation"
)

// InstrumentedToolHandler wraps a tool handler with invocation metrics.
// A nil metrics recorder disables recording without changing behavior.
//
// Usage:
//
//	s.AddTool(myTool, InstrumentedToolHandler("my_tool", metrics, handler))
func InstrumentedToolHandler(
	toolName string,
	metrics *instrumentation.Metrics,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if metrics == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		metrics.RecordToolInvocation(ctx, toolName, status, duration)

		return result, err
	}
}
