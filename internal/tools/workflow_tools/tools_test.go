package workflow_tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/taskpilot/internal/workflow"
)

// fakeRunner records the request it receives and returns a canned outcome.
type fakeRunner struct {
	req   workflow.Request
	state *workflow.State
	err   error
}

func (f *fakeRunner) Run(_ context.Context, req workflow.Request) (*workflow.State, error) {
	f.req = req
	return f.state, f.err
}

func requestWithArgs(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestHandleRunTask_Success(t *testing.T) {
	runner := &fakeRunner{
		state: &workflow.State{Messages: workflow.TextPayload{Text: "successful"}},
	}

	result, err := handleRunTask(context.Background(), requestWithArgs(map[string]interface{}{
		"query": "sort my mail by sender",
		"file":  "/tmp/report.pdf",
	}), runner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success result, got error: %v", result)
	}

	if runner.req.Text != "sort my mail by sender" {
		t.Errorf("runner got query %q", runner.req.Text)
	}
	if runner.req.File != "/tmp/report.pdf" {
		t.Errorf("runner got file %q", runner.req.File)
	}
}

func TestHandleRunTask_MissingQuery(t *testing.T) {
	runner := &fakeRunner{}

	result, err := handleRunTask(context.Background(), requestWithArgs(map[string]interface{}{}), runner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing query")
	}
	if runner.req.Text != "" {
		t.Error("runner should not have been called")
	}
}

func TestHandleRunTask_ForwardsFollowUp(t *testing.T) {
	runner := &fakeRunner{
		state: &workflow.State{Messages: workflow.CredentialPayload{}},
	}

	result, err := handleRunTask(context.Background(), requestWithArgs(map[string]interface{}{
		"query":           "sort my mail",
		"confirm_removal": "yes",
	}), runner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success result, got error: %v", result)
	}

	if runner.req.FollowUp != "yes" {
		t.Errorf("runner got follow-up %q, want \"yes\"", runner.req.FollowUp)
	}
}

func TestHandleRunTask_WorkflowError(t *testing.T) {
	runner := &fakeRunner{
		err: &workflow.Error{
			Kind: workflow.KindClassification,
			Node: workflow.NodeStart,
			Err:  fmt.Errorf("no matching capability"),
		},
	}

	result, err := handleRunTask(context.Background(), requestWithArgs(map[string]interface{}{
		"query": "do something unclassifiable",
	}), runner)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for workflow failure")
	}
}

func TestDescribeOutcome(t *testing.T) {
	tests := []struct {
		name  string
		state *workflow.State
		want  string
	}{
		{
			name:  "text payload",
			state: &workflow.State{Messages: workflow.TextPayload{Text: "meeting link : https://meet.example"}},
			want:  "meeting link : https://meet.example",
		},
		{
			name:  "document payload",
			state: &workflow.State{Messages: workflow.DocumentPayload{Content: "transcript body"}},
			want:  "transcript body",
		},
		{
			name:  "credential payload is not exposed",
			state: &workflow.State{Messages: workflow.CredentialPayload{}},
			want:  "labels removed",
		},
		{
			name:  "empty state",
			state: &workflow.State{},
			want:  "task completed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeOutcome(tt.state); got != tt.want {
				t.Errorf("describeOutcome() = %q, want %q", got, tt.want)
			}
		})
	}
}
