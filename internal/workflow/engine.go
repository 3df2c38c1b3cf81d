package workflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/teemow/taskpilot/internal/logging"
	"github.com/teemow/taskpilot/internal/oracle"
)

// MetricsRecorder receives node execution measurements. Implementations must
// tolerate being called from concurrent runs.
type MetricsRecorder interface {
	RecordNodeExecution(ctx context.Context, node string, status string, duration time.Duration)
}

// Deps are the collaborators the engine calls. Oracle, both authenticators,
// both providers, the transcriber and the searcher are required.
type Deps struct {
	Oracle       oracle.Oracle
	MailAuth     Authenticator
	CalendarAuth Authenticator
	Mail         MailProvider
	Calendar     CalendarProvider
	Transcriber  Transcriber
	Searcher     Searcher

	// TimeZone for scheduled meetings; defaults to UTC.
	TimeZone string

	// SortQuery is the optional Gmail filter for the sort path.
	SortQuery string

	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// Engine holds the fixed workflow graph and drives a run from the entry
// router to a terminal node. One Engine serves any number of concurrent
// runs; all per-run state lives in the State object.
type Engine struct {
	oracle       oracle.Oracle
	mailAuth     Authenticator
	calendarAuth Authenticator
	mail         MailProvider
	calendar     CalendarProvider
	transcriber  Transcriber
	searcher     Searcher
	timeZone     string
	sortQuery    string
	logger       *slog.Logger
	metrics      MetricsRecorder
}

// New creates a workflow engine from its collaborators.
func New(deps Deps) (*Engine, error) {
	switch {
	case deps.Oracle == nil:
		return nil, fmt.Errorf("oracle is required")
	case deps.MailAuth == nil || deps.CalendarAuth == nil:
		return nil, fmt.Errorf("mail and calendar authenticators are required")
	case deps.Mail == nil || deps.Calendar == nil:
		return nil, fmt.Errorf("mail and calendar providers are required")
	case deps.Transcriber == nil:
		return nil, fmt.Errorf("transcriber is required")
	case deps.Searcher == nil:
		return nil, fmt.Errorf("searcher is required")
	}

	if deps.TimeZone == "" {
		deps.TimeZone = "UTC"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Engine{
		oracle:       deps.Oracle,
		mailAuth:     deps.MailAuth,
		calendarAuth: deps.CalendarAuth,
		mail:         deps.Mail,
		calendar:     deps.Calendar,
		transcriber:  deps.Transcriber,
		searcher:     deps.Searcher,
		timeZone:     deps.TimeZone,
		sortQuery:    deps.SortQuery,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
	}, nil
}

// Request is one user turn submitted for a run.
type Request struct {
	// Text is the raw user request; immutable once submitted.
	Text string

	// File optionally references an uploaded file path.
	File string

	// FollowUp optionally answers the label-removal question asked after a
	// completed sort. It is appended to the conversation only when that
	// decision is reached.
	FollowUp string
}

// Step is one state snapshot, yielded after the named node completed.
type Step struct {
	Node  NodeID
	State *State
}

// run carries the request through one traversal of the graph.
type run struct {
	engine *Engine
	req    Request
}

// Steps executes the workflow and yields the state after every visited node.
// The sequence is finite and one-shot: it ends at the terminal node or at
// the first node error, and a consumed sequence cannot be restarted. Nodes
// execute strictly sequentially; the next node starts only after the
// previous snapshot was yielded.
func (e *Engine) Steps(ctx context.Context, req Request) iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		r := &run{engine: e, req: req}
		graph := r.graph()
		state := newState(req.Text, req.File)

		current := NodeStart
		for current != NodeTerminal {
			if err := ctx.Err(); err != nil {
				yield(Step{Node: current}, err)
				return
			}

			n, ok := graph[current]
			if !ok {
				yield(Step{Node: current}, fmt.Errorf("no node registered for %q", current))
				return
			}

			started := time.Now()
			err := n.run(ctx, state)
			e.observe(ctx, current, started, err)
			if err != nil {
				yield(Step{Node: current}, err)
				return
			}

			if current != NodeStart {
				if !yield(Step{Node: current, State: state.snapshot()}, nil) {
					return
				}
			}

			next, err := n.next(ctx, state)
			if err != nil {
				yield(Step{Node: current}, err)
				return
			}
			current = next
		}
	}
}

// Run executes the workflow and returns the final state. It is the
// runWorkflow entry point consumed by the CLI and the MCP surface.
func (e *Engine) Run(ctx context.Context, req Request) (*State, error) {
	var final *State
	for step, err := range e.Steps(ctx, req) {
		if err != nil {
			return nil, err
		}
		final = step.State
	}
	if final == nil {
		return nil, fmt.Errorf("run produced no state")
	}
	return final, nil
}

func (e *Engine) observe(ctx context.Context, node NodeID, started time.Time, err error) {
	if node == NodeStart {
		return
	}

	elapsed := time.Since(started)
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}

	e.logger.Debug("node executed",
		logging.Node(string(node)),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, elapsed),
		logging.Err(err))

	if e.metrics != nil {
		e.metrics.RecordNodeExecution(ctx, string(node), status, elapsed)
	}
}
