package workflow

import "context"

// NodeID names one node of the fixed workflow graph.
type NodeID string

const (
	NodeStart           NodeID = "start"
	NodeAuthMail        NodeID = "auth_mail"
	NodeAuthCalendar    NodeID = "auth_calendar"
	NodeMailSend        NodeID = "mail_send"
	NodeMailSort        NodeID = "mail_sort"
	NodeLabelRemove     NodeID = "label_remove"
	NodeMeetingSchedule NodeID = "meeting_schedule"
	NodeTranscribe      NodeID = "transcribe"
	NodeWebSearch       NodeID = "web_search"
	NodeTerminal        NodeID = "terminal"
)

// node couples a unit of work with the selection of its outgoing edge.
// Non-branching nodes use a static edge; branching nodes consult the oracle.
type node struct {
	run  func(ctx context.Context, s *State) error
	next func(ctx context.Context, s *State) (NodeID, error)
}

// staticEdge returns an edge function that always selects the same successor.
func staticEdge(id NodeID) func(context.Context, *State) (NodeID, error) {
	return func(context.Context, *State) (NodeID, error) {
		return id, nil
	}
}

// graph returns the workflow topology for one run:
//
//	Start ─┬─> AuthMail ─┬─> MailSend ──────────────> Terminal
//	       │             └─> MailSort ─┬──────────────> Terminal
//	       │                           └─> LabelRemove ─> Terminal
//	       ├─> AuthCalendar ──> MeetingSchedule ─────> Terminal
//	       ├─> Transcribe ───────────────────────────> Terminal
//	       └─> WebSearch ────────────────────────────> Terminal
func (r *run) graph() map[NodeID]node {
	return map[NodeID]node{
		NodeStart: {
			run:  func(context.Context, *State) error { return nil },
			next: r.route,
		},
		NodeAuthMail: {
			run:  r.authenticateMail,
			next: r.sendOrSort,
		},
		NodeAuthCalendar: {
			run:  r.authenticateCalendar,
			next: staticEdge(NodeMeetingSchedule),
		},
		NodeMailSend: {
			run:  r.sendMail,
			next: staticEdge(NodeTerminal),
		},
		NodeMailSort: {
			run:  r.sortMail,
			next: r.removeOrNot,
		},
		NodeLabelRemove: {
			run:  r.removeLabels,
			next: staticEdge(NodeTerminal),
		},
		NodeMeetingSchedule: {
			run:  r.scheduleMeeting,
			next: staticEdge(NodeTerminal),
		},
		NodeTranscribe: {
			run:  r.transcribe,
			next: staticEdge(NodeTerminal),
		},
		NodeWebSearch: {
			run:  r.webSearch,
			next: staticEdge(NodeTerminal),
		},
	}
}
