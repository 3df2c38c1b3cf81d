package workflow

import (
	"golang.org/x/oauth2"

	"github.com/teemow/taskpilot/internal/oracle"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the per-run conversation.
type Turn struct {
	Role Role
	Text string
}

// Payload is the single-slot mailbox value passed between adjacent nodes.
// It is a closed sum: each node overwrites it with exactly one of the
// variants below, so a consumer can always tell what its predecessor
// produced.
type Payload interface {
	payload()
}

// CredentialPayload carries an OAuth token from an authenticator node to the
// handler node that requires it.
type CredentialPayload struct {
	Token *oauth2.Token
}

// TextPayload carries a plain result string.
type TextPayload struct {
	Text string
}

// DocumentPayload carries a document body, such as a transcript.
type DocumentPayload struct {
	Content string
}

func (CredentialPayload) payload() {}
func (TextPayload) payload()       {}
func (DocumentPayload) payload()   {}

// EmailRecord is one listed mail message, reduced to the fields the sort and
// removal nodes consume.
type EmailRecord struct {
	ID      string
	Subject string
	Sender  string
	Snippet string
}

// Field returns the record field named by the grouping criterion.
func (r EmailRecord) Field(c oracle.Criterion) string {
	if c == oracle.CriterionSubject {
		return r.Subject
	}
	return r.Sender
}

// SortArtifacts is the storage payload produced by the sort node for the
// label-removal node: the labeled emails, the open mail service handle, the
// grouping criterion, and the credential handed back on removal completion.
type SortArtifacts struct {
	Emails     []EmailRecord
	Mail       MailService
	Criterion  oracle.Criterion
	Credential Payload
}

// State is the mutable context threaded through every node of one run. At
// most one node mutates it at a time; runs never share State instances.
type State struct {
	// Question is the ordered conversation, append-only during a run.
	// Node logic always reads the last entry.
	Question []Turn

	// Messages is the most recent node's output, overwritten per node.
	Messages Payload

	// Storage holds auxiliary payloads produced by one node for a
	// directly-following node. Present only on paths that need it.
	Storage []SortArtifacts

	// File optionally references an uploaded file path; only the send-mail
	// and transcription paths consult it.
	File string
}

// newState seeds a run's state with the user's request.
func newState(request, file string) *State {
	return &State{
		Question: []Turn{{Role: RoleUser, Text: request}},
		File:     file,
	}
}

// LastQuestion returns the text of the most recent conversation turn.
func (s *State) LastQuestion() string {
	if len(s.Question) == 0 {
		return ""
	}
	return s.Question[len(s.Question)-1].Text
}

// Append adds a turn to the conversation.
func (s *State) Append(role Role, text string) {
	s.Question = append(s.Question, Turn{Role: role, Text: text})
}

// snapshot returns a copy safe to hand to the caller while the run keeps
// mutating the original. Slice headers are copied; payloads are shared
// because nodes replace rather than mutate them.
func (s *State) snapshot() *State {
	cp := *s
	cp.Question = append([]Turn(nil), s.Question...)
	cp.Storage = append([]SortArtifacts(nil), s.Storage...)
	return &cp
}
