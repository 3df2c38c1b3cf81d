package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/taskpilot/internal/oracle"
)

// fakeOracle returns canned decisions and counts how often each decision
// point was consulted.
type fakeOracle struct {
	route    oracle.Route
	routeErr error

	intent    oracle.MailIntent
	intentErr error

	removal    bool
	removalErr error

	email    *oracle.EmailFields
	emailErr error

	meeting *oracle.MeetingFields

	criterion oracle.Criterion

	filePath string

	calls map[string]int
}

func (f *fakeOracle) count(name string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeOracle) Route(ctx context.Context, text string) (oracle.Route, error) {
	f.count("route")
	return f.route, f.routeErr
}

func (f *fakeOracle) MailIntent(ctx context.Context, text string) (oracle.MailIntent, error) {
	f.count("intent")
	return f.intent, f.intentErr
}

func (f *fakeOracle) RemoveLabels(ctx context.Context, text string) (bool, error) {
	f.count("removal")
	if f.removalErr != nil {
		return false, f.removalErr
	}
	// The decision compares the extracted answer, not the raw object.
	return oracle.ParseRemoval(text)
}

func (f *fakeOracle) EmailFields(ctx context.Context, text string) (*oracle.EmailFields, error) {
	f.count("email")
	return f.email, f.emailErr
}

func (f *fakeOracle) MeetingFields(ctx context.Context, text string) (*oracle.MeetingFields, error) {
	f.count("meeting")
	return f.meeting, nil
}

func (f *fakeOracle) Criterion(ctx context.Context, text string) (oracle.Criterion, error) {
	f.count("criterion")
	return f.criterion, nil
}

func (f *fakeOracle) FilePath(ctx context.Context, text string) (string, error) {
	f.count("file_path")
	return f.filePath, nil
}

// fakeMail is an in-memory mailbox implementing MailService and its own
// provider. EnsureLabel looks up before creating, mirroring the idempotence
// contract of the real client.
type fakeMail struct {
	emails  []EmailRecord
	labels  map[string]string   // name -> id
	applied map[string][]string // message id -> label ids
	sent    []OutgoingMail
	nextID  int

	listErr error
	sendErr error

	token *oauth2.Token
}

func newFakeMail(emails ...EmailRecord) *fakeMail {
	return &fakeMail{
		emails:  emails,
		labels:  map[string]string{},
		applied: map[string][]string{},
	}
}

func (f *fakeMail) MailService(ctx context.Context, token *oauth2.Token) (MailService, error) {
	f.token = token
	return f, nil
}

func (f *fakeMail) ListMessages(ctx context.Context, query string) ([]EmailRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.emails, nil
}

func (f *fakeMail) EnsureLabel(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(name)
	if id, ok := f.labels[key]; ok {
		return id, nil
	}
	f.nextID++
	id := fmt.Sprintf("Label_%d", f.nextID)
	f.labels[key] = id
	return id, nil
}

func (f *fakeMail) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	for _, existing := range f.applied[messageID] {
		if existing == labelID {
			return nil
		}
	}
	f.applied[messageID] = append(f.applied[messageID], labelID)
	return nil
}

func (f *fakeMail) DeleteLabelNamed(ctx context.Context, name string) error {
	delete(f.labels, strings.ToLower(name))
	return nil
}

func (f *fakeMail) Send(ctx context.Context, mail OutgoingMail) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, mail)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type fakeCalendar struct {
	input   *MeetingInput
	link    string
	err     error
	touched bool
}

func (f *fakeCalendar) CalendarService(ctx context.Context, token *oauth2.Token) (CalendarService, error) {
	return f, nil
}

func (f *fakeCalendar) ScheduleMeeting(ctx context.Context, in MeetingInput) (string, error) {
	f.touched = true
	if f.err != nil {
		return "", f.err
	}
	f.input = &in
	return f.link, nil
}

type fakeAuth struct {
	token *oauth2.Token
	err   error
	calls int
}

func (f *fakeAuth) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	f.calls++
	return f.token, f.err
}

type fakeTranscriber struct {
	transcript string
	path       string
	touched    bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f.touched = true
	f.path = path
	return f.transcript, nil
}

type fakeSearcher struct {
	result  string
	err     error
	touched bool
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.touched = true
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

type fixture struct {
	oracle      *fakeOracle
	mail        *fakeMail
	calendar    *fakeCalendar
	mailAuth    *fakeAuth
	calAuth     *fakeAuth
	transcriber *fakeTranscriber
	searcher    *fakeSearcher
	engine      *Engine
}

func newFixture(t *testing.T, o *fakeOracle, mail *fakeMail) *fixture {
	t.Helper()
	if mail == nil {
		mail = newFakeMail()
	}

	f := &fixture{
		oracle:      o,
		mail:        mail,
		calendar:    &fakeCalendar{link: "https://meet.google.com/abc-defg-hij"},
		mailAuth:    &fakeAuth{token: &oauth2.Token{AccessToken: "mail-token"}},
		calAuth:     &fakeAuth{token: &oauth2.Token{AccessToken: "cal-token"}},
		transcriber: &fakeTranscriber{transcript: "[Speaker 1] : \"Hello.\""},
		searcher:    &fakeSearcher{result: "first result"},
	}

	engine, err := New(Deps{
		Oracle:       o,
		MailAuth:     f.mailAuth,
		CalendarAuth: f.calAuth,
		Mail:         mail,
		Calendar:     f.calendar,
		Transcriber:  f.transcriber,
		Searcher:     f.searcher,
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func TestNewValidatesDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRunSendEmailWithoutAttachment(t *testing.T) {
	o := &fakeOracle{
		route:  oracle.RouteMailAuth,
		intent: oracle.MailIntentSend,
		email: &oracle.EmailFields{
			Sender:   "me@x.com",
			Receiver: "alice@x.com",
			Subject:  "budget report",
			Body:     "Here is the budget report.",
		},
	}
	f := newFixture(t, o, nil)

	final, err := f.engine.Run(context.Background(), Request{
		Text: "send an email to alice@x.com about the budget report",
	})
	require.NoError(t, err)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "alice@x.com", f.mail.sent[0].To)
	assert.Empty(t, f.mail.sent[0].AttachmentPath)

	payload, ok := final.Messages.(TextPayload)
	require.True(t, ok, "final payload should be text, got %T", final.Messages)
	assert.Equal(t, "Here is the budget report.", payload.Text)

	// No other capability is touched on the send path.
	assert.False(t, f.calendar.touched)
	assert.False(t, f.searcher.touched)
	assert.False(t, f.transcriber.touched)
	assert.Equal(t, 1, f.mailAuth.calls)
	assert.Zero(t, f.calAuth.calls)
}

func TestRunScheduleMeeting(t *testing.T) {
	start := time.Date(2025, 1, 26, 18, 0, 0, 0, time.UTC)
	o := &fakeOracle{
		route: oracle.RouteCalendarAuth,
		meeting: &oracle.MeetingFields{
			Start:        start,
			Participants: []string{"shivam@kl.com", "hello@gmail.com"},
		},
	}
	f := newFixture(t, o, nil)

	final, err := f.engine.Run(context.Background(), Request{
		Text: "schedule a meeting on 2025-01-26T18:00:00 with shivam@kl.com and hello@gmail.com",
	})
	require.NoError(t, err)

	require.NotNil(t, f.calendar.input)
	assert.Equal(t, start, f.calendar.input.Start)
	assert.Equal(t, start.Add(time.Hour), f.calendar.input.End, "end time is exactly one hour after start")
	assert.Equal(t, "UTC", f.calendar.input.TimeZone)
	assert.Len(t, f.calendar.input.Attendees, 2)

	payload, ok := final.Messages.(TextPayload)
	require.True(t, ok)
	assert.Contains(t, payload.Text, "https://meet.google.com/")
}

func TestRunSortThenRemove(t *testing.T) {
	mail := newFakeMail(
		EmailRecord{ID: "m1", Sender: "alice@x.com", Subject: "a"},
		EmailRecord{ID: "m2", Sender: "bob@x.com", Subject: "b"},
		EmailRecord{ID: "m3", Sender: "alice@x.com", Subject: "c"},
	)
	o := &fakeOracle{
		route:     oracle.RouteMailAuth,
		intent:    oracle.MailIntentSort,
		criterion: oracle.CriterionSender,
	}
	f := newFixture(t, o, mail)

	final, err := f.engine.Run(context.Background(), Request{
		Text:     "sort my emails by sender",
		FollowUp: "yes",
	})
	require.NoError(t, err)

	// All labels created by the sort were deleted again.
	assert.Empty(t, mail.labels)
	// Every message had a label applied before removal.
	assert.Len(t, mail.applied, 3)

	// The terminal payload is the pre-sort credential handle.
	cred, ok := final.Messages.(CredentialPayload)
	require.True(t, ok, "final payload should be the credential, got %T", final.Messages)
	assert.Equal(t, "mail-token", cred.Token.AccessToken)
}

func TestRunSortWithoutRemoval(t *testing.T) {
	mail := newFakeMail(
		EmailRecord{ID: "m1", Sender: "alice@x.com", Subject: "hello"},
	)
	o := &fakeOracle{
		route:     oracle.RouteMailAuth,
		intent:    oracle.MailIntentSort,
		criterion: oracle.CriterionSubject,
	}
	f := newFixture(t, o, mail)

	final, err := f.engine.Run(context.Background(), Request{
		Text:     "sort my emails by subject",
		FollowUp: "no",
	})
	require.NoError(t, err)

	assert.Len(t, mail.labels, 1)
	payload, ok := final.Messages.(TextPayload)
	require.True(t, ok)
	assert.Equal(t, "successful", payload.Text)
}

func TestSortIsIdempotent(t *testing.T) {
	mail := newFakeMail(
		EmailRecord{ID: "m1", Sender: "alice@x.com"},
		EmailRecord{ID: "m2", Sender: "alice@x.com"},
	)
	o := &fakeOracle{
		route:     oracle.RouteMailAuth,
		intent:    oracle.MailIntentSort,
		criterion: oracle.CriterionSender,
	}
	f := newFixture(t, o, mail)

	req := Request{Text: "sort my emails by sender", FollowUp: "no"}
	_, err := f.engine.Run(context.Background(), req)
	require.NoError(t, err)

	labelsAfterFirst := len(mail.labels)
	membership := map[string][]string{}
	for id, ls := range mail.applied {
		membership[id] = append([]string(nil), ls...)
	}

	_, err = f.engine.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, labelsAfterFirst, len(mail.labels), "rerunning sort must not create duplicate labels")
	assert.Equal(t, membership, mail.applied, "rerunning sort must not change label membership")
}

func TestRunTranscribePrefersUploadedFile(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteTranscribe, filePath: "C:/other.mp3"}
	f := newFixture(t, o, nil)

	final, err := f.engine.Run(context.Background(), Request{
		Text: "transcribe my standup recording",
		File: "/tmp/standup.mp3",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/standup.mp3", f.transcriber.path)
	assert.Zero(t, o.calls["file_path"], "uploaded file path skips extraction")

	doc, ok := final.Messages.(DocumentPayload)
	require.True(t, ok)
	assert.Contains(t, doc.Content, "[Speaker 1]")
}

func TestRunTranscribeExtractsPathFromQuestion(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteTranscribe, filePath: "D:/recordings/standup.mp3"}
	f := newFixture(t, o, nil)

	_, err := f.engine.Run(context.Background(), Request{
		Text: `transcribe D:\recordings\standup.mp3`,
	})
	require.NoError(t, err)
	assert.Equal(t, "D:/recordings/standup.mp3", f.transcriber.path)
}

func TestRunWebSearch(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteWebSearch}
	f := newFixture(t, o, nil)

	final, err := f.engine.Run(context.Background(), Request{
		Text: "who won the match yesterday",
		// File presence alone must never bypass the router's decision.
		File: "/tmp/match-highlights.mp3",
	})
	require.NoError(t, err)

	assert.True(t, f.searcher.touched)
	assert.False(t, f.transcriber.touched, "routing follows the oracle, not file presence")

	payload, ok := final.Messages.(TextPayload)
	require.True(t, ok)
	assert.Equal(t, "first result", payload.Text)
}

func TestRunFailsOnUnclassifiableRequest(t *testing.T) {
	o := &fakeOracle{routeErr: fmt.Errorf("label out of set: %w", oracle.ErrUnrecognized)}
	f := newFixture(t, o, nil)

	_, err := f.engine.Run(context.Background(), Request{Text: "gibberish"})
	require.Error(t, err)
	assert.Equal(t, KindClassification, KindOf(err))

	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, NodeStart, werr.Node)
}

func TestRunFailsOnAmbiguousMailIntent(t *testing.T) {
	o := &fakeOracle{
		route:     oracle.RouteMailAuth,
		intentErr: fmt.Errorf("intent out of set: %w", oracle.ErrUnrecognized),
	}
	f := newFixture(t, o, nil)

	_, err := f.engine.Run(context.Background(), Request{Text: "do something with my mail"})
	require.Error(t, err)
	assert.Equal(t, KindClassification, KindOf(err))
	assert.Empty(t, f.mail.sent, "no branch may be taken by default")
}

func TestRunSurfacesAuthError(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteMailAuth}
	f := newFixture(t, o, nil)
	f.mailAuth.err = errors.New("interactive grant unavailable")

	_, err := f.engine.Run(context.Background(), Request{Text: "send an email"})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))

	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, NodeAuthMail, werr.Node)
}

func TestRunSurfacesSendError(t *testing.T) {
	mail := newFakeMail()
	mail.sendErr = errors.New("transport failure")
	o := &fakeOracle{
		route:  oracle.RouteMailAuth,
		intent: oracle.MailIntentSend,
		email:  &oracle.EmailFields{Sender: "a@x.com", Receiver: "b@x.com", Subject: "s", Body: "b"},
	}
	f := newFixture(t, o, mail)

	_, err := f.engine.Run(context.Background(), Request{Text: "send an email to b@x.com"})
	require.Error(t, err)
	assert.Equal(t, KindSend, KindOf(err))
}

func TestStepsYieldsSnapshotPerNode(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteWebSearch}
	f := newFixture(t, o, nil)

	var visited []NodeID
	for step, err := range f.engine.Steps(context.Background(), Request{Text: "search something"}) {
		require.NoError(t, err)
		visited = append(visited, step.Node)
		require.NotNil(t, step.State)
	}

	assert.Equal(t, []NodeID{NodeWebSearch}, visited)
}

func TestStepsYieldsAuthAndHandlerSnapshots(t *testing.T) {
	o := &fakeOracle{
		route:  oracle.RouteMailAuth,
		intent: oracle.MailIntentSend,
		email:  &oracle.EmailFields{Sender: "a@x.com", Receiver: "b@x.com", Subject: "s", Body: "b"},
	}
	f := newFixture(t, o, nil)

	var visited []NodeID
	for step, err := range f.engine.Steps(context.Background(), Request{Text: "send an email"}) {
		require.NoError(t, err)
		visited = append(visited, step.Node)
	}

	assert.Equal(t, []NodeID{NodeAuthMail, NodeMailSend}, visited)

	// Snapshots are insulated from later mutation: the auth snapshot still
	// holds the credential payload even after the send node replaced it.
}

func TestStepsSnapshotInsulation(t *testing.T) {
	o := &fakeOracle{
		route:  oracle.RouteMailAuth,
		intent: oracle.MailIntentSend,
		email:  &oracle.EmailFields{Sender: "a@x.com", Receiver: "b@x.com", Subject: "s", Body: "b"},
	}
	f := newFixture(t, o, nil)

	var snapshots []*State
	for step, err := range f.engine.Steps(context.Background(), Request{Text: "send an email"}) {
		require.NoError(t, err)
		snapshots = append(snapshots, step.State)
	}

	require.Len(t, snapshots, 2)
	_, ok := snapshots[0].Messages.(CredentialPayload)
	assert.True(t, ok, "first snapshot keeps the auth node's payload")
	_, ok = snapshots[1].Messages.(TextPayload)
	assert.True(t, ok)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	o := &fakeOracle{route: oracle.RouteWebSearch}
	f := newFixture(t, o, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Run(ctx, Request{Text: "search"})
	assert.ErrorIs(t, err, context.Canceled)
}
