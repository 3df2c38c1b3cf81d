package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/taskpilot/internal/logging"
	"github.com/teemow/taskpilot/internal/oracle"
)

// route selects the first edge out of the virtual start node. An
// unclassifiable request aborts the run; there is no default branch.
func (r *run) route(ctx context.Context, s *State) (NodeID, error) {
	decision, err := r.engine.oracle.Route(ctx, s.LastQuestion())
	if err != nil {
		return "", nodeErr(NodeStart, KindClassification, err)
	}

	r.engine.logger.Debug("request routed", logging.Decision(string(decision)))

	switch decision {
	case oracle.RouteMailAuth:
		return NodeAuthMail, nil
	case oracle.RouteCalendarAuth:
		return NodeAuthCalendar, nil
	case oracle.RouteTranscribe:
		return NodeTranscribe, nil
	case oracle.RouteWebSearch:
		return NodeWebSearch, nil
	}
	return "", nodeErr(NodeStart, KindClassification, fmt.Errorf("route %q has no edge", decision))
}

func (r *run) authenticateMail(ctx context.Context, s *State) error {
	token, err := r.engine.mailAuth.Authenticate(ctx)
	if err != nil {
		return nodeErr(NodeAuthMail, KindAuth, err)
	}
	s.Messages = CredentialPayload{Token: token}
	return nil
}

func (r *run) authenticateCalendar(ctx context.Context, s *State) error {
	token, err := r.engine.calendarAuth.Authenticate(ctx)
	if err != nil {
		return nodeErr(NodeAuthCalendar, KindAuth, err)
	}
	s.Messages = CredentialPayload{Token: token}
	return nil
}

// sendOrSort selects the node that follows mail authentication. The decision
// compares the extracted intent field; an unrecognized intent is an error so
// a mail the user meant to send is never silently sorted instead.
func (r *run) sendOrSort(ctx context.Context, s *State) (NodeID, error) {
	intent, err := r.engine.oracle.MailIntent(ctx, s.LastQuestion())
	if err != nil {
		return "", nodeErr(NodeAuthMail, KindClassification, err)
	}
	if intent == oracle.MailIntentSend {
		return NodeMailSend, nil
	}
	return NodeMailSort, nil
}

func (r *run) sendMail(ctx context.Context, s *State) error {
	cred, ok := s.Messages.(CredentialPayload)
	if !ok {
		return nodeErr(NodeMailSend, KindSend, fmt.Errorf("expected credential payload, got %T", s.Messages))
	}

	fields, err := r.engine.oracle.EmailFields(ctx, s.LastQuestion())
	if err != nil {
		return nodeErr(NodeMailSend, KindExtraction, err)
	}

	attachment := fields.Attachment
	if attachment == "" {
		// A file uploaded alongside the request is attached even when the
		// request text does not spell out its path.
		attachment = s.File
	}

	svc, err := r.engine.mail.MailService(ctx, cred.Token)
	if err != nil {
		return nodeErr(NodeMailSend, KindSend, err)
	}

	id, err := svc.Send(ctx, OutgoingMail{
		From:           fields.Sender,
		To:             fields.Receiver,
		Subject:        fields.Subject,
		Body:           fields.Body,
		AttachmentPath: attachment,
	})
	if err != nil {
		return nodeErr(NodeMailSend, KindSend, err)
	}

	r.engine.logger.Info("email sent",
		logging.Node(string(NodeMailSend)),
		logging.UserHash(fields.Receiver),
		"message_id", id)

	s.Messages = TextPayload{Text: fields.Body}
	return nil
}

func (r *run) sortMail(ctx context.Context, s *State) error {
	cred, ok := s.Messages.(CredentialPayload)
	if !ok {
		return nodeErr(NodeMailSort, KindSort, fmt.Errorf("expected credential payload, got %T", s.Messages))
	}

	criterion, err := r.engine.oracle.Criterion(ctx, s.LastQuestion())
	if err != nil {
		return nodeErr(NodeMailSort, KindClassification, err)
	}

	svc, err := r.engine.mail.MailService(ctx, cred.Token)
	if err != nil {
		return nodeErr(NodeMailSort, KindSort, err)
	}

	emails, err := svc.ListMessages(ctx, r.engine.sortQuery)
	if err != nil {
		return nodeErr(NodeMailSort, KindSort, err)
	}

	for _, email := range emails {
		labelID, err := svc.EnsureLabel(ctx, email.Field(criterion))
		if err != nil {
			return nodeErr(NodeMailSort, KindSort, err)
		}
		if err := svc.ApplyLabel(ctx, email.ID, labelID); err != nil {
			return nodeErr(NodeMailSort, KindSort, err)
		}
	}

	r.engine.logger.Info("emails labeled",
		logging.Node(string(NodeMailSort)),
		logging.Criterion(string(criterion)),
		"count", len(emails))

	s.Storage = append(s.Storage, SortArtifacts{
		Emails:     emails,
		Mail:       svc,
		Criterion:  criterion,
		Credential: cred,
	})
	s.Messages = TextPayload{Text: "successful"}
	return nil
}

// removeOrNot decides whether the label-removal pass follows the sort. A
// follow-up answer, when present, becomes the turn the decision reads.
func (r *run) removeOrNot(ctx context.Context, s *State) (NodeID, error) {
	if r.req.FollowUp != "" {
		s.Append(RoleUser, r.req.FollowUp)
	}

	remove, err := r.engine.oracle.RemoveLabels(ctx, s.LastQuestion())
	if err != nil {
		return "", nodeErr(NodeMailSort, KindClassification, err)
	}
	if remove {
		return NodeLabelRemove, nil
	}
	return NodeTerminal, nil
}

func (r *run) removeLabels(ctx context.Context, s *State) error {
	if len(s.Storage) == 0 {
		return nodeErr(NodeLabelRemove, KindSort, fmt.Errorf("no sort artifacts in storage"))
	}
	artifacts := s.Storage[len(s.Storage)-1]

	for _, email := range artifacts.Emails {
		if err := artifacts.Mail.DeleteLabelNamed(ctx, email.Field(artifacts.Criterion)); err != nil {
			return nodeErr(NodeLabelRemove, KindSort, err)
		}
	}

	r.engine.logger.Info("labels removed",
		logging.Node(string(NodeLabelRemove)),
		logging.Criterion(string(artifacts.Criterion)),
		"count", len(artifacts.Emails))

	// Hand the credential back as the terminal payload.
	s.Messages = artifacts.Credential
	return nil
}

func (r *run) scheduleMeeting(ctx context.Context, s *State) error {
	cred, ok := s.Messages.(CredentialPayload)
	if !ok {
		return nodeErr(NodeMeetingSchedule, KindSchedule, fmt.Errorf("expected credential payload, got %T", s.Messages))
	}

	fields, err := r.engine.oracle.MeetingFields(ctx, s.LastQuestion())
	if err != nil {
		return nodeErr(NodeMeetingSchedule, KindExtraction, err)
	}

	svc, err := r.engine.calendar.CalendarService(ctx, cred.Token)
	if err != nil {
		return nodeErr(NodeMeetingSchedule, KindSchedule, err)
	}

	link, err := svc.ScheduleMeeting(ctx, MeetingInput{
		Start:     fields.Start,
		End:       fields.Start.Add(time.Hour),
		Attendees: fields.Participants,
		TimeZone:  r.engine.timeZone,
	})
	if err != nil {
		return nodeErr(NodeMeetingSchedule, KindSchedule, err)
	}

	r.engine.logger.Info("meeting scheduled",
		logging.Node(string(NodeMeetingSchedule)),
		"attendees", len(fields.Participants))

	s.Messages = TextPayload{Text: "meeting link : " + link}
	return nil
}

func (r *run) transcribe(ctx context.Context, s *State) error {
	path := s.File
	if path == "" {
		extracted, err := r.engine.oracle.FilePath(ctx, s.LastQuestion())
		if err != nil {
			return nodeErr(NodeTranscribe, KindExtraction, err)
		}
		path = extracted
	}

	transcript, err := r.engine.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nodeErr(NodeTranscribe, KindTranscription, err)
	}

	s.Messages = DocumentPayload{Content: transcript}
	return nil
}

func (r *run) webSearch(ctx context.Context, s *State) error {
	result, err := r.engine.searcher.Search(ctx, s.LastQuestion())
	if err != nil {
		return nodeErr(NodeWebSearch, KindSearch, err)
	}
	s.Messages = TextPayload{Text: result}
	return nil
}
