package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/taskpilot/internal/google"
	"github.com/teemow/taskpilot/internal/workflow"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client authorized with the given token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(google.HTTPClient(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// Provider builds run-scoped mail services from credentials.
type Provider struct{}

// MailService implements workflow.MailProvider.
func (Provider) MailService(ctx context.Context, token *oauth2.Token) (workflow.MailService, error) {
	return NewClient(ctx, token)
}

// ListMessages lists all messages matching the query filter (empty lists
// all mail), reduced to the fields the sort path consumes.
func (c *Client) ListMessages(ctx context.Context, query string) ([]workflow.EmailRecord, error) {
	var records []workflow.EmailRecord

	pageToken := ""
	for {
		req := c.svc.Messages.List("me").Q(query).Context(ctx)
		if pageToken != "" {
			req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range res.Messages {
			full, err := c.svc.Messages.Get("me", m.Id).Format("metadata").
				MetadataHeaders("Subject", "From").Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("failed to get message %s: %w", m.Id, err)
			}
			records = append(records, toRecord(full))
		}

		if res.NextPageToken == "" {
			return records, nil
		}
		pageToken = res.NextPageToken
	}
}

// toRecord reduces a Gmail message to an EmailRecord, falling back to
// placeholder values when headers are missing.
func toRecord(msg *gmail.Message) workflow.EmailRecord {
	record := workflow.EmailRecord{
		ID:      msg.Id,
		Subject: "No Subject",
		Sender:  "Unknown Sender",
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		return record
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			record.Subject = h.Value
		case "From":
			record.Sender = h.Value
		}
	}
	return record
}

// EnsureLabel returns the ID of the label with the given name, creating it
// only when no label of that name exists. Name matching is
// case-insensitive, so re-running a sort never creates duplicates.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	existing, err := c.svc.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list labels: %w", err)
	}

	if label := findLabel(existing.Labels, name); label != nil {
		return label.Id, nil
	}

	created, err := c.svc.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return created.Id, nil
}

// ApplyLabel adds a label to a message.
func (c *Client) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to label message %s: %w", messageID, err)
	}
	return nil
}

// DeleteLabelNamed deletes the label with the given name if it exists.
// Deleting an absent label is not an error.
func (c *Client) DeleteLabelNamed(ctx context.Context, name string) error {
	existing, err := c.svc.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	label := findLabel(existing.Labels, name)
	if label == nil {
		return nil
	}

	if err := c.svc.Labels.Delete("me", label.Id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete label %q: %w", name, err)
	}
	return nil
}

// findLabel returns the label whose name matches case-insensitively, or nil.
func findLabel(labels []*gmail.Label, name string) *gmail.Label {
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	return nil
}

// Send builds a multipart message and submits it through the Gmail API,
// returning the assigned message ID.
func (c *Client) Send(ctx context.Context, mail workflow.OutgoingMail) (string, error) {
	raw, err := buildMessage(mail)
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}
