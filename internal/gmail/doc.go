// Package gmail wraps the Gmail API as the mail capability: listing
// messages, managing labels and sending multipart messages. A Client is
// scoped to one workflow run and must not be shared across runs.
package gmail
