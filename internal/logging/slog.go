package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyNode       = "node"
	KeyCapability = "capability"
	KeyDecision   = "decision"
	KeyCriterion  = "criterion"
	KeyFamily     = "family"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyUserHash   = "user_hash"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithNode returns a logger with the workflow node attribute set.
func WithNode(logger *slog.Logger, node string) *slog.Logger {
	return logger.With(slog.String(KeyNode, node))
}

// WithCapability returns a logger with the capability attribute set.
func WithCapability(logger *slog.Logger, capability string) *slog.Logger {
	return logger.With(slog.String(KeyCapability, capability))
}

// Node returns a slog attribute for the workflow node name.
func Node(node string) slog.Attr {
	return slog.String(KeyNode, node)
}

// Capability returns a slog attribute for the capability name.
func Capability(capability string) slog.Attr {
	return slog.String(KeyCapability, capability)
}

// Decision returns a slog attribute for an oracle decision label.
func Decision(label string) slog.Attr {
	return slog.String(KeyDecision, label)
}

// Criterion returns a slog attribute for a label criterion.
func Criterion(criterion string) slog.Attr {
	return slog.String(KeyCriterion, criterion)
}

// Family returns a slog attribute for a credential family.
func Family(family string) slog.Attr {
	return slog.String(KeyFamily, family)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from
// output. This allows safely passing Err(maybeNilErr) without adding empty
// attributes.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email address for
// logging purposes. This allows correlation of log entries without exposing
// PII such as message recipients or meeting participants.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
