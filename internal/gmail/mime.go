package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path"
	"path/filepath"

	"github.com/teemow/taskpilot/internal/workflow"
)

// buildMessage renders an outgoing mail as an RFC 2822 multipart message.
// The attachment part, when present, carries the file's resolved MIME type
// (application/octet-stream when undetermined) and its base file name in the
// Content-Disposition header.
func buildMessage(mail workflow.OutgoingMail) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "To: %s\r\n", mail.To)
	if mail.From != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", mail.From)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", mail.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	body, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := body.Write([]byte(mail.Body)); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}

	if mail.AttachmentPath != "" {
		if err := attachFile(writer, mail.AttachmentPath); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}

func attachFile(writer *multipart.Writer, attachmentPath string) error {
	content, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", attachmentPath, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(attachmentPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Attachment paths are normalized to forward slashes before they reach
	// this point, so path.Base yields the file name on any platform.
	filename := path.Base(attachmentPath)

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mimeType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
	})
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := min(76, len(encoded))
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:n]); err != nil {
			return fmt.Errorf("failed to write attachment: %w", err)
		}
		encoded = encoded[n:]
	}
	return nil
}
