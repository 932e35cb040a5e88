package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"time"

	"github.com/msomdec/approval-gate/internal/domain"
)

const registrationSubject = "New registration awaiting approval"

// registrationText is the plain-text body of the approval request.
func registrationText(reg domain.Registration) string {
	return fmt.Sprintf(`A new account is waiting for approval.

Username: %s
Email: %s
Phone: %s

Review pending accounts from the admin console to approve it.
`, reg.Username, reg.Email, reg.PhoneNumber)
}

// buildMessage assembles an RFC 5322 message with text and HTML alternatives.
func buildMessage(ctx context.Context, from, to string, reg domain.Registration, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := writePart(mw, "text/plain; charset=utf-8", func(w io.Writer) error {
		_, err := io.WriteString(w, registrationText(reg))
		return err
	}); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	if err := writePart(mw, "text/html; charset=utf-8", func(w io.Writer) error {
		return registrationHTML(reg).Render(ctx, w)
	}); err != nil {
		return nil, fmt.Errorf("write html part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", registrationSubject))
	fmt.Fprintf(&msg, "Date: %s\r\n", now.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType string, write func(io.Writer) error) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	qw := quotedprintable.NewWriter(pw)
	if err := write(qw); err != nil {
		return err
	}
	return qw.Close()
}
