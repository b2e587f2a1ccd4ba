// Package mailxses routes every job through a process-level AWS SES
// client. Per-job SMTP credentials in the TransportConfig are ignored;
// only the sender identity is taken from it. Select with MAIL_PROVIDER=ses.
package mailxses

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Dialer opens SES-backed handles. All handles share one SES client.
type Dialer struct {
	client *ses.Client
}

// NewDialer creates an SES dialer around an already-configured client.
func NewDialer(client *ses.Client) *Dialer {
	return &Dialer{client: client}
}

// Open returns a handle bound to the shared SES client. The caller's
// sender address must still be present; host/port/password are unused.
func (d *Dialer) Open(ctx context.Context, cfg mailx.TransportConfig) (mailx.Handle, error) {
	if cfg.Username == "" {
		return nil, sesErrors.New(ErrMissingSender)
	}
	return &handle{client: d.client}, nil
}

type handle struct {
	client *ses.Client
}

// Verify checks that the SES account is reachable and sending is enabled.
func (h *handle) Verify(ctx context.Context) error {
	if _, err := h.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return sesErrors.NewWithCause(ErrVerifyFailed, err)
	}
	return nil
}

// Send delivers one message. Messages without attachments use the
// structured SendEmail API; attachments require a raw MIME message.
func (h *handle) Send(ctx context.Context, msg mailx.Message) error {
	if len(msg.Attachments) == 0 {
		return h.sendSimple(ctx, msg)
	}
	return h.sendRaw(ctx, msg)
}

// Close is a no-op: the SES client outlives any single job.
func (h *handle) Close() error {
	return nil
}

func (h *handle) sendSimple(ctx context.Context, msg mailx.Message) error {
	input := &ses.SendEmailInput{
		Source: aws.String(formatSender(msg.FromName, msg.From)),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(msg.HTML),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := h.client.SendEmail(ctx, input); err != nil {
		return sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To)
	}
	return nil
}

func (h *handle) sendRaw(ctx context.Context, msg mailx.Message) error {
	raw, err := buildRawMessage(msg)
	if err != nil {
		return err
	}

	input := &ses.SendRawEmailInput{
		Source:     aws.String(formatSender(msg.FromName, msg.From)),
		RawMessage: &types.RawMessage{Data: raw},
	}

	if _, err := h.client.SendRawEmail(ctx, input); err != nil {
		return sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To)
	}
	return nil
}

// buildRawMessage assembles a multipart/mixed MIME message with an HTML
// body part followed by base64-encoded attachment parts.
func buildRawMessage(msg mailx.Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", formatSender(msg.FromName, msg.From))
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=UTF-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, sesErrors.NewWithCause(ErrBuildMessage, err)
	}
	if _, err := bodyPart.Write([]byte(msg.HTML)); err != nil {
		return nil, sesErrors.NewWithCause(ErrBuildMessage, err)
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, sesErrors.NewWithCause(ErrBuildMessage, err).
				WithDetail("attachment", a.Filename)
		}

		encoded := make([]byte, base64.StdEncoding.EncodedLen(len(a.Data)))
		base64.StdEncoding.Encode(encoded, a.Data)
		if _, err := part.Write(encoded); err != nil {
			return nil, sesErrors.NewWithCause(ErrBuildMessage, err).
				WithDetail("attachment", a.Filename)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, sesErrors.NewWithCause(ErrBuildMessage, err)
	}
	return buf.Bytes(), nil
}

func formatSender(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), addr)
}
