package mailx

import (
	"context"

	"github.com/Abraxas-365/bulkmailer/pkg/fsx"
)

// implicitTLSPort is the SMTPS port; connecting to it skips STARTTLS and
// negotiates TLS immediately.
const implicitTLSPort = 465

// TransportConfig carries the caller-supplied credentials for one job's
// outbound connection. It is never persisted and lives only as long as the
// job that owns it.
type TransportConfig struct {
	Host       string `json:"smtpHost"`
	Port       int    `json:"smtpPort"`
	Username   string `json:"email"`
	Password   string `json:"password"`
	SenderName string `json:"senderName"`
}

// ImplicitTLS reports whether the configured port requires implicit TLS.
func (c TransportConfig) ImplicitTLS() bool {
	return c.Port == implicitTLSPort
}

// Validate checks that every field is present and the port is in range.
func (c TransportConfig) Validate() error {
	switch {
	case c.Host == "":
		return mailxErrors.New(ErrInvalidConfig).WithDetail("field", "smtpHost")
	case c.Port < 1 || c.Port > 65535:
		return mailxErrors.New(ErrInvalidConfig).
			WithDetail("field", "smtpPort").
			WithDetail("port", c.Port)
	case c.Username == "":
		return mailxErrors.New(ErrInvalidConfig).WithDetail("field", "email")
	case c.Password == "":
		return mailxErrors.New(ErrInvalidConfig).WithDetail("field", "password")
	case c.SenderName == "":
		return mailxErrors.New(ErrInvalidConfig).WithDetail("field", "senderName")
	}
	return nil
}

// Message is one fully-personalized email ready for the wire.
type Message struct {
	From        string
	FromName    string
	To          string
	Subject     string
	HTML        string
	Attachments []ResolvedAttachment
}

// Attachment is the dual representation of an email attachment: either
// inline content or a reference to a file staged through fsx. Exactly one
// of Content or Path is set.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`

	// Content holds inline attachment bytes.
	Content []byte `json:"content,omitempty"`

	// Path references a staged file, resolved through the file system
	// before the first send.
	Path string `json:"path,omitempty"`
}

// Inline reports whether the attachment carries its bytes directly.
func (a Attachment) Inline() bool {
	return len(a.Content) > 0
}

// ResolvedAttachment is the byte-bearing form every attachment is reduced
// to before sending, keeping the dispatch engine transport-agnostic.
type ResolvedAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResolveAttachments reduces every attachment to its byte-bearing form,
// reading staged files through the given reader. Resolution happens once
// per job, before the first recipient.
func ResolveAttachments(ctx context.Context, reader fsx.FileReader, atts []Attachment) ([]ResolvedAttachment, error) {
	if len(atts) == 0 {
		return nil, nil
	}

	resolved := make([]ResolvedAttachment, 0, len(atts))
	for _, a := range atts {
		if a.Filename == "" {
			return nil, mailxErrors.New(ErrAttachmentResolve).
				WithDetail("reason", "missing filename")
		}

		if a.Inline() {
			resolved = append(resolved, ResolvedAttachment{
				Filename:    a.Filename,
				ContentType: a.ContentType,
				Data:        a.Content,
			})
			continue
		}

		if a.Path == "" {
			return nil, mailxErrors.New(ErrAttachmentResolve).
				WithDetail("filename", a.Filename).
				WithDetail("reason", "neither content nor path set")
		}

		data, err := reader.ReadFile(ctx, a.Path)
		if err != nil {
			return nil, mailxErrors.NewWithCause(ErrAttachmentResolve, err).
				WithDetail("filename", a.Filename).
				WithDetail("path", a.Path)
		}
		resolved = append(resolved, ResolvedAttachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        data,
		})
	}
	return resolved, nil
}
