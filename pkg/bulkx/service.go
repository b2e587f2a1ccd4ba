package bulkx

import (
	"context"
	"fmt"
	"math"

	"github.com/Abraxas-365/bulkmailer/pkg/fsx"
	"github.com/Abraxas-365/bulkmailer/pkg/kernel"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/google/uuid"
)

// DefaultMaxRecipients is the per-job batch ceiling when none is
// configured.
const DefaultMaxRecipients = 10000

// Service is the caller-facing surface of the dispatch core: submission
// with validation, status polling, history listing and transport
// testing. Submission is non-blocking; the job identifier is returned
// before the background unit starts sending.
type Service struct {
	store         *Store
	engine        *Engine
	dialer        mailx.Dialer
	files         fsx.FileReader
	maxRecipients int
}

// NewService wires the dispatch core together.
func NewService(store *Store, engine *Engine, dialer mailx.Dialer, files fsx.FileReader, maxRecipients int) *Service {
	if maxRecipients < 1 {
		maxRecipients = DefaultMaxRecipients
	}
	return &Service{
		store:         store,
		engine:        engine,
		dialer:        dialer,
		files:         files,
		maxRecipients: maxRecipients,
	}
}

// Submit validates the submission, creates the job record and launches
// the dispatch unit. Validation failures reject the request before any
// job exists — no identifier is issued.
func (s *Service) Submit(sub Submission) (Job, error) {
	if err := sub.Transport.Validate(); err != nil {
		return Job{}, err
	}
	if sub.Template.Subject == "" {
		return Job{}, bulkxErrors.New(ErrInvalidInput).WithDetail("field", "emailSubject")
	}
	if sub.Template.BodyHTML == "" {
		return Job{}, bulkxErrors.New(ErrInvalidInput).WithDetail("field", "emailBody")
	}
	if len(sub.Recipients) == 0 {
		return Job{}, bulkxErrors.NewWithMessage(ErrInvalidInput, "Recipient list is empty")
	}
	if len(sub.Recipients) > s.maxRecipients {
		return Job{}, bulkxErrors.NewWithMessage(ErrInvalidInput,
			fmt.Sprintf("Maximum %d recipients allowed per batch", s.maxRecipients)).
			WithDetail("recipients", len(sub.Recipients))
	}

	jobID := uuid.NewString()
	job := s.store.Create(jobID, sub.Template.Subject, len(sub.Recipients))
	s.engine.Launch(jobID, sub)
	return job, nil
}

// Status returns the poller-facing snapshot of a job.
func (s *Service) Status(jobID string) (Snapshot, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return Snapshot{}, bulkxErrors.New(ErrJobNotFound).WithDetail("jobId", jobID)
	}

	progress := 0
	if job.TotalRecipients > 0 {
		done := float64(job.SentCount + job.FailedCount)
		progress = int(math.Round(done / float64(job.TotalRecipients) * 100))
	}

	// The stored error list stays complete; only the response is capped.
	if len(job.Errors) > snapshotErrorCap {
		job.Errors = job.Errors[:snapshotErrorCap]
	}

	return Snapshot{Job: job, Progress: progress}, nil
}

// History returns one page of terminal-job summaries, newest first.
func (s *Service) History(limit, offset int) kernel.Paginated[HistoryEntry] {
	if limit <= 0 {
		limit = 50
	}
	entries, total := s.store.History(limit, offset)
	return kernel.NewPaginated(entries, limit, offset, total)
}

// TestTransport opens and verifies a transport from caller credentials,
// then sends a self-addressed test message so the caller can confirm the
// configuration end to end. Transport failures here mean the caller's
// configuration is bad, so they surface as a validation error rather
// than an upstream one.
func (s *Service) TestTransport(ctx context.Context, cfg mailx.TransportConfig, attachments []mailx.Attachment) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	handle, err := s.dialer.Open(ctx, cfg)
	if err != nil {
		return bulkxErrors.NewWithCause(ErrTransportTest, err)
	}
	defer handle.Close()

	if err := handle.Verify(ctx); err != nil {
		return bulkxErrors.NewWithCause(ErrTransportTest, err)
	}

	resolved, err := mailx.ResolveAttachments(ctx, s.files, attachments)
	if err != nil {
		return err
	}

	if err := handle.Send(ctx, mailx.Message{
		From:        cfg.Username,
		FromName:    cfg.SenderName,
		To:          cfg.Username,
		Subject:     "Test Email Configuration - Bulk Email Sender",
		HTML:        testEmailHTML(cfg),
		Attachments: resolved,
	}); err != nil {
		return bulkxErrors.NewWithCause(ErrTransportTest, err)
	}
	return nil
}

func testEmailHTML(cfg mailx.TransportConfig) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4CAF50;">Email Configuration Test Successful</h2>
  <p>Your email configuration is working properly!</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>SMTP Host:</strong> %s</p>
    <p><strong>SMTP Port:</strong> %d</p>
    <p><strong>Sender Email:</strong> %s</p>
    <p><strong>Sender Name:</strong> %s</p>
  </div>
  <p>You can now proceed to send bulk emails.</p>
</div>`, cfg.Host, cfg.Port, cfg.Username, cfg.SenderName)
}
