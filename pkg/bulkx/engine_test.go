package bulkx_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/bulkmailer/pkg/bulkx"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/Abraxas-365/bulkmailer/pkg/recipx"
)

// --- fakes ---

// fakeDialer records every message handed to its handle and fails
// selectively based on the configured hooks.
type fakeDialer struct {
	openErr   error
	verifyErr error
	sendErr   func(to string) error
	panicOn   string // address whose send panics

	mu       sync.Mutex
	messages []mailx.Message
	closed   int
}

func (d *fakeDialer) Open(_ context.Context, _ mailx.TransportConfig) (mailx.Handle, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return &fakeHandle{d: d}, nil
}

func (d *fakeDialer) sent() []mailx.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]mailx.Message, len(d.messages))
	copy(out, d.messages)
	return out
}

func (d *fakeDialer) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeHandle struct {
	d *fakeDialer
}

func (h *fakeHandle) Verify(_ context.Context) error {
	return h.d.verifyErr
}

func (h *fakeHandle) Send(_ context.Context, msg mailx.Message) error {
	if h.d.panicOn != "" && msg.To == h.d.panicOn {
		panic("send exploded")
	}
	if h.d.sendErr != nil {
		if err := h.d.sendErr(msg.To); err != nil {
			return err
		}
	}
	h.d.mu.Lock()
	h.d.messages = append(h.d.messages, msg)
	h.d.mu.Unlock()
	return nil
}

func (h *fakeHandle) Close() error {
	h.d.mu.Lock()
	h.d.closed++
	h.d.mu.Unlock()
	return nil
}

type emptyFiles struct{}

func (emptyFiles) ReadFile(_ context.Context, path string) ([]byte, error) {
	return nil, errors.New("no such file: " + path)
}

func (emptyFiles) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// --- helpers ---

func testTransport() mailx.TransportConfig {
	return mailx.TransportConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "sender@example.com",
		Password:   "secret",
		SenderName: "Sender",
	}
}

func testSubmission(recipients ...string) bulkx.Submission {
	list := make([]recipx.Recipient, len(recipients))
	for i, email := range recipients {
		list[i] = recipx.Recipient{Email: email}
	}
	return bulkx.Submission{
		Transport: testTransport(),
		Template: bulkx.Template{
			Subject:  "Hello",
			BodyHTML: "<p>Hi</p>",
		},
		Recipients: list,
	}
}

// waitClosed polls until the handle has been closed. The close runs after
// the terminal store update, so waitTerminal alone cannot observe it.
func waitClosed(t *testing.T, dialer *fakeDialer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if dialer.closeCount() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("handle was never closed")
}

// waitTerminal polls the store until the job reaches a terminal state.
func waitTerminal(t *testing.T, store *bulkx.Store, jobID string) bulkx.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := store.Get(jobID)
		if !ok {
			t.Fatalf("job %s disappeared", jobID)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return bulkx.Job{}
}

// --- Engine tests ---

func TestEngine_AllSendsSucceed(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com", "b@example.com", "c@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.SentCount != 3 || job.FailedCount != 0 {
		t.Fatalf("expected 3 sent / 0 failed, got %d / %d", job.SentCount, job.FailedCount)
	}
	if job.SentCount+job.FailedCount != job.TotalRecipients {
		t.Fatalf("counts do not add up: %d + %d != %d", job.SentCount, job.FailedCount, job.TotalRecipients)
	}
	if job.EndTime == nil {
		t.Fatal("expected end time on completed job")
	}

	if got := len(dialer.sent()); got != 3 {
		t.Fatalf("expected 3 messages on the wire, got %d", got)
	}
	waitClosed(t, dialer)

	entries, total := store.History(10, 0)
	if total != 1 || entries[0].ID != "job-1" {
		t.Fatalf("expected job-1 in history, got %d entries", total)
	}
}

func TestEngine_SendFailureIsScopedToRecipient(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{
		sendErr: func(to string) error {
			if to == "b@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		},
	}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com", "b@example.com", "c@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusCompleted {
		t.Fatalf("expected completed despite a failure, got %s", job.Status)
	}
	if job.SentCount != 2 || job.FailedCount != 1 {
		t.Fatalf("expected 2 sent / 1 failed, got %d / %d", job.SentCount, job.FailedCount)
	}
	if len(job.Errors) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(job.Errors))
	}
	if job.Errors[0].Email != "b@example.com" || job.Errors[0].Reason != "mailbox full" {
		t.Fatalf("unexpected error entry: %+v", job.Errors[0])
	}
}

func TestEngine_AllSendsFailStillCompletes(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{
		sendErr: func(string) error { return errors.New("rejected") },
	}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com", "b@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusCompleted {
		t.Fatalf("total failure is still completion, got %s", job.Status)
	}
	if job.FailedCount != job.TotalRecipients {
		t.Fatalf("expected every recipient failed, got %d of %d", job.FailedCount, job.TotalRecipients)
	}
	if len(job.Errors) != 2 {
		t.Fatalf("expected 2 error entries, got %d", len(job.Errors))
	}
}

func TestEngine_VerifyFailureIsJobFatal(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{verifyErr: errors.New("invalid credentials")}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com", "b@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.SentCount != 0 || job.FailedCount != 0 {
		t.Fatalf("no recipient was attempted, got %d / %d", job.SentCount, job.FailedCount)
	}
	if len(job.Errors) != 1 || job.Errors[0].Email != bulkx.SystemRecipient {
		t.Fatalf("expected single system error, got %+v", job.Errors)
	}
	if len(dialer.sent()) != 0 {
		t.Fatal("no message should have been sent")
	}

	entries, total := store.History(10, 0)
	if total != 1 || entries[0].Status != bulkx.JobStatusFailed {
		t.Fatalf("expected failed job in history, got %d entries", total)
	}
}

func TestEngine_OpenFailureIsJobFatal(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{openErr: errors.New("connection refused")}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Errors[0].Email != bulkx.SystemRecipient {
		t.Fatalf("expected system error entry, got %+v", job.Errors[0])
	}
}

func TestEngine_MissingAttachmentIsJobFatal(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com")
	sub.Template.Attachments = []mailx.Attachment{
		{Filename: "report.pdf", Path: "attachments/missing.pdf"},
	}
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if len(dialer.sent()) != 0 {
		t.Fatal("no message should have been sent")
	}
}

func TestEngine_SendPanicBecomesFailedJob(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{panicOn: "b@example.com"}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := testSubmission("a@example.com", "b@example.com", "c@example.com")
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	job := waitTerminal(t, store, "job-1")
	if job.Status != bulkx.JobStatusFailed {
		t.Fatalf("a panic mid-dispatch must fail the job, got %s", job.Status)
	}
	if job.SentCount != 1 {
		t.Fatalf("expected the send before the panic to be counted, got %d", job.SentCount)
	}
	if len(job.Errors) != 1 || job.Errors[0].Email != bulkx.SystemRecipient {
		t.Fatalf("expected single system error entry, got %+v", job.Errors)
	}
	if job.EndTime == nil {
		t.Fatal("expected end time on failed job")
	}

	// The panic unwound through the deferred close.
	waitClosed(t, dialer)

	entries, total := store.History(10, 0)
	if total != 1 || entries[0].Status != bulkx.JobStatusFailed {
		t.Fatalf("expected failed job in history, got %d entries", total)
	}
}

func TestEngine_PersonalizesPerRecipient(t *testing.T) {
	store := bulkx.NewStore(0)
	dialer := &fakeDialer{}
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)

	sub := bulkx.Submission{
		Transport: testTransport(),
		Template: bulkx.Template{
			Subject:  "Hi {{name}}",
			BodyHTML: "<p>Dear {{name}} at {{company}}</p>",
		},
		Recipients: []recipx.Recipient{
			{Email: "a@example.com", Name: "Alice", Fields: map[string]string{"company": "Acme"}},
			{Email: "b@example.com", Name: "Bob", Fields: map[string]string{"company": "Globex"}},
			{Email: "c@example.com", Name: "Cara", Fields: map[string]string{"company": ""}},
		},
		Personalize: true,
	}
	store.Create("job-1", sub.Template.Subject, len(sub.Recipients))
	engine.Launch("job-1", sub)

	waitTerminal(t, store, "job-1")

	for _, msg := range dialer.sent() {
		if strings.Contains(msg.Subject, "{{") || strings.Contains(msg.HTML, "{{") {
			t.Fatalf("placeholder leaked into message to %s: %q / %q", msg.To, msg.Subject, msg.HTML)
		}
		switch msg.To {
		case "a@example.com":
			if msg.Subject != "Hi Alice" {
				t.Fatalf("unexpected subject: %q", msg.Subject)
			}
		case "b@example.com":
			if !strings.Contains(msg.HTML, "Bob at Globex") {
				t.Fatalf("unexpected body: %q", msg.HTML)
			}
		case "c@example.com":
			// An empty field substitutes "", it does not leak the
			// placeholder.
			if !strings.Contains(msg.HTML, "Cara at </p>") {
				t.Fatalf("unexpected body: %q", msg.HTML)
			}
		}
	}
}
