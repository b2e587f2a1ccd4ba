package bulkx_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Abraxas-365/bulkmailer/pkg/bulkx"
	"github.com/Abraxas-365/bulkmailer/pkg/errx"
)

func newTestService(dialer *fakeDialer, maxRecipients int) (*bulkx.Service, *bulkx.Store) {
	store := bulkx.NewStore(0)
	engine := bulkx.NewEngine(store, dialer, emptyFiles{}, time.Millisecond)
	return bulkx.NewService(store, engine, dialer, emptyFiles{}, maxRecipients), store
}

func TestService_SubmitLaunchesJob(t *testing.T) {
	dialer := &fakeDialer{}
	svc, store := newTestService(dialer, 0)

	job, err := svc.Submit(testSubmission("a@example.com", "b@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if job.Status != bulkx.JobStatusStarted {
		t.Fatalf("submission must return before sending, got %s", job.Status)
	}

	done := waitTerminal(t, store, job.ID)
	if done.SentCount != 2 {
		t.Fatalf("expected 2 sent, got %d", done.SentCount)
	}
}

func TestService_SubmitRejectsInvalidTransport(t *testing.T) {
	svc, store := newTestService(&fakeDialer{}, 0)

	sub := testSubmission("a@example.com")
	sub.Transport.Host = ""

	if _, err := svc.Submit(sub); err == nil {
		t.Fatal("expected validation error")
	} else if !errx.IsType(err, errx.TypeValidation) {
		t.Fatalf("expected validation type, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("rejected submission must not create a job")
	}
}

func TestService_SubmitRejectsEmptyContent(t *testing.T) {
	svc, _ := newTestService(&fakeDialer{}, 0)

	sub := testSubmission("a@example.com")
	sub.Template.Subject = ""
	if _, err := svc.Submit(sub); err == nil {
		t.Fatal("expected error for empty subject")
	}

	sub = testSubmission("a@example.com")
	sub.Template.BodyHTML = ""
	if _, err := svc.Submit(sub); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestService_SubmitRecipientBounds(t *testing.T) {
	svc, store := newTestService(&fakeDialer{}, 2)

	if _, err := svc.Submit(testSubmission()); err == nil {
		t.Fatal("expected error for empty recipient list")
	}

	if _, err := svc.Submit(testSubmission("a@example.com", "b@example.com", "c@example.com")); err == nil {
		t.Fatal("expected error above the recipient ceiling")
	}
	if store.Len() != 0 {
		t.Fatal("no job may exist after rejected submissions")
	}
}

func TestService_StatusProgress(t *testing.T) {
	svc, store := newTestService(&fakeDialer{}, 0)

	store.Create("job-1", "s", 4)
	store.Update("job-1", func(j *bulkx.Job) {
		j.Status = bulkx.JobStatusSending
		j.SentCount = 1
		j.FailedCount = 1
	})

	snap, err := svc.Status("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Progress != 50 {
		t.Fatalf("expected progress 50, got %d", snap.Progress)
	}

	store.Update("job-1", func(j *bulkx.Job) {
		j.SentCount = 3
	})
	snap, _ = svc.Status("job-1")
	if snap.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", snap.Progress)
	}
}

func TestService_StatusCapsErrors(t *testing.T) {
	svc, store := newTestService(&fakeDialer{}, 0)

	store.Create("job-1", "s", 15)
	store.Update("job-1", func(j *bulkx.Job) {
		for i := range 15 {
			j.Errors = append(j.Errors, bulkx.JobError{
				Email:  fmt.Sprintf("r%d@example.com", i),
				Reason: "rejected",
			})
		}
		j.FailedCount = 15
	})

	snap, err := svc.Status("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Errors) != 10 {
		t.Fatalf("expected errors capped at 10, got %d", len(snap.Errors))
	}
	if snap.FailedCount != 15 {
		t.Fatal("counts must reflect the full error tally")
	}

	// The cap only trims the response, never the record.
	job, _ := store.Get("job-1")
	if len(job.Errors) != 15 {
		t.Fatalf("stored error list was truncated to %d", len(job.Errors))
	}
}

func TestService_StatusUnknownJob(t *testing.T) {
	svc, _ := newTestService(&fakeDialer{}, 0)

	_, err := svc.Status("nope")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !errx.IsType(err, errx.TypeNotFound) {
		t.Fatalf("expected not-found type, got %v", err)
	}
}

func TestService_HistoryPagination(t *testing.T) {
	svc, store := newTestService(&fakeDialer{}, 0)
	for i := range 5 {
		store.AppendHistory(bulkx.HistoryEntry{ID: fmt.Sprintf("job-%d", i)})
	}

	page := svc.History(2, 0)
	if page.Page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", page.Page.Total, len(page.Items))
	}
	if page.Items[0].ID != "job-4" {
		t.Fatalf("expected newest first, got %s", page.Items[0].ID)
	}
	if !page.HasNext() {
		t.Fatal("expected a next page")
	}
}

func TestService_TestTransport(t *testing.T) {
	dialer := &fakeDialer{}
	svc, _ := newTestService(dialer, 0)

	cfg := testTransport()
	if err := svc.TestTransport(context.Background(), cfg, nil); err != nil {
		t.Fatal(err)
	}

	sent := dialer.sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 test message, got %d", len(sent))
	}
	if sent[0].To != cfg.Username || sent[0].From != cfg.Username {
		t.Fatalf("test message must be self-addressed, got %s -> %s", sent[0].From, sent[0].To)
	}
	if dialer.closed != 1 {
		t.Fatal("expected handle closed after test")
	}
}

func TestService_TestTransportVerifyFailure(t *testing.T) {
	dialer := &fakeDialer{verifyErr: context.DeadlineExceeded}
	svc, _ := newTestService(dialer, 0)

	if err := svc.TestTransport(context.Background(), testTransport(), nil); err == nil {
		t.Fatal("expected verify failure to surface")
	}
	if len(dialer.sent()) != 0 {
		t.Fatal("no message may be sent after a failed verify")
	}
}

func TestService_TestTransportFailureIsValidationClass(t *testing.T) {
	cases := []struct {
		name   string
		dialer *fakeDialer
	}{
		{"open", &fakeDialer{openErr: errors.New("connection refused")}},
		{"verify", &fakeDialer{verifyErr: errors.New("bad credentials")}},
		{"send", &fakeDialer{sendErr: func(string) error { return errors.New("rejected") }}},
	}

	for _, tc := range cases {
		svc, _ := newTestService(tc.dialer, 0)
		err := svc.TestTransport(context.Background(), testTransport(), nil)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}

		var e *errx.Error
		if !errx.As(err, &e) {
			t.Fatalf("%s: expected rich error, got %v", tc.name, err)
		}
		// A failed config test indicts the caller's input, not the
		// upstream service.
		if e.HTTPStatus != 400 || e.Type != errx.TypeValidation {
			t.Fatalf("%s: expected 400 validation, got %d %s", tc.name, e.HTTPStatus, e.Type)
		}
	}
}
