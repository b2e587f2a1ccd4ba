package bulkx

import (
	"context"
	"time"

	"github.com/Abraxas-365/bulkmailer/pkg/asyncx"
	"github.com/Abraxas-365/bulkmailer/pkg/fsx"
	"github.com/Abraxas-365/bulkmailer/pkg/logx"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"golang.org/x/time/rate"
)

// Engine runs dispatch jobs to completion in the background. One job is
// one goroutine: sends are strictly sequential within a job to respect
// the delivery endpoint's rate limits, while independent jobs run
// concurrently. A submitted job always runs to completion or
// system-error termination; there is no cancellation signal, which is
// why the engine runs on its own background context rather than the
// submitting request's.
type Engine struct {
	store    *Store
	dialer   mailx.Dialer
	files    fsx.FileReader
	interval time.Duration
}

// NewEngine creates a dispatch engine. interval is the pause between
// consecutive sends within one job.
func NewEngine(store *Store, dialer mailx.Dialer, files fsx.FileReader, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		store:    store,
		dialer:   dialer,
		files:    files,
		interval: interval,
	}
}

// Launch starts the job in a supervised goroutine and returns
// immediately. A panic in the background unit is captured into the job's
// terminal failed state instead of crashing the process.
func (e *Engine) Launch(jobID string, sub Submission) {
	asyncx.Go("bulkx.dispatch", func() {
		e.run(jobID, sub)
	}, func(recovered any) {
		e.fail(jobID, asyncx.PanicError(recovered))
	})
}

func (e *Engine) run(jobID string, sub Submission) {
	// Job lifetime is independent of the submitting request.
	ctx := context.Background()
	log := logx.WithField("job", jobID)

	handle, err := e.dialer.Open(ctx, sub.Transport)
	if err != nil {
		log.WithError(err).Error("transport open failed")
		e.fail(jobID, err)
		return
	}
	defer handle.Close()

	if err := handle.Verify(ctx); err != nil {
		log.WithError(err).Error("transport verification failed")
		e.fail(jobID, err)
		return
	}

	attachments, err := mailx.ResolveAttachments(ctx, e.files, sub.Template.Attachments)
	if err != nil {
		log.WithError(err).Error("attachment resolution failed")
		e.fail(jobID, err)
		return
	}

	e.store.Update(jobID, func(j *Job) {
		j.Status = JobStatusSending
	})
	log.Infof("dispatch started: %d recipients", len(sub.Recipients))

	// Burst 1 makes the first send immediate and spaces every
	// subsequent send by the interval; nothing waits after the last.
	limiter := rate.NewLimiter(rate.Every(e.interval), 1)

	for _, recipient := range sub.Recipients {
		_ = limiter.Wait(ctx)

		subject, body := PersonalizeContent(
			sub.Template.Subject,
			sub.Template.BodyHTML,
			recipient.FieldMap(),
			sub.Personalize,
		)

		msg := mailx.Message{
			From:        sub.Transport.Username,
			FromName:    sub.Transport.SenderName,
			To:          recipient.Email,
			Subject:     subject,
			HTML:        body,
			Attachments: attachments,
		}

		// A send failure is scoped to this recipient: record it and
		// keep going. Counts are pushed to the store after every
		// recipient so pollers observe progress mid-flight.
		if err := handle.Send(ctx, msg); err != nil {
			log.WithError(err).Warnf("send failed: %s", recipient.Email)
			e.store.Update(jobID, func(j *Job) {
				j.FailedCount++
				j.Errors = append(j.Errors, JobError{Email: recipient.Email, Reason: err.Error()})
			})
			continue
		}

		e.store.Update(jobID, func(j *Job) {
			j.SentCount++
		})
		log.Debugf("sent to %s", recipient.Email)
	}

	// Completion reflects loop termination, not success rate: a job
	// where every send failed still completes.
	now := time.Now()
	e.store.Update(jobID, func(j *Job) {
		j.Status = JobStatusCompleted
		j.EndTime = &now
	})

	if job, ok := e.store.Get(jobID); ok {
		e.store.AppendHistory(historyEntry(job))
		log.Infof("dispatch completed: %d sent, %d failed", job.SentCount, job.FailedCount)
	}
}

// fail stamps the job's terminal failed state with a single system-level
// error entry. Recipients not yet attempted are left untouched.
func (e *Engine) fail(jobID string, cause error) {
	now := time.Now()
	e.store.Update(jobID, func(j *Job) {
		j.Status = JobStatusFailed
		j.EndTime = &now
		j.Errors = append(j.Errors, JobError{Email: SystemRecipient, Reason: cause.Error()})
	})

	if job, ok := e.store.Get(jobID); ok {
		e.store.AppendHistory(historyEntry(job))
	}
}
