package bulkx

import (
	"time"

	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/Abraxas-365/bulkmailer/pkg/recipx"
)

// JobStatus represents the current state of a dispatch job.
//
// Transitions: started → sending → {completed, failed}. Terminal states
// never transition back, and there is no cancelled state: a submitted job
// always runs to completion or system-error termination.
type JobStatus string

const (
	JobStatusStarted   JobStatus = "started"
	JobStatusSending   JobStatus = "sending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SystemRecipient marks error entries that belong to the job itself
// rather than to any recipient (verify failures, panics).
const SystemRecipient = "system"

// JobError is one recorded failure: a recipient-level send error or a
// job-level system error.
type JobError struct {
	Email  string `json:"email"`
	Reason string `json:"error"`
}

// Job is the tracked state of one bulk-send request. It is owned
// exclusively by the dispatch engine while running and read-shared by
// pollers through store copies.
type Job struct {
	ID              string     `json:"id"`
	Status          JobStatus  `json:"status"`
	Subject         string     `json:"emailSubject"`
	TotalRecipients int        `json:"totalEmails"`
	SentCount       int        `json:"sentCount"`
	FailedCount     int        `json:"failedCount"`
	Errors          []JobError `json:"errors"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
}

// HistoryEntry is the frozen summary of a terminal job, kept in the
// bounded history list.
type HistoryEntry struct {
	ID             string     `json:"id"`
	Status         JobStatus  `json:"status"`
	Subject        string     `json:"emailSubject"`
	RecipientCount int        `json:"recipientCount"`
	SentCount      int        `json:"sentCount"`
	FailedCount    int        `json:"failedCount"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
}

// historyEntry projects a terminal job into its frozen summary.
func historyEntry(j Job) HistoryEntry {
	return HistoryEntry{
		ID:             j.ID,
		Status:         j.Status,
		Subject:        j.Subject,
		RecipientCount: j.TotalRecipients,
		SentCount:      j.SentCount,
		FailedCount:    j.FailedCount,
		StartTime:      j.StartTime,
		EndTime:        j.EndTime,
	}
}

// Snapshot is the poller-facing view of a job: the job fields plus a
// progress percentage, with the error list capped for display. The full
// error list stays in the store.
type Snapshot struct {
	Job
	Progress int `json:"progress"`
}

// snapshotErrorCap bounds the errors included in a status response.
const snapshotErrorCap = 10

// Template is the caller-supplied message content, immutable once the
// job starts.
type Template struct {
	Subject     string            `json:"emailSubject"`
	BodyHTML    string            `json:"emailBody"`
	Attachments []mailx.Attachment `json:"attachments,omitempty"`
}

// Submission is the normalized tuple a caller hands the engine: transport
// credentials, message template, canonical recipient list and the
// personalization switch.
type Submission struct {
	Transport   mailx.TransportConfig
	Template    Template
	Recipients  []recipx.Recipient
	Personalize bool
}
