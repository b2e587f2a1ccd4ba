// Package mailx abstracts the outbound delivery channel. The dispatch
// engine only ever talks to a Dialer and the Handle it opens; the actual
// protocol (SMTP, SES) lives in the provider subpackages.
package mailx

import "context"

// Dialer opens a delivery handle for one job. Implementations decide what
// the TransportConfig means to them: the SMTP provider dials the
// caller-supplied host with the caller's credentials, the SES provider
// routes everything through a process-level client.
type Dialer interface {
	Open(ctx context.Context, cfg TransportConfig) (Handle, error)
}

// Handle is a job-scoped connection to the delivery endpoint. It is owned
// by exactly one job: opened before the first send, closed on every exit
// path once the job reaches a terminal state.
//
// Verify must be called before the first Send; a Verify failure is
// job-fatal. Send failures are scoped to a single recipient and never
// invalidate the handle for subsequent sends.
type Handle interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg Message) error
	Close() error
}
