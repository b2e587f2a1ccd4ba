// Package mailxsmtp is the primary mailx provider: it dials the SMTP host
// named in the job's TransportConfig with the job's own credentials. A
// handle owns a small pool of persistent connections so sequential sends
// do not renegotiate per message.
package mailxsmtp

import (
	"bytes"
	"context"
	"sync"

	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	mail "github.com/wneessen/go-mail"
)

const defaultMaxConns = 5

// Dialer opens pooled SMTP handles.
type Dialer struct {
	maxConns int
}

// NewDialer creates an SMTP dialer. maxConns caps the pooled connections
// per handle; values below 1 fall back to the default of 5.
func NewDialer(maxConns int) *Dialer {
	if maxConns < 1 {
		maxConns = defaultMaxConns
	}
	return &Dialer{maxConns: maxConns}
}

// Open validates the config and returns an undialed handle. The first
// connection is established by Verify.
func (d *Dialer) Open(ctx context.Context, cfg mailx.TransportConfig) (mailx.Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &handle{
		cfg:   cfg,
		idle:  make(chan *mail.Client, d.maxConns),
		slots: make(chan struct{}, d.maxConns),
	}
	for range d.maxConns {
		h.slots <- struct{}{}
	}
	return h, nil
}

// handle pools up to maxConns lazily-dialed clients. A client that fails a
// send is discarded so the next acquire re-dials; the per-recipient error
// still surfaces to the caller.
type handle struct {
	cfg   mailx.TransportConfig
	idle  chan *mail.Client
	slots chan struct{}

	mu     sync.Mutex
	closed bool
}

// Verify establishes and authenticates the first pooled connection. The
// dialed client is kept for reuse by the first send.
func (h *handle) Verify(ctx context.Context) error {
	c, err := h.acquire(ctx)
	if err != nil {
		return smtpErrors.NewWithCause(ErrVerifyFailed, err).
			WithDetail("host", h.cfg.Host)
	}
	h.release(c)
	return nil
}

// Send delivers one message on a pooled connection.
func (h *handle) Send(ctx context.Context, msg mailx.Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	c, err := h.acquire(ctx)
	if err != nil {
		return err
	}

	if err := c.Send(m); err != nil {
		h.discard(c)
		return smtpErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To)
	}

	h.release(c)
	return nil
}

// Close tears down every pooled connection. Safe to call on any exit path.
// The drain runs under the handle lock so it cannot interleave with a
// concurrent release.
func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for {
		select {
		case c := <-h.idle:
			_ = c.Close()
		default:
			return nil
		}
	}
}

func (h *handle) acquire(ctx context.Context) (*mail.Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, smtpErrors.New(ErrHandleClosed)
	}
	h.mu.Unlock()

	select {
	case c := <-h.idle:
		return c, nil
	default:
	}

	select {
	case c := <-h.idle:
		return c, nil
	case <-h.slots:
		c, err := h.dial(ctx)
		if err != nil {
			h.slots <- struct{}{}
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *handle) release(c *mail.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// The idle drain has already run; parking now would leak the
		// connection.
		_ = c.Close()
		h.slots <- struct{}{}
		return
	}

	select {
	case h.idle <- c:
	default:
		// Pool full; drop the surplus connection.
		_ = c.Close()
		h.slots <- struct{}{}
	}
}

func (h *handle) discard(c *mail.Client) {
	_ = c.Close()
	h.slots <- struct{}{}
}

func (h *handle) dial(ctx context.Context) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(h.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(h.cfg.Username),
		mail.WithPassword(h.cfg.Password),
	}
	if h.cfg.ImplicitTLS() {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(h.cfg.Host, opts...)
	if err != nil {
		return nil, smtpErrors.NewWithCause(ErrConnectFailed, err).
			WithDetail("host", h.cfg.Host)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return nil, smtpErrors.NewWithCause(ErrConnectFailed, err).
			WithDetail("host", h.cfg.Host).
			WithDetail("port", h.cfg.Port)
	}
	return c, nil
}

func buildMsg(msg mailx.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.From); err != nil {
		return nil, smtpErrors.NewWithCause(ErrBuildMessage, err).
			WithDetail("from", msg.From)
	}
	if err := m.To(msg.To); err != nil {
		return nil, smtpErrors.NewWithCause(ErrBuildMessage, err).
			WithDetail("to", msg.To)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	for _, a := range msg.Attachments {
		var fileOpts []mail.FileOption
		if a.ContentType != "" {
			fileOpts = append(fileOpts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), fileOpts...); err != nil {
			return nil, smtpErrors.NewWithCause(ErrBuildMessage, err).
				WithDetail("attachment", a.Filename)
		}
	}
	return m, nil
}
