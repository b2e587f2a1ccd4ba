package mailxsmtp

import (
	"context"
	"testing"

	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	mail "github.com/wneessen/go-mail"
)

func poolConfig() mailx.TransportConfig {
	return mailx.TransportConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "sender@example.com",
		Password:   "secret",
		SenderName: "Sender",
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	d := NewDialer(0)

	cfg := poolConfig()
	cfg.Host = ""
	if _, err := d.Open(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHandle_ReleaseAfterCloseDoesNotPark(t *testing.T) {
	d := NewDialer(2)
	opened, err := d.Open(context.Background(), poolConfig())
	if err != nil {
		t.Fatal(err)
	}
	h := opened.(*handle)

	// Simulate an in-flight connection: its slot is held while the
	// handle is closed underneath it.
	c, err := mail.NewClient("smtp.example.com", mail.WithPort(587))
	if err != nil {
		t.Fatal(err)
	}
	<-h.slots

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	h.release(c)

	select {
	case <-h.idle:
		t.Fatal("connection was parked in idle after close")
	default:
	}
	select {
	case <-h.slots:
	default:
		t.Fatal("slot was not returned on post-close release")
	}
}

func TestHandle_AcquireAfterClose(t *testing.T) {
	d := NewDialer(1)
	opened, err := d.Open(context.Background(), poolConfig())
	if err != nil {
		t.Fatal(err)
	}
	h := opened.(*handle)

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.acquire(context.Background()); err == nil {
		t.Fatal("acquire on a closed handle must fail")
	}
}

func TestHandle_CloseIsIdempotent(t *testing.T) {
	d := NewDialer(1)
	opened, err := d.Open(context.Background(), poolConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := opened.Close(); err != nil {
		t.Fatal(err)
	}
	if err := opened.Close(); err != nil {
		t.Fatal(err)
	}
}
