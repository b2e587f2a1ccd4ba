package asyncx_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/bulkmailer/pkg/asyncx"
)

func TestRunAwait(t *testing.T) {
	f := asyncx.Run(func() (int, error) {
		return 42, nil
	})

	v, err := f.Await()
	if err != nil || v != 42 {
		t.Fatalf("expected 42, got %d (%v)", v, err)
	}

	// Await is repeatable.
	v, _ = f.Await()
	if v != 42 {
		t.Fatalf("second await returned %d", v)
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	recovered := make(chan any, 1)

	asyncx.Go("test.unit", func() {
		panic("boom")
	}, func(r any) {
		recovered <- r
	})

	select {
	case r := <-recovered:
		if r != "boom" {
			t.Fatalf("unexpected recovered value: %v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("panic was never reported")
	}
}

func TestGo_NoPanicNoCallback(t *testing.T) {
	done := make(chan struct{})
	called := make(chan any, 1)

	asyncx.Go("test.unit", func() {
		close(done)
	}, func(r any) {
		called <- r
	})

	<-done
	select {
	case r := <-called:
		t.Fatalf("onPanic fired without a panic: %v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPanicError(t *testing.T) {
	cause := errors.New("original")
	if got := asyncx.PanicError(cause); !errors.Is(got, cause) {
		t.Fatalf("error panic values must pass through, got %v", got)
	}

	got := asyncx.PanicError("boom")
	if got == nil || got.Error() != "panic: boom" {
		t.Fatalf("unexpected conversion: %v", got)
	}
}
