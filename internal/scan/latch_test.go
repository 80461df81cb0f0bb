package scan

import (
	"context"
	"testing"
	"time"
)

// waitFor polls cond until it holds or two seconds pass
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLatchTransitions(t *testing.T) {
	l := NewLatch(0)
	if l.State() != Idle {
		t.Fatalf("new latch state = %s", l.State())
	}
	if !l.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if l.TryAcquire() {
		t.Fatal("second TryAcquire should fail while submitting")
	}
	l.Release()
	if l.State() != Idle {
		t.Errorf("state after release = %s, want idle", l.State())
	}

	// Release without a submission is ignored
	l.Release()
	if l.State() != Idle {
		t.Errorf("stray release changed state to %s", l.State())
	}
}

func TestLatchCooldown(t *testing.T) {
	l := NewLatch(30 * time.Millisecond)
	l.TryAcquire()
	l.Release()
	if l.State() != Cooldown {
		t.Fatalf("state after release = %s, want cooldown", l.State())
	}
	if l.TryAcquire() {
		t.Fatal("TryAcquire should fail during cooldown")
	}
	waitFor(t, "cooldown to end", func() bool { return l.State() == Idle })
	if !l.TryAcquire() {
		t.Error("TryAcquire should succeed after cooldown")
	}
}

func TestStationBusy(t *testing.T) {
	s := NewStation(0)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Outcome)
	go func() {
		out, _ := s.Do(ctx, "T1", ControlOutward, func(context.Context) Outcome {
			close(entered)
			<-release
			return success("ok", nil)
		})
		done <- out
	}()
	<-entered

	if _, err := s.Do(ctx, "T1", ControlOutward, func(context.Context) Outcome { return success("second", nil) }); err != ErrBusy {
		t.Errorf("same control: err = %v, want ErrBusy", err)
	}
	if _, err := s.Do(ctx, "T2", ControlOutward, func(context.Context) Outcome { return success("other", nil) }); err != nil {
		t.Errorf("other terminal: %v", err)
	}
	if _, err := s.Do(ctx, "T1", ControlPutaway, func(context.Context) Outcome { return success("other", nil) }); err != nil {
		t.Errorf("other control: %v", err)
	}

	close(release)
	if out := <-done; !out.OK {
		t.Errorf("first scan outcome = %+v", out)
	}
	if _, err := s.Do(ctx, "T1", ControlOutward, func(context.Context) Outcome { return success("again", nil) }); err != nil {
		t.Errorf("after release: %v", err)
	}
	if s.Latch("T1", ControlOutward) != s.Latch("T1", ControlOutward) {
		t.Error("a terminal/control pair should keep one latch")
	}
}
