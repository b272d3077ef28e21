package monocurl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGateInterruptsRunningWriter(t *testing.T) {
	gate := &Gate{}
	engine := MustNewEngine(Config{Interrupter: gate})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- gate.Do(func() error {
			close(started)
			_, err := engine.ExecString(context.Background(), "var x = 0\nwhile 1\n\tx += 1")
			return err
		})
	}()

	<-started
	ran := false
	if err := gate.Do(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("do: %v", err)
	}
	if !ran {
		t.Fatalf("expected queued writer to run")
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("expected interruption, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if gate.Requested() {
		t.Fatalf("expected no pending writers")
	}
}

func TestGateViewBetweenFrames(t *testing.T) {
	gate := &Gate{}
	frames := make(chan struct{}, 1)
	engine := MustNewEngine(Config{
		Interrupter: gate,
		FrameRate:   4,
		FrameHook: func(Frame) error {
			select {
			case frames <- struct{}{}:
			default:
			}
			return nil
		},
	})

	done := make(chan error, 1)
	go func() {
		done <- gate.Do(func() error {
			_, err := engine.ExecString(context.Background(), "var t = 0\nplay wait(1000)")
			return err
		})
	}()

	<-frames
	var state State
	gate.View(func() {
		state = engine.State()
	})
	if state != StateAnimation {
		t.Fatalf("expected to observe the animation state, got %s", state)
	}

	if err := gate.Do(func() error { return nil }); err != nil {
		t.Fatalf("do: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("expected interruption, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("player did not stop")
	}
}

func TestGateViewWhileIdle(t *testing.T) {
	gate := &Gate{}
	called := false
	gate.View(func() { called = true })
	if !called {
		t.Fatalf("expected view to run")
	}
}
