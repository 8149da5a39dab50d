package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFailer struct {
	calls  int32
	maxAge time.Duration
	n      int
	err    error
}

func (f *fakeFailer) FailStale(ctx context.Context, maxAge time.Duration) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	f.maxAge = maxAge
	return f.n, f.err
}

func TestSweeperRun(t *testing.T) {
	f := &fakeFailer{n: 2}
	s, err := New(f, Config{MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	if got := s.run(context.Background()); got != 2 {
		t.Fatalf("run() = %d, want 2", got)
	}
	if f.maxAge != time.Hour {
		t.Fatalf("maxAge = %v, want 1h", f.maxAge)
	}

	f.n, f.err = 1, errors.New("database is locked")
	if got := s.run(context.Background()); got != 1 {
		t.Fatalf("run() with error = %d, want partial count 1", got)
	}
}

func TestSweeperDefaults(t *testing.T) {
	s, err := New(&fakeFailer{}, Config{})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	if s.maxAge != 15*time.Minute {
		t.Fatalf("default maxAge = %v", s.maxAge)
	}
	if len(s.cron.Entries()) != 1 {
		t.Fatalf("expected one scheduled job")
	}
}

func TestSweeperInvalidSchedule(t *testing.T) {
	if _, err := New(&fakeFailer{}, Config{Schedule: "not a schedule"}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestSweeperStartStop(t *testing.T) {
	f := &fakeFailer{}
	s, err := New(f, Config{Schedule: "@every 1s"})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() err = %v", err)
	}
}
