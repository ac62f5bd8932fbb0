package daemon

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestCronParse(t *testing.T) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse("@every 5m")
	if err != nil {
		t.Fatalf("failed to parse cron expression: %v", err)
	}

	now := time.Now()
	next1 := schedule.Next(now)
	next2 := schedule.Next(next1)

	if !next2.After(next1) {
		t.Fatalf("expected next2 to be after next1, got next1=%v next2=%v", next1, next2)
	}
}

func TestSchedulerScheduleStatus(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)

	if err := s.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	next, running := s.Status()
	if running {
		t.Fatalf("scheduler should not be running")
	}
	if next.IsZero() {
		t.Fatalf("next run should be set after scheduling")
	}

	if err := s.Schedule(""); err != nil {
		t.Fatalf("disabling schedule returned error: %v", err)
	}
	if next, _ := s.Status(); !next.IsZero() {
		t.Fatalf("next run should be cleared after disabling, got %v", next)
	}

	if err := s.Schedule("not a cron"); err == nil {
		t.Fatalf("expected error for invalid expression")
	}
}

func TestSchedulerSkip(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)

	if err := s.Skip(); err == nil {
		t.Fatalf("expected error when skipping without a schedule")
	}

	if err := s.Schedule("@every 10m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	orig, _ := s.Status()

	s.Start()
	defer s.Stop()

	if err := s.Skip(); err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	skipped, _ := s.Status()
	if !skipped.After(orig) {
		t.Fatalf("expected skip to move schedule forward, got %v <= %v", skipped, orig)
	}
}

func TestSchedulerRunCycle(t *testing.T) {
	taskCh := make(chan struct{}, 4)
	errCh := make(chan error, 4)

	task := func() error {
		taskCh <- struct{}{}
		return nil
	}

	onError := func(data any) {
		if err, ok := data.(error); ok {
			errCh <- err
		}
	}

	s := NewScheduler(task, onError)
	if err := s.Schedule("@every 1h"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-taskCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not execute in time")
	}

	// The next run is an hour away, not a catch-up of the forced one.
	next, _ := s.Status()
	if time.Until(next) < 30*time.Minute {
		t.Fatalf("next run too soon: %v", next)
	}

	select {
	case err := <-errCh:
		t.Fatalf("unexpected error callback: %v", err)
	default:
	}
}

func TestSchedulerTaskError(t *testing.T) {
	errCh := make(chan error, 1)
	var runs int32

	task := func() error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}

	onError := func(data any) {
		if err, ok := data.(error); ok {
			errCh <- err
		}
	}

	s := NewScheduler(task, onError)
	if err := s.Schedule("@every 1h"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case err := <-errCh:
		if err.Error() != "task failed: boom" {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected error callback from failed task")
	}

	if n := atomic.LoadInt32(&runs); n != 1 {
		t.Fatalf("expected exactly one run, got %d", n)
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{expr: "", wantErr: false},
		{expr: "@every 5m", wantErr: false},
		{expr: "0 */10 * * * *", wantErr: false},
		{expr: "*/10 * * * *", wantErr: false},
		{expr: "every five minutes", wantErr: true},
	}
	for _, tt := range tests {
		err := ValidateSchedule(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}
