package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type NotifyFunc func(data any)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs a task on a cron schedule. Runs never overlap: a run that
// comes due while the previous one is still going is skipped.
type Scheduler struct {
	OnError NotifyFunc // called on task error
	Task    TaskFunc   // task callback

	parser cron.Parser

	schedule cron.Schedule
	nextRun  time.Time

	mu      sync.Mutex
	running bool
	busy    bool

	controlCh chan controlMsg
	stopCh    chan struct{}
}

// internal control kinds (not user visible events)
type controlKind int

const (
	ctrlRecalculate controlKind = iota // timer needs recalculation due to schedule change
	ctrlSkip                           // next run skipped
	ctrlDisable                        // schedule removed
)

type controlMsg struct {
	kind controlKind
	data any
}

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr is accepted by Scheduler.Schedule.
// An empty expression is valid and disables the schedule.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := scheduleParser.Parse(expr)
	return err
}

func NewScheduler(task TaskFunc, onError NotifyFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	s := &Scheduler{
		OnError:   onError,
		Task:      task,
		parser:    scheduleParser,
		controlCh: make(chan controlMsg, 4),
		stopCh:    make(chan struct{}),
	}
	return s
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.runScheduled()
}

// Schedule sets the cron expression. An empty expression disables the
// schedule until the next call.
func (s *Scheduler) Schedule(cronExpr string) error {
	var sh cron.Schedule
	if cronExpr != "" {
		var err error
		sh, err = s.parser.Parse(cronExpr)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	running := s.running
	if !running {
		s.schedule = sh
		s.nextRun = time.Time{}
		if sh != nil {
			s.nextRun = sh.Next(time.Now())
		}
	}
	s.mu.Unlock()

	if running {
		if sh == nil {
			s.trySendControl(ctrlDisable, nil)
		} else {
			s.trySendControl(ctrlRecalculate, sh)
		}
	}
	return nil
}

// Skip skips the next scheduled run.
func (s *Scheduler) Skip() error {
	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() {
		s.mu.Unlock()
		return fmt.Errorf("no active schedule to skip")
	}
	s.nextRun = s.schedule.Next(s.nextRun)
	running := s.running
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlSkip, nil)
	}
	return nil
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextRun = s.nextRun
	running = s.running
	return
}

func (s *Scheduler) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		schedule, nextRun := s.snapshot()
		var timer *time.Timer
		if schedule == nil || nextRun.IsZero() {
			timer = time.NewTimer(time.Hour * 10000)
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		select {
		case <-timer.C:
			if schedule == nil || nextRun.IsZero() {
				continue
			}

			logrus.Debugf("running scheduled task at %s", nextRun.Format(time.DateTime))
			s.advanceNextRun()
			s.runTask()
		case <-s.stopCh:
			timer.Stop()
			return
		case msg := <-s.controlCh: // internal control messages
			timer.Stop()
			logrus.WithFields(logrus.Fields{
				"kind": msg.kind,
				"data": msg.data,
			}).Debug("received control msg")

			switch msg.kind {
			case ctrlRecalculate:
				sh := msg.data.(cron.Schedule)
				s.mu.Lock()
				s.schedule = sh
				s.nextRun = sh.Next(time.Now())
				s.mu.Unlock()
			case ctrlDisable:
				s.mu.Lock()
				s.schedule = nil
				s.nextRun = time.Time{}
				s.mu.Unlock()
			case ctrlSkip:
				// nextRun was already advanced by Skip.
			}
		}
	}
}

func (s *Scheduler) runTask() {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		logrus.Warn("previous scheduled task is still running, skipping this run")
		return
	}
	s.busy = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()
		if err := s.Task(); err != nil {
			s.sendError(fmt.Errorf("task failed: %v", err))
		}
	}()
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	next := s.schedule.Next(s.nextRun)
	// Do not try to catch up on runs missed while the system was asleep.
	if now := time.Now(); next.Before(now) {
		next = s.schedule.Next(now)
	}
	s.nextRun = next
}

func (s *Scheduler) sendError(err error) {
	if s.OnError == nil {
		return
	}

	go s.OnError(err)
}

func (s *Scheduler) trySendControl(kind controlKind, data any) {
	select {
	case s.controlCh <- controlMsg{kind: kind, data: data}:
	default:
	}
}
