// Package scheduler drives the outbox: on every tick it asks a
// BatchProcessor to flush pending messages, and it can be paused and
// resumed at runtime.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// BatchProcessor does the actual work on each tick.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) error
}

// Scheduler is the control surface exposed to the API.
// IsRunning reports whether ticks are accepted, not whether a batch is
// executing right now.
type Scheduler interface {
	Start() error
	Stop() error
	IsRunning() bool
}

const (
	DefaultInterval     = 30 * time.Second
	DefaultBatchTimeout = 30 * time.Second

	// controlTimeout bounds how long Start/Stop wait on the loop.
	controlTimeout = 2 * time.Second
)

var (
	ErrLoopUnresponsive = errors.New("scheduler: control loop not responding")
	ErrAckTimeout       = errors.New("scheduler: acknowledgement timeout")
)

type command int

const (
	cmdStart command = iota
	cmdStop
	cmdStatus
)

type request struct {
	cmd   command
	reply chan bool
}

// loopScheduler keeps all mutable state inside the loop goroutine.
type loopScheduler struct {
	proc         BatchProcessor
	interval     time.Duration
	batchTimeout time.Duration
	ctrl         chan request
	log          *zap.Logger
}

// New starts the control loop in the stopped state. Non-positive durations
// fall back to the defaults.
func New(proc BatchProcessor, interval, batchTimeout time.Duration, log *zap.Logger) Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &loopScheduler{
		proc:         proc,
		interval:     interval,
		batchTimeout: batchTimeout,
		ctrl:         make(chan request),
		log:          log.With(zap.String("component", "scheduler")),
	}
	go s.loop()
	return s
}

// Start resumes tick processing and waits for the loop to acknowledge.
func (s *loopScheduler) Start() error {
	return s.send(cmdStart)
}

// Stop pauses tick processing. A batch already running is allowed to finish
// (or hit its timeout) before Stop returns.
func (s *loopScheduler) Stop() error {
	return s.send(cmdStop)
}

func (s *loopScheduler) IsRunning() bool {
	reply := make(chan bool, 1)
	s.ctrl <- request{cmd: cmdStatus, reply: reply}
	return <-reply
}

func (s *loopScheduler) send(cmd command) error {
	reply := make(chan bool, 1)

	select {
	case s.ctrl <- request{cmd: cmd, reply: reply}:
	case <-time.After(controlTimeout):
		return ErrLoopUnresponsive
	}

	// Stop may wait for a batch, which is itself bounded by batchTimeout.
	wait := controlTimeout
	if cmd == cmdStop {
		wait += s.batchTimeout
	}

	select {
	case <-reply:
		return nil
	case <-time.After(wait):
		return ErrAckTimeout
	}
}

func (s *loopScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var (
		running bool
		inBatch bool
		// Stop requests that arrived mid-batch, answered when it ends.
		pendingStops []chan bool
	)

	batchDone := make(chan error, 1)

	for {
		select {
		case req := <-s.ctrl:
			switch req.cmd {
			case cmdStart:
				if !running {
					s.log.Info("started",
						zap.Duration("interval", s.interval),
						zap.Duration("batch_timeout", s.batchTimeout))
				}
				running = true
				req.reply <- true

			case cmdStop:
				if running {
					s.log.Info("stop requested")
				}
				running = false
				if inBatch {
					pendingStops = append(pendingStops, req.reply)
				} else {
					req.reply <- true
				}

			case cmdStatus:
				req.reply <- running
			}

		case <-ticker.C:
			if !running || inBatch {
				continue
			}
			inBatch = true
			s.log.Debug("triggering batch")

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)
				defer cancel()
				batchDone <- s.proc.ProcessBatch(ctx)
			}()

		case err := <-batchDone:
			inBatch = false
			if err != nil {
				s.log.Error("batch failed", zap.Error(err))
			} else {
				s.log.Debug("batch completed")
			}

			for _, reply := range pendingStops {
				reply <- true
			}
			if len(pendingStops) > 0 {
				s.log.Info("stopped")
			}
			pendingStops = nil
		}
	}
}
