package refresher

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a job on a fixed interval until stopped
type Scheduler interface {
	Start(interval time.Duration, job func())
	Stop()
}

// CronScheduler runs jobs on a robfig/cron instance. Jobs never overlap:
// a tick that fires while the previous one is still running is skipped.
type CronScheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
}

// NewCronScheduler creates an idle scheduler
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{}
}

// Start schedules job every interval, replacing any previous schedule.
// cron only resolves whole seconds, so shorter intervals run every second.
func (s *CronScheduler) Start(interval time.Duration, job func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(interval), cron.FuncJob(job))
	c.Start()
	s.cron = c
}

// Stop cancels the schedule. A job that is already running is left to finish
// on its own; it may be the caller.
func (s *CronScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}
