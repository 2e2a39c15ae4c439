package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Evicter unmounts idle widgets and reports how many went away.
type Evicter interface {
	EvictIdle() int
}

// Janitor periodically unmounts widgets whose clients went away.
type Janitor struct {
	scheduler *gocron.Scheduler
	evicter   Evicter
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Janitor.
func New(interval time.Duration, evicter Evicter, logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Janitor{
		scheduler: s,
		evicter:   evicter,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the eviction job and starts the underlying scheduler.
func (j *Janitor) Start() error {
	seconds := int(j.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := j.scheduler.Every(seconds).Seconds().Do(j.run)
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	j.logger.Debug("janitor started", zap.Int("everySeconds", seconds))
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

func (j *Janitor) run() {
	n := j.evicter.EvictIdle()
	j.logger.Debug("janitor run completed", zap.Int("evicted", n))
}
