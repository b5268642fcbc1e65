package jobcontrol

import (
	"context"
	"sync"

	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/types"
	"github.com/robfig/cron/v3"
)

// Scheduler reads every job type's persisted cron expression and fires
// Plane.Trigger on each tick, skipping job types whose schedule is
// disabled. It registers the full entry set at Start and rebuilds it
// whenever a schedule is updated while running.
type Scheduler struct {
	plane *Plane

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[types.JobType]cron.EntryID
}

func NewScheduler(plane *Plane) *Scheduler {
	return &Scheduler{
		plane:   plane,
		entries: make(map[types.JobType]cron.EntryID),
	}
}

// Start loads the persisted schedule rows and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron = cron.New()
	schedules, err := s.plane.ListSchedules(ctx)
	if err != nil {
		return err
	}
	for _, sched := range schedules {
		s.registerLocked(sched)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Reload re-registers one job type's cron entry after its schedule
// changes, so an operator toggling a schedule on or off, or editing
// its cron expression, takes effect without a process restart.
func (s *Scheduler) Reload(ctx context.Context, jt types.JobType) error {
	sched, err := s.plane.store.GetJobSchedule(ctx, jt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[jt]; ok {
		s.cron.Remove(id)
		delete(s.entries, jt)
	}
	s.registerLocked(sched)
	return nil
}

func (s *Scheduler) registerLocked(sched *types.JobSchedule) {
	if !sched.Enabled || sched.CronExpression == nil || *sched.CronExpression == "" {
		return
	}
	jt := sched.JobType
	id, err := s.cron.AddFunc(*sched.CronExpression, func() {
		if _, err := s.plane.Trigger(context.Background(), jt, nil); err != nil {
			log.Logger.Warn().Err(err).Str("job_type", string(jt)).Msg("scheduled job trigger skipped")
		}
	})
	if err != nil {
		log.Logger.Error().Err(err).Str("job_type", string(jt)).Str("cron", *sched.CronExpression).Msg("invalid cron expression, schedule not registered")
		return
	}
	s.entries[jt] = id
}
