// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"micro-missions/services"

	"github.com/go-co-op/gocron/v2"
)

const jobTimeout = 2 * time.Minute

// MissionScheduler runs the periodic housekeeping around the engine: expiry
// flagging, the nightly streak sweep and daily mission seeding. All schedules
// are in UTC.
type MissionScheduler struct {
	sched   gocron.Scheduler
	gateway *services.MissionGateway
	seed    bool
	ctx     context.Context
}

func NewMissionScheduler(ctx context.Context, gateway *services.MissionGateway, seedDaily bool) (*MissionScheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s := &MissionScheduler{sched: sched, gateway: gateway, seed: seedDaily, ctx: ctx}

	// Every minute: flip is_active on expired missions
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(s.expireMissions),
		gocron.WithName("expire-missions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule expiry job: %w", err)
	}

	// 23:59 UTC: break streaks that missed a day
	if _, err := sched.NewJob(
		gocron.CronJob("59 23 * * *", false),
		gocron.NewTask(s.sweepStreaks),
		gocron.WithName("sweep-streaks"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule streak sweep: %w", err)
	}

	if seedDaily {
		// 00:00 UTC: publish the new day's missions
		if _, err := sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
			gocron.NewTask(s.seedMissions),
			gocron.WithName("seed-missions"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("failed to schedule mission seeding: %w", err)
		}
	}
	return s, nil
}

// Start seeds today's missions (when enabled) and starts the scheduler.
func (s *MissionScheduler) Start() {
	if s.seed {
		s.seedMissions()
	}
	s.sched.Start()
	log.Printf("[Scheduler] started with %d jobs", len(s.sched.Jobs()))
}

func (s *MissionScheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// JobNames lists the registered jobs.
func (s *MissionScheduler) JobNames() []string {
	jobs := s.sched.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *MissionScheduler) expireMissions() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	n, err := s.gateway.Catalog.ExpireMissions(ctx)
	if err != nil {
		log.Printf("[Scheduler] mission expiry failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Scheduler] ⏰ deactivated %d expired missions", n)
	}
}

func (s *MissionScheduler) sweepStreaks() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	n, err := s.gateway.Streaks.BreakStaleStreaks(ctx)
	if err != nil {
		log.Printf("[Scheduler] streak sweep failed: %v", err)
		return
	}
	log.Printf("[Scheduler] 🔥 streak sweep reset %d streaks", n)
}

func (s *MissionScheduler) seedMissions() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	missions, err := s.gateway.Catalog.SeedDailyMissions(ctx, s.gateway.Catalog.Now())
	if err != nil {
		log.Printf("[Scheduler] mission seeding failed: %v", err)
		return
	}
	log.Printf("[Scheduler] ✅ %d missions live for today", len(missions))
}
