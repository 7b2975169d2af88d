package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

const runTimeout = 2 * time.Minute

// Scheduler fires the morning and night briefs on cron specs with a seconds field
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	ownerID func() string
}

// NewScheduler validates both specs and registers the jobs. Call Start to run them.
func NewScheduler(service *Service, loc *time.Location, morningSpec, nightSpec string, ownerID func() string) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.NewWithLocation(loc),
		service: service,
		ownerID: ownerID,
	}

	jobs := []struct {
		kind Kind
		spec string
	}{
		{KindMorning, morningSpec},
		{KindNight, nightSpec},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		kind := job.kind
		if err := s.cron.AddFunc(job.spec, func() { s.run(kind) }); err != nil {
			return nil, fmt.Errorf("invalid %s digest schedule %q: %w", kind, job.spec, err)
		}
		log.Info().Str("kind", string(kind)).Str("spec", job.spec).Msg("[DigestScheduler] Registered")
	}
	return s, nil
}

// Start runs the cron loop in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop. Running jobs are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("[DigestScheduler] Stopped")
}

// Jobs returns the number of registered schedules
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) run(kind Kind) {
	userID := s.ownerID()
	if userID == "" {
		log.Warn().Str("kind", string(kind)).Msg("[DigestScheduler] No owner account, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := s.service.Send(ctx, userID, kind); err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("[DigestScheduler] Digest failed")
	}
}
