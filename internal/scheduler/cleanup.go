package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ild-thl/motbot-sub000/internal/logger"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

// Cleanup removes aged records on a cron schedule: terminal interventions
// past their retention and raw activity events past theirs.
type Cleanup struct {
	cron          *cron.Cron
	interventions repository.InterventionRepository
	events        repository.EventRepository
	log           *logger.Logger

	schedule              string
	interventionRetention int
	eventRetention        int
}

func NewCleanup(
	interventions repository.InterventionRepository,
	events repository.EventRepository,
	schedule string,
	interventionRetentionDays, eventRetentionDays int,
	log *logger.Logger,
) *Cleanup {
	return &Cleanup{
		cron:                  cron.New(),
		interventions:         interventions,
		events:                events,
		log:                   log.WithPrefix("cleanup"),
		schedule:              schedule,
		interventionRetention: interventionRetentionDays,
		eventRetention:        eventRetentionDays,
	}
}

func (c *Cleanup) Start() error {
	_, err := c.cron.AddFunc(c.schedule, func() {
		c.RunNow()
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info("Cleanup scheduler started (schedule: %s)", c.schedule)
	return nil
}

func (c *Cleanup) Stop() {
	c.cron.Stop()
	c.log.Info("Cleanup scheduler stopped")
}

func (c *Cleanup) RunNow() {
	start := time.Now()
	c.log.Debug("Starting scheduled cleanup...")

	if err := c.interventions.DeleteTerminalOlderThan(c.interventionRetention); err != nil {
		c.log.Error("Failed to clean up interventions: %v", err)
	}

	if err := c.events.DeleteOld(c.eventRetention); err != nil {
		c.log.Error("Failed to clean up events: %v", err)
	}

	c.log.Info("Cleanup finished in %v", time.Since(start))
}
