// Package scheduler runs the periodic jobs of the service: dispatching
// scheduled interventions inside their recipients' delivery windows and
// cleaning up aged records.
package scheduler

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ild-thl/motbot-sub000/internal/intervention"
	"github.com/ild-thl/motbot-sub000/internal/logger"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

// dispatchBatchSize caps how many scheduled interventions one run picks up.
const dispatchBatchSize = 500

type Dispatcher struct {
	cron          *cron.Cron
	service       *intervention.Service
	interventions repository.InterventionRepository
	prefs         repository.UserPreferencesRepository
	users         repository.UserRepository
	schedule      string
	log           *logger.Logger

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewDispatcher(
	service *intervention.Service,
	interventions repository.InterventionRepository,
	prefs repository.UserPreferencesRepository,
	users repository.UserRepository,
	schedule string,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		cron:          cron.New(),
		service:       service,
		interventions: interventions,
		prefs:         prefs,
		users:         users,
		schedule:      schedule,
		log:           log.WithPrefix("dispatcher"),
		now:           time.Now,
	}
}

func (d *Dispatcher) Start() error {
	_, err := d.cron.AddFunc(d.schedule, func() {
		if err := d.RunNow(); err != nil {
			d.log.Error("Dispatch run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	d.cron.Start()
	d.log.Info("Intervention dispatcher started (schedule: %s)", d.schedule)
	return nil
}

func (d *Dispatcher) Stop() {
	d.cron.Stop()
	d.log.Info("Intervention dispatcher stopped")
}

// RunNow processes every scheduled intervention whose recipient is inside
// their delivery window. Delivery failures are logged and left scheduled
// for the next run.
func (d *Dispatcher) RunNow() error {
	scheduled, err := d.interventions.ListByState(models.InterventionStateScheduled, dispatchBatchSize)
	if err != nil {
		return err
	}
	if len(scheduled) == 0 {
		return nil
	}

	now := d.now()
	processed, deferred, failed := 0, 0, 0

	for _, item := range scheduled {
		recipient, err := d.loadRecipient(item)
		if err != nil {
			d.log.Warn("Skipping intervention %d: %v", item.ID, err)
			failed++
			continue
		}

		prefs, err := d.prefs.GetOrCreate(item.RecipientID)
		if err != nil {
			d.log.Warn("Skipping intervention %d: %v", item.ID, err)
			failed++
			continue
		}

		hour := ResolvePreferredHour(prefs, recipient)
		if !InWindow(now, hour, prefs.OnlyWeekdays) {
			deferred++
			continue
		}

		if err := d.service.Process(item); err != nil {
			if errors.Is(err, intervention.ErrDelivery) {
				d.log.Warn("Delivery of intervention %d failed, retrying next run: %v", item.ID, err)
			} else {
				d.log.Error("Failed to process intervention %d: %v", item.ID, err)
			}
			failed++
			continue
		}
		processed++
	}

	d.log.Info("Dispatch run: %d processed, %d outside window, %d failed", processed, deferred, failed)
	return nil
}

func (d *Dispatcher) loadRecipient(item *models.Intervention) (*models.User, error) {
	if item.Recipient.ID != 0 {
		return &item.Recipient, nil
	}

	user, err := d.users.GetByID(item.RecipientID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("recipient no longer exists")
	}
	return user, nil
}
