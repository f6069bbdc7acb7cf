package advice

import (
	"fmt"
	"log"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

// defaultTargets are the target bindings installed by LoadDefaults. The
// feedback strategy carries no bindings: it is universal and appended after
// every target-specific group.
var defaultTargets = map[string][]string{
	NameRecommendedDiscussion: {target.LowSocialPresence},
	NameRecentForumActivity:   {target.LowSocialPresence},
	NameRecentActivities:      {target.CourseDropout},
	NameUpcomingActivitiesDue: {target.UpcomingActivitiesDue},
	NameVisitCourse:           {target.NoRecentAccesses, target.CourseDropout},
	NameFeedback:              {},
}

// Catalog maps strategy names to builders and overlays the persisted
// enablement state administrators manage.
type Catalog struct {
	builders map[string]Builder
	order    []string
	repo     repository.AdviceRepository
}

func NewCatalog(repo repository.AdviceRepository) *Catalog {
	c := &Catalog{
		builders: make(map[string]Builder),
		repo:     repo,
	}

	c.register(NameRecommendedDiscussion, buildRecommendedDiscussion)
	c.register(NameRecentForumActivity, buildRecentForumActivity)
	c.register(NameRecentActivities, buildRecentActivities)
	c.register(NameUpcomingActivitiesDue, buildUpcomingActivitiesDue)
	c.register(NameVisitCourse, buildVisitCourse)
	c.register(NameFeedback, buildFeedback)

	return c
}

func (c *Catalog) register(name string, builder Builder) {
	c.builders[name] = builder
	c.order = append(c.order, name)
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

func (c *Catalog) Known(name string) bool {
	_, ok := c.builders[name]
	return ok
}

// Build runs the named strategy. ErrNotApplicable passes through untouched
// so callers can treat it as a skip.
func (c *Catalog) Build(name string, ctx *BuildContext) (*Suggestion, error) {
	builder, ok := c.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown advice strategy: %s", name)
	}
	return builder(ctx)
}

// Allowed reports whether the strategy may serve the target. A strategy
// without a record keeps its compiled-in behavior, so a fresh install
// advises before the defaults have been loaded. A record gates by its
// Enabled flag and, when it carries target bindings, by membership of
// targetName in them; a record without bindings imposes no restriction.
// An empty targetName skips the binding check (advice-on-demand from chat
// is not tied to any target).
func (c *Catalog) Allowed(name, targetName string) (bool, error) {
	record, err := c.repo.GetByName(name)
	if err != nil {
		return false, err
	}
	if record == nil {
		return c.Known(name), nil
	}
	if !record.Enabled {
		return false, nil
	}
	if targetName == "" || len(record.Targets) == 0 {
		return true, nil
	}
	return record.AppliesTo(targetName), nil
}

// LoadDefaults creates an Advice record with default target bindings for
// every registered strategy missing one. Existing records are left alone so
// administrator edits survive a reload.
func (c *Catalog) LoadDefaults() (int, error) {
	created := 0

	for _, name := range c.order {
		existing, err := c.repo.GetByName(name)
		if err != nil {
			return created, fmt.Errorf("failed to look up advice %s: %w", name, err)
		}
		if existing != nil {
			continue
		}

		record := &models.Advice{
			Name:    name,
			Targets: models.StringArray(defaultTargets[name]),
			Enabled: true,
			Version: 1,
		}
		if err := c.repo.Create(record); err != nil {
			return created, fmt.Errorf("failed to create advice %s: %w", name, err)
		}
		created++
	}

	if created > 0 {
		log.Printf("Loaded %d default advice records", created)
	}

	return created, nil
}
