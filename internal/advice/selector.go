package advice

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

// universalAdvice is appended after every target-specific group, subject to
// the same enablement and per-course checks.
var universalAdvice = []string{NameFeedback}

// Selector picks and builds the advice for a target and recipient.
type Selector struct {
	catalog  *Catalog
	targets  *target.Registry
	settings repository.CourseSettingsRepository

	// pick indexes into a candidate slice; swapped out in tests.
	pick func(n int) int
}

func NewSelector(catalog *Catalog, targets *target.Registry, settings repository.CourseSettingsRepository) *Selector {
	return &Selector{
		catalog:  catalog,
		targets:  targets,
		settings: settings,
		pick:     rand.Intn,
	}
}

// Select builds the suggestions for one target. Exclusive groups keep only
// the first applicable strategy; additive groups keep every applicable one.
// Returns ErrNoAdvice when nothing at all applied.
func (s *Selector) Select(targetName string, ctx *BuildContext) ([]*Suggestion, error) {
	def, ok := s.targets.Get(targetName)
	if !ok {
		return nil, fmt.Errorf("unknown target: %s", targetName)
	}

	disabled, err := s.disabledFor(ctx)
	if err != nil {
		return nil, err
	}

	var suggestions []*Suggestion

	for _, group := range def.AdviceGroups {
		for _, name := range group.Names {
			suggestion, err := s.try(name, targetName, ctx, disabled)
			if err != nil {
				return nil, err
			}
			if suggestion == nil {
				continue
			}

			suggestions = append(suggestions, suggestion)
			if group.Exclusive {
				break
			}
		}
	}

	for _, name := range universalAdvice {
		suggestion, err := s.try(name, targetName, ctx, disabled)
		if err != nil {
			return nil, err
		}
		if suggestion != nil {
			suggestions = append(suggestions, suggestion)
		}
	}

	if len(suggestions) == 0 {
		return nil, ErrNoAdvice
	}

	return suggestions, nil
}

// SelectRandom builds every currently applicable suggestion across all
// targets and returns one of them at random. Used for advice-on-demand
// from chat, independent of any pending intervention.
func (s *Selector) SelectRandom(ctx *BuildContext) (*Suggestion, error) {
	disabled, err := s.disabledFor(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []*Suggestion

	appendCandidate := func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true

		suggestion, err := s.try(name, "", ctx, disabled)
		if err != nil {
			return err
		}
		if suggestion != nil {
			candidates = append(candidates, suggestion)
		}
		return nil
	}

	for _, targetName := range s.targets.Names() {
		def, _ := s.targets.Get(targetName)
		for _, group := range def.AdviceGroups {
			for _, name := range group.Names {
				if err := appendCandidate(name); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, name := range universalAdvice {
		if err := appendCandidate(name); err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoAdvice
	}

	return candidates[s.pick(len(candidates))], nil
}

// try builds one strategy, returning nil (no error) when the strategy is
// disabled, not bound to the target, or not applicable.
func (s *Selector) try(name, targetName string, ctx *BuildContext, disabled models.StringArray) (*Suggestion, error) {
	if disabled.Contains(name) {
		return nil, nil
	}

	allowed, err := s.catalog.Allowed(name, targetName)
	if err != nil {
		return nil, fmt.Errorf("failed to check advice enablement: %w", err)
	}
	if !allowed {
		return nil, nil
	}

	suggestion, err := s.catalog.Build(name, ctx)
	if err != nil {
		if errors.Is(err, ErrNotApplicable) {
			return nil, nil
		}
		return nil, err
	}

	return suggestion, nil
}

func (s *Selector) disabledFor(ctx *BuildContext) (models.StringArray, error) {
	if ctx.Course == nil || ctx.Recipient == nil || s.settings == nil {
		return nil, nil
	}

	settings, err := s.settings.GetByUserAndCourse(ctx.Recipient.ID, ctx.Course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course settings: %w", err)
	}
	if settings == nil {
		return nil, nil
	}

	return settings.DisabledAdvice, nil
}
