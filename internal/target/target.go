// Package target holds the static definitions of the risk categories
// predictions are made against. Dispatch goes through a registry built at
// startup; the target name is the stable wire and storage identifier.
package target

import (
	"github.com/ild-thl/motbot-sub000/internal/models"
)

// Sample spaces a predictor may address.
const (
	SampleSpaceUser      = "user"      // sample id is a user id
	SampleSpaceEnrolment = "enrolment" // sample id is a course_members id
)

// Delivery modes for scheduled interventions.
const (
	DeliveryAuto  = "auto"  // dispatcher sends the message
	DeliveryStore = "store" // intervention is computed and retained only
)

const (
	NoRecentAccesses      = "no_recent_accesses"
	LowSocialPresence     = "low_social_presence"
	CourseDropout         = "course_dropout"
	UpcomingActivitiesDue = "upcoming_activities_due"
)

// AdviceGroup is one step of a target's advice chain. In an exclusive group
// only the first applicable strategy is used; in an additive group every
// applicable strategy contributes.
type AdviceGroup struct {
	Exclusive bool
	Names     []string
}

type Definition struct {
	Name          string
	Title         string
	DesiredEvents []string
	Critical      bool
	SampleSpace   string
	Delivery      string

	// ActionableClasses lists the predicted classes that warrant an
	// intervention. Nil means every prediction is actionable (binary
	// targets with a single outcome deliver a nil prediction).
	ActionableClasses []int

	AdviceGroups []AdviceGroup
}

func (d *Definition) Actionable(class *int) bool {
	if d.ActionableClasses == nil {
		return true
	}
	if class == nil {
		return false
	}
	for _, c := range d.ActionableClasses {
		if c == *class {
			return true
		}
	}
	return false
}

type Registry struct {
	defs  map[string]*Definition
	order []string
}

// Register adds a definition; a later registration with the same name
// replaces the earlier one.
func (r *Registry) Register(def *Definition) {
	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// NewRegistry builds the registry of supported targets.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]*Definition)}

	r.Register(&Definition{
		Name:              NoRecentAccesses,
		Title:             "No recent accesses",
		DesiredEvents:     []string{models.EventCourseViewed},
		Critical:          true,
		SampleSpace:       SampleSpaceUser,
		Delivery:          DeliveryAuto,
		ActionableClasses: []int{1},
		AdviceGroups: []AdviceGroup{
			{Names: []string{"visit_course"}},
		},
	})

	r.Register(&Definition{
		Name:              LowSocialPresence,
		Title:             "Low social presence",
		DesiredEvents:     []string{models.EventForumPostCreated},
		SampleSpace:       SampleSpaceUser,
		Delivery:          DeliveryAuto,
		ActionableClasses: []int{1},
		AdviceGroups: []AdviceGroup{
			{Exclusive: true, Names: []string{"recommended_discussion", "recent_forum_activity"}},
		},
	})

	r.Register(&Definition{
		Name:              CourseDropout,
		Title:             "Risk of dropping out",
		DesiredEvents:     []string{models.EventCourseViewed, models.EventForumPostCreated},
		Critical:          true,
		SampleSpace:       SampleSpaceEnrolment,
		Delivery:          DeliveryAuto,
		ActionableClasses: []int{1},
		AdviceGroups: []AdviceGroup{
			{Names: []string{"recent_activities", "visit_course"}},
		},
	})

	r.Register(&Definition{
		Name:          UpcomingActivitiesDue,
		Title:         "Upcoming activities due",
		DesiredEvents: []string{models.EventModuleViewed},
		SampleSpace:   SampleSpaceUser,
		Delivery:      DeliveryStore,
		AdviceGroups: []AdviceGroup{
			{Names: []string{"upcoming_activities_due"}},
		},
	})

	return r
}
