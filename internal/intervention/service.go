// Package intervention implements the lifecycle of a retention
// intervention: from an incoming prediction through scheduling, delivery
// and outcome tracking, including the criticality escalation to teachers.
package intervention

import (
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/notification"
	"github.com/ild-thl/motbot-sub000/internal/repository"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

// ErrResolution means a predicted sample could not be mapped to a known
// recipient. No intervention record is created; the prediction is dropped.
var ErrResolution = errors.New("could not resolve prediction sample to a recipient")

// ErrDelivery wraps a notifier failure. The intervention stays SCHEDULED
// and is retried on the next dispatcher tick.
var ErrDelivery = errors.New("delivery failed")

// Prediction is one record from the predictor feed.
type Prediction struct {
	Target         string  `json:"target"`
	SampleID       uint    `json:"sample_id"`
	ContextID      uint    `json:"context_id"`
	PredictedClass *int    `json:"predicted_class,omitempty"`
	Score          float64 `json:"score"`
}

type Service struct {
	targets   *target.Registry
	selector  *advice.Selector
	formatter *notification.Formatter
	sender    notification.Sender

	interventions repository.InterventionRepository
	users         repository.UserRepository
	prefs         repository.UserPreferencesRepository
	courses       repository.CourseRepository
	members       repository.CourseMemberRepository
	settings      repository.CourseSettingsRepository
	forum         repository.ForumRepository
	modules       repository.CourseModuleRepository

	surveyURL string
}

func NewService(
	targets *target.Registry,
	selector *advice.Selector,
	formatter *notification.Formatter,
	sender notification.Sender,
	interventions repository.InterventionRepository,
	users repository.UserRepository,
	prefs repository.UserPreferencesRepository,
	courses repository.CourseRepository,
	members repository.CourseMemberRepository,
	settings repository.CourseSettingsRepository,
	forum repository.ForumRepository,
	modules repository.CourseModuleRepository,
	surveyURL string,
) *Service {
	return &Service{
		targets:       targets,
		selector:      selector,
		formatter:     formatter,
		sender:        sender,
		interventions: interventions,
		users:         users,
		prefs:         prefs,
		courses:       courses,
		members:       members,
		settings:      settings,
		forum:         forum,
		modules:       modules,
		surveyURL:     surveyURL,
	}
}

// CreateFromPrediction turns a prediction into a SCHEDULED intervention.
// Returns (nil, nil) when the prediction is valid but not actionable, or
// when the recipient has opted out; returns ErrResolution when the sample
// cannot be mapped to a user.
func (s *Service) CreateFromPrediction(p *Prediction) (*models.Intervention, error) {
	def, ok := s.targets.Get(p.Target)
	if !ok {
		return nil, fmt.Errorf("unknown target in prediction: %s", p.Target)
	}

	recipient, contextID, err := s.resolveSample(def, p)
	if err != nil {
		return nil, err
	}

	if !def.Actionable(p.PredictedClass) {
		return nil, nil
	}

	prefs, err := s.prefs.GetOrCreate(recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if !prefs.Authorized {
		log.Printf("User %d has not authorized interventions, skipping %s", recipient.ID, p.Target)
		return nil, nil
	}

	if contextID > 0 {
		settings, err := s.settings.GetByUserAndCourse(recipient.ID, contextID)
		if err != nil {
			return nil, fmt.Errorf("failed to load course settings: %w", err)
		}
		if settings != nil && (!settings.Authorized || settings.TargetDisabled(p.Target)) {
			log.Printf("User %d disabled %s for course %d, skipping", recipient.ID, p.Target, contextID)
			return nil, nil
		}
	}

	intervention := &models.Intervention{
		RecipientID:   recipient.ID,
		ContextID:     contextID,
		Target:        p.Target,
		Prediction:    p.PredictedClass,
		DesiredEvents: pq.StringArray(def.DesiredEvents),
		State:         models.InterventionStateScheduled,
	}

	if err := s.interventions.Create(intervention); err != nil {
		return nil, fmt.Errorf("failed to create intervention: %w", err)
	}

	log.Printf("Scheduled intervention %d for user %d (target %s)", intervention.ID, recipient.ID, p.Target)
	return intervention, nil
}

// resolveSample maps the prediction's sample id to a recipient according
// to the target's sample space.
func (s *Service) resolveSample(def *target.Definition, p *Prediction) (*models.User, uint, error) {
	switch def.SampleSpace {
	case target.SampleSpaceEnrolment:
		member, err := s.members.GetByID(p.SampleID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve enrolment sample: %w", err)
		}
		if member == nil {
			return nil, 0, ErrResolution
		}
		contextID := p.ContextID
		if contextID == 0 {
			contextID = member.CourseID
		}
		return &member.User, contextID, nil

	default:
		user, err := s.users.GetByID(p.SampleID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve user sample: %w", err)
		}
		if user == nil {
			return nil, 0, ErrResolution
		}
		return user, p.ContextID, nil
	}
}

// Process advances one SCHEDULED intervention. Store-mode targets go to
// STORED; auto-delivery targets get a message built and sent, and only a
// successful hand-off to the notifier moves the record to INTERVENED. On
// delivery failure the record stays SCHEDULED and is retried next tick.
func (s *Service) Process(intervention *models.Intervention) error {
	if !intervention.IsScheduled() {
		return nil
	}

	def, ok := s.targets.Get(intervention.Target)
	if !ok {
		return fmt.Errorf("intervention %d references unknown target %s", intervention.ID, intervention.Target)
	}

	if def.Delivery == target.DeliveryStore {
		moved, err := s.interventions.UpdateState(intervention.ID,
			models.InterventionStateScheduled, models.InterventionStateStored, 0)
		if err != nil {
			return err
		}
		if moved {
			intervention.State = models.InterventionStateStored
			s.checkCriticality(intervention)
		}
		return nil
	}

	recipient, course, err := s.loadParticipants(intervention)
	if err != nil {
		return err
	}

	msg, err := s.BuildMessage(intervention, recipient, course)
	if err != nil {
		return err
	}

	ref, err := s.sender.Send(recipient, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	moved, err := s.interventions.UpdateState(intervention.ID,
		models.InterventionStateScheduled, models.InterventionStateIntervened, 0)
	if err != nil {
		return err
	}
	if !moved {
		// Another dispatcher run won the transition; nothing left to do.
		return nil
	}
	intervention.State = models.InterventionStateIntervened
	intervention.MessageRef = ref

	if err := s.interventions.SetMessageRef(intervention.ID, ref); err != nil {
		return fmt.Errorf("failed to record message ref: %w", err)
	}

	s.checkCriticality(intervention)

	return nil
}

// checkCriticality runs the escalation scan after a completed transition.
// Failures are logged, not returned; escalation must not undo the
// transition that already happened.
func (s *Service) checkCriticality(intervention *models.Intervention) {
	if intervention.ContextID == 0 {
		return
	}
	if err := s.EvaluateCriticality(intervention); err != nil {
		log.Printf("Criticality check failed for intervention %d: %v", intervention.ID, err)
	}
}

// BuildMessage renders the message for an intervention. Rendering the same
// unchanged intervention twice yields identical output.
func (s *Service) BuildMessage(
	intervention *models.Intervention,
	recipient *models.User,
	course *models.Course,
) (*notification.Message, error) {
	ctx := &advice.BuildContext{
		Recipient: recipient,
		Course:    course,
		Forum:     s.forum,
		Modules:   s.modules,
		SurveyURL: s.surveyURL,
	}

	suggestions, err := s.selector.Select(intervention.Target, ctx)
	if err != nil && !errors.Is(err, advice.ErrNoAdvice) {
		return nil, err
	}

	return s.formatter.Format(intervention, recipient, course, suggestions)
}

// EvaluateCriticality runs after a new intervention was delivered. Prior
// INTERVENED records for the same recipient, context and desired events are
// marked UNSUCCESSFUL; if at least one existed and the recipient allows
// teacher involvement for the course, the teaching staff gets a summary.
func (s *Service) EvaluateCriticality(intervention *models.Intervention) error {
	def, ok := s.targets.Get(intervention.Target)
	if !ok || !def.Critical {
		return nil
	}

	priors, err := s.interventions.ListIntervenedByRecipient(intervention.RecipientID, intervention.ContextID)
	if err != nil {
		return fmt.Errorf("failed to scan prior interventions: %w", err)
	}

	unsuccessful := 0
	for _, prior := range priors {
		if prior.ID == intervention.ID || !prior.SameDesiredEvents(intervention) {
			continue
		}

		moved, err := s.interventions.UpdateState(prior.ID,
			models.InterventionStateIntervened, models.InterventionStateUnsuccessful, 0)
		if err != nil {
			return err
		}
		if moved {
			unsuccessful++
		}
	}

	if unsuccessful == 0 {
		return nil
	}

	settings, err := s.settings.GetByUserAndCourse(intervention.RecipientID, intervention.ContextID)
	if err != nil {
		return fmt.Errorf("failed to load course settings: %w", err)
	}
	if settings == nil || !settings.AllowTeacherInvolvement {
		return nil
	}

	return s.informTeachers(intervention)
}

// informTeachers fans the summary out to every teacher of the course.
// Individual failures are tolerated; teachersInformed records whether at
// least one teacher was reached.
func (s *Service) informTeachers(intervention *models.Intervention) error {
	recipient, course, err := s.loadParticipants(intervention)
	if err != nil {
		return err
	}
	if course == nil {
		return nil
	}

	teachers, err := s.members.ListTeachers(course.ID)
	if err != nil {
		return fmt.Errorf("failed to list teachers: %w", err)
	}
	if len(teachers) == 0 {
		return nil
	}

	history, err := s.interventions.ListRecentByRecipient(intervention.RecipientID, intervention.ContextID, 5)
	if err != nil {
		return fmt.Errorf("failed to load intervention history: %w", err)
	}

	msg := s.formatter.FormatTeacherSummary(recipient, course, history)

	reached := 0
	for _, teacher := range teachers {
		if _, err := s.sender.Send(teacher, msg); err != nil {
			log.Printf("Failed to inform teacher %d about user %d: %v", teacher.ID, recipient.ID, err)
			continue
		}
		reached++
	}

	informed := reached > 0
	if err := s.interventions.SetTeachersInformed(intervention.ID, informed); err != nil {
		return err
	}
	intervention.SetTeachersInformed(informed)

	log.Printf("Teacher escalation for intervention %d: reached %d/%d", intervention.ID, reached, len(teachers))
	return nil
}

// SetHelpful records recipient feedback on a delivered intervention.
func (s *Service) SetHelpful(id uint, helpful bool) error {
	intervention, err := s.interventions.GetByID(id)
	if err != nil {
		return err
	}
	if intervention == nil {
		return fmt.Errorf("intervention %d not found", id)
	}

	return s.interventions.SetHelpful(id, helpful)
}

func (s *Service) loadParticipants(intervention *models.Intervention) (*models.User, *models.Course, error) {
	recipient := &intervention.Recipient
	if recipient.ID == 0 {
		loaded, err := s.users.GetByID(intervention.RecipientID)
		if err != nil {
			return nil, nil, err
		}
		if loaded == nil {
			return nil, nil, fmt.Errorf("recipient %d not found", intervention.RecipientID)
		}
		recipient = loaded
	}

	var course *models.Course
	if intervention.ContextID > 0 {
		loaded, err := s.courses.GetByID(intervention.ContextID)
		if err != nil {
			return nil, nil, err
		}
		course = loaded
	}

	return recipient, course, nil
}
