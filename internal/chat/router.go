// Package chat is the channel-independent conversational core. The
// Telegram and Signal adapters resolve the sender to a user and pass the
// text here; the router classifies it against a small vocabulary and
// builds the reply.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

type ReplyKind int

const (
	ReplyWelcome ReplyKind = iota
	ReplyAdvice
	ReplyStatus
)

type Reply struct {
	Kind       ReplyKind
	Text       string
	Suggestion *advice.Suggestion
}

var adviceWords = []string{"advice", "tip", "motivate", "help me"}
var statusWords = []string{"status", "how am i doing", "progress"}

const welcomeText = `Hi %s! I am your study companion.

You can ask me for:
  advice - a tip to keep you on track
  status - how you are doing right now

I will also message you when I notice you could use a nudge.`

type Router struct {
	prefs         repository.UserPreferencesRepository
	members       repository.CourseMemberRepository
	interventions repository.InterventionRepository
	events        repository.EventRepository
	forum         repository.ForumRepository
	modules       repository.CourseModuleRepository
	selector      *advice.Selector
	surveyURL     string
}

func NewRouter(
	prefs repository.UserPreferencesRepository,
	members repository.CourseMemberRepository,
	interventions repository.InterventionRepository,
	events repository.EventRepository,
	forum repository.ForumRepository,
	modules repository.CourseModuleRepository,
	selector *advice.Selector,
	surveyURL string,
) *Router {
	return &Router{
		prefs:         prefs,
		members:       members,
		interventions: interventions,
		events:        events,
		forum:         forum,
		modules:       modules,
		selector:      selector,
		surveyURL:     surveyURL,
	}
}

// HandleText classifies an incoming message and builds the reply.
// Unrecognized input gets the welcome message listing the vocabulary.
func (r *Router) HandleText(user *models.User, text string) (*Reply, error) {
	normalized := strings.TrimSpace(strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), "?!."))

	switch {
	case matchesAny(normalized, adviceWords):
		return r.adviceReply(user)
	case matchesAny(normalized, statusWords):
		return r.statusReply(user)
	default:
		return &Reply{
			Kind: ReplyWelcome,
			Text: fmt.Sprintf(welcomeText, user.FirstName),
		}, nil
	}
}

// AdviceReply picks one random applicable suggestion across the user's
// courses. Used directly by the /advice command handlers.
func (r *Router) AdviceReply(user *models.User) (*Reply, error) {
	return r.adviceReply(user)
}

// StatusReply summarizes the user's standing. Used directly by the /status
// command handlers.
func (r *Router) StatusReply(user *models.User) (*Reply, error) {
	return r.statusReply(user)
}

func (r *Router) adviceReply(user *models.User) (*Reply, error) {
	course, err := r.pickCourse(user)
	if err != nil {
		return nil, err
	}

	ctx := &advice.BuildContext{
		Recipient: user,
		Course:    course,
		Forum:     r.forum,
		Modules:   r.modules,
		SurveyURL: r.surveyURL,
	}

	suggestion, err := r.selector.SelectRandom(ctx)
	if err != nil {
		if errors.Is(err, advice.ErrNoAdvice) {
			return &Reply{
				Kind: ReplyAdvice,
				Text: "I have no fresh tips for you right now. Keep it up and check back later!",
			}, nil
		}
		return nil, err
	}

	return &Reply{
		Kind:       ReplyAdvice,
		Text:       suggestion.RenderText(),
		Suggestion: suggestion,
	}, nil
}

func (r *Router) statusReply(user *models.User) (*Reply, error) {
	prefs, err := r.prefs.GetOrCreate(user.ID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if prefs.Authorized {
		b.WriteString("Interventions are enabled for you.\n")
	} else {
		b.WriteString("You have opted out of interventions. Send /settings to change that.\n")
	}

	open, err := r.interventions.CountByRecipientAndState(user.ID, models.InterventionStateIntervened)
	if err != nil {
		return nil, err
	}

	recent, err := r.events.CountRecentByUser(user.ID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	switch {
	case open > 0:
		b.WriteString(fmt.Sprintf("There are %d open nudges waiting for you. Have a look at your courses!", open))
	case recent > 0:
		b.WriteString(fmt.Sprintf("You were active %d times in the last week. Nice work, keep going!", recent))
	default:
		b.WriteString("I have not seen you around lately. A short visit to your courses goes a long way.")
	}

	return &Reply{Kind: ReplyStatus, Text: b.String()}, nil
}

// pickCourse returns the first of the user's courses, or nil for users
// without an enrolment (advice then falls back to site-wide strategies).
func (r *Router) pickCourse(user *models.User) (*models.Course, error) {
	courses, err := r.members.ListCoursesForUser(user.ID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, nil
	}
	return courses[0], nil
}

// matchesAny compares the normalized input against the vocabulary for
// equality; a keyword buried in free text does not classify.
func matchesAny(text string, words []string) bool {
	for _, w := range words {
		if text == w {
			return true
		}
	}
	return false
}
