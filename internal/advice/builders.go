package advice

import (
	"fmt"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

// Strategy names. These are the stable identifiers stored in Advice rows
// and in per-course disabled lists.
const (
	NameRecommendedDiscussion = "recommended_discussion"
	NameRecentForumActivity   = "recent_forum_activity"
	NameRecentActivities      = "recent_activities"
	NameUpcomingActivitiesDue = "upcoming_activities_due"
	NameVisitCourse           = "visit_course"
	NameFeedback              = "feedback"
)

// BuildContext carries everything a builder may need. Course is nil for
// site-wide contexts; builders that need one opt out via ErrNotApplicable.
type BuildContext struct {
	Recipient *models.User
	Course    *models.Course

	Forum   repository.ForumRepository
	Modules repository.CourseModuleRepository

	// SurveyURL is the site feedback survey; empty disables the feedback
	// strategy.
	SurveyURL string

	Now time.Time
}

func (ctx *BuildContext) now() time.Time {
	if ctx.Now.IsZero() {
		return time.Now()
	}
	return ctx.Now
}

// Builder attempts to construct a suggestion. Returns ErrNotApplicable when
// there is nothing to advise; any other error is a real failure.
type Builder func(ctx *BuildContext) (*Suggestion, error)

func buildVisitCourse(ctx *BuildContext) (*Suggestion, error) {
	if ctx.Course == nil || ctx.Course.URL == "" {
		return nil, ErrNotApplicable
	}

	return &Suggestion{
		Name:  NameVisitCourse,
		Kind:  KindActions,
		Title: fmt.Sprintf("It has been a while. Take a look at what happened in %s since your last visit.", ctx.Course.Fullname),
		Actions: []Action{
			{Label: fmt.Sprintf("Go to %s", ctx.Course.Shortname), URL: ctx.Course.URL},
		},
	}, nil
}

func buildRecommendedDiscussion(ctx *BuildContext) (*Suggestion, error) {
	if ctx.Course == nil || ctx.Forum == nil {
		return nil, ErrNotApplicable
	}

	post, err := ctx.Forum.FindUnansweredStarter(ctx.Course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up unanswered discussions: %w", err)
	}
	if post == nil {
		return nil, ErrNotApplicable
	}

	quote := post.Message
	if runes := []rune(quote); len(runes) > 280 {
		quote = string(runes[:277]) + "..."
	}

	suggestion := &Suggestion{
		Name:   NameRecommendedDiscussion,
		Kind:   KindQuote,
		Title:  "A fellow student started a discussion that has no answer yet. Maybe you can help out:",
		Quote:  quote,
		Source: post.Author.FirstName,
	}
	if post.URL != "" {
		suggestion.Actions = []Action{{Label: "Answer the discussion", URL: post.URL}}
	}

	return suggestion, nil
}

func buildRecentForumActivity(ctx *BuildContext) (*Suggestion, error) {
	if ctx.Course == nil || ctx.Forum == nil {
		return nil, ErrNotApplicable
	}

	count, err := ctx.Forum.CountRecentByCourse(ctx.Course.ID, ctx.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent forum posts: %w", err)
	}
	if count == 0 {
		return nil, ErrNotApplicable
	}

	suggestion := &Suggestion{
		Name:  NameRecentForumActivity,
		Kind:  KindActions,
		Title: fmt.Sprintf("There were %d new forum posts in %s this week. Join the conversation!", count, ctx.Course.Shortname),
	}
	if ctx.Course.URL != "" {
		suggestion.Actions = []Action{{Label: "Visit the course forum", URL: ctx.Course.URL}}
	}

	return suggestion, nil
}

func buildRecentActivities(ctx *BuildContext) (*Suggestion, error) {
	if ctx.Course == nil || ctx.Modules == nil {
		return nil, ErrNotApplicable
	}

	modules, err := ctx.Modules.ListRecent(ctx.Course.ID, ctx.now().AddDate(0, 0, -30), 5)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activities: %w", err)
	}
	if len(modules) == 0 {
		return nil, ErrNotApplicable
	}

	actions := make([]Action, 0, len(modules))
	for _, m := range modules {
		if m.URL == "" {
			continue
		}
		actions = append(actions, Action{Label: m.Name, URL: m.URL})
	}
	if len(actions) == 0 {
		return nil, ErrNotApplicable
	}

	return &Suggestion{
		Name:    NameRecentActivities,
		Kind:    KindActions,
		Title:   fmt.Sprintf("These activities were recently added to %s:", ctx.Course.Fullname),
		Actions: actions,
	}, nil
}

func buildUpcomingActivitiesDue(ctx *BuildContext) (*Suggestion, error) {
	if ctx.Course == nil || ctx.Modules == nil {
		return nil, ErrNotApplicable
	}

	modules, err := ctx.Modules.ListDueBefore(ctx.Course.ID, ctx.now().AddDate(0, 0, 7), 5)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming activities: %w", err)
	}
	if len(modules) == 0 {
		return nil, ErrNotApplicable
	}

	actions := make([]Action, 0, len(modules))
	for _, m := range modules {
		label := m.Name
		if m.DueDate != nil {
			label = fmt.Sprintf("%s (due %s)", m.Name, m.DueDate.Format("Mon 02 Jan"))
		}
		actions = append(actions, Action{Label: label, URL: m.URL})
	}

	return &Suggestion{
		Name:    NameUpcomingActivitiesDue,
		Kind:    KindActions,
		Title:   "These activities are due soon:",
		Actions: actions,
	}, nil
}

func buildFeedback(ctx *BuildContext) (*Suggestion, error) {
	if ctx.SurveyURL == "" {
		return nil, ErrNotApplicable
	}

	return &Suggestion{
		Name:  NameFeedback,
		Kind:  KindActions,
		Title: "Help us improve these messages by sharing your thoughts.",
		Actions: []Action{
			{Label: "Give feedback", URL: ctx.SurveyURL},
		},
	}, nil
}
