package notification

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

// builtinTemplates are the last-resort message bodies per target. The
// {suggestions} placeholder is replaced with the advice rendering.
var builtinTemplates = map[string]string{
	"no_recent_accesses": "Hey {firstname}! We noticed you have not stopped by {course_shortname} recently. " +
		"Your course is still moving, and it is easier to keep up than to catch up.\n\n{suggestions}",
	"low_social_presence": "Hi {firstname}! Learning works better together. " +
		"There is a lot going on in {course_shortname} right now:\n\n{suggestions}",
	"course_dropout": "Hi {firstname}, we want to make sure you get the most out of {course_fullname}. " +
		"Here is something that might help you stay on track:\n\n{suggestions}",
	"upcoming_activities_due": "Hi {firstname}, a few things in {course_shortname} are due soon:\n\n{suggestions}",
}

const defaultTemplate = "Hi {firstname}! Here is something that might help you in {course_shortname}:\n\n{suggestions}"

const noAdviceFallback = "No suggestions are available right now, but visiting your course is always a good idea."

// Formatter builds the outgoing message for an intervention: template
// lookup with fallback, placeholder substitution, advice embedding and the
// helpful/unhelpful affordance.
type Formatter struct {
	templates repository.MessageTemplateRepository
	baseURL   string
}

func NewFormatter(templates repository.MessageTemplateRepository, baseURL string) *Formatter {
	return &Formatter{
		templates: templates,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Format renders the complete intervention message. Suggestions may be nil
// when no advice applied; the recipient still gets a deliverable message.
func (f *Formatter) Format(
	intervention *models.Intervention,
	recipient *models.User,
	course *models.Course,
	suggestions []*advice.Suggestion,
) (*Message, error) {
	body, err := f.lookupTemplate(intervention)
	if err != nil {
		return nil, err
	}

	textSuggestions := noAdviceFallback
	htmlSuggestions := "<p>" + noAdviceFallback + "</p>"
	chatSuggestions := html.EscapeString(noAdviceFallback)
	if len(suggestions) > 0 {
		textSuggestions = advice.RenderAllText(suggestions)
		htmlSuggestions = advice.RenderAllHTML(suggestions)
		chatSuggestions = advice.RenderAllChat(suggestions)
	}

	shortname, fullname := "", ""
	if course != nil {
		shortname = course.Shortname
		fullname = course.Fullname
	}

	replacer := func(suggestionText string) *strings.Replacer {
		return strings.NewReplacer(
			"{firstname}", recipient.FirstName,
			"{lastname}", recipient.LastName,
			"{course_shortname}", shortname,
			"{course_fullname}", fullname,
			"{target}", intervention.Target,
			"{suggestions}", suggestionText,
		)
	}

	// The chat variant escapes everything itself; Telegram rejects
	// messages with tags outside its supported subset.
	chatReplacer := strings.NewReplacer(
		"{firstname}", html.EscapeString(recipient.FirstName),
		"{lastname}", html.EscapeString(recipient.LastName),
		"{course_shortname}", html.EscapeString(shortname),
		"{course_fullname}", html.EscapeString(fullname),
		"{target}", intervention.Target,
		"{suggestions}", chatSuggestions,
	)

	text := replacer(textSuggestions).Replace(body)
	htmlBody := strings.ReplaceAll(replacer(htmlSuggestions).Replace(body), "\n", "<br>")
	chat := chatReplacer.Replace(html.EscapeString(body))

	msg := &Message{
		Subject: fmt.Sprintf("A message from your course %s", shortname),
		Text:    text + "\n\n" + f.feedbackFooter(intervention.ID),
		HTML:    htmlBody + "<br><br>" + f.feedbackFooterHTML(intervention.ID),
		Chat:    chat + "\n\nWas this message helpful?",
	}

	for _, s := range suggestions {
		_, rows := s.RenderTelegram()
		msg.Keyboard = append(msg.Keyboard, rows...)
	}
	msg.Keyboard = append(msg.Keyboard, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("👍 Helpful", fmt.Sprintf("helpful_%d_1", intervention.ID)),
		tgbotapi.NewInlineKeyboardButtonData("👎 Not helpful", fmt.Sprintf("helpful_%d_0", intervention.ID)),
	))

	return msg, nil
}

// FormatTeacherSummary renders the escalation message sent to the teaching
// staff of a course after repeated unsuccessful interventions.
func (f *Formatter) FormatTeacherSummary(
	recipient *models.User,
	course *models.Course,
	history []*models.Intervention,
) *Message {
	var b strings.Builder

	b.WriteString(fmt.Sprintf(
		"%s %s in %s has not reacted to repeated interventions. A personal follow-up might help.\n\nRecent interventions:\n",
		recipient.FirstName, recipient.LastName, course.Shortname,
	))

	for _, i := range history {
		b.WriteString(fmt.Sprintf("- %s: %s (%s)\n",
			i.CreatedAt.Format("2006-01-02"), i.Target, i.State))
	}

	text := b.String()

	return &Message{
		Subject: fmt.Sprintf("Intervention summary for %s %s", recipient.FirstName, recipient.LastName),
		Text:    text,
		HTML:    strings.ReplaceAll(text, "\n", "<br>"),
		Chat:    html.EscapeString(text),
	}
}

// lookupTemplate resolves the message body: course custom first, then the
// site-wide default (course id 0), then the builtin per-target body.
func (f *Formatter) lookupTemplate(intervention *models.Intervention) (string, error) {
	if intervention.ContextID > 0 {
		body, err := f.matchTemplate(intervention.ContextID, intervention)
		if err != nil {
			return "", err
		}
		if body != "" {
			return body, nil
		}
	}

	body, err := f.matchTemplate(0, intervention)
	if err != nil {
		return "", err
	}
	if body != "" {
		return body, nil
	}

	if builtin, ok := builtinTemplates[intervention.Target]; ok {
		return builtin, nil
	}

	return defaultTemplate, nil
}

func (f *Formatter) matchTemplate(courseID uint, intervention *models.Intervention) (string, error) {
	if f.templates == nil {
		return "", nil
	}

	templates, err := f.templates.ListForCourseAndTarget(courseID, intervention.Target)
	if err != nil {
		return "", fmt.Errorf("failed to load message templates: %w", err)
	}

	for _, t := range templates {
		if t.MatchesClass(intervention.Prediction) {
			return t.Body, nil
		}
	}

	return "", nil
}

func (f *Formatter) feedbackFooter(interventionID uint) string {
	return fmt.Sprintf(
		"Was this message helpful?\nYes: %s\nNo: %s",
		f.feedbackURL(interventionID, 1),
		f.feedbackURL(interventionID, 0),
	)
}

func (f *Formatter) feedbackFooterHTML(interventionID uint) string {
	return fmt.Sprintf(
		`Was this message helpful? <a href="%s">Yes</a> | <a href="%s">No</a>`,
		f.feedbackURL(interventionID, 1),
		f.feedbackURL(interventionID, 0),
	)
}

func (f *Formatter) feedbackURL(interventionID uint, value int) string {
	return fmt.Sprintf("%s/api/v1/intervention/%d/helpful?value=%d", f.baseURL, interventionID, value)
}
