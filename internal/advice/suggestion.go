// Package advice implements the pluggable suggestion strategies an
// intervention message is composed from. A strategy either produces a
// Suggestion for a recipient (and optional course) or opts out with
// ErrNotApplicable; opting out is expected control flow, not an error.
package advice

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNotApplicable means a strategy has nothing to suggest for this
// recipient right now. Callers skip the strategy and move on.
var ErrNotApplicable = errors.New("advice not applicable")

// ErrNoAdvice means no strategy at all produced a suggestion. Callers must
// be able to tell this apart from not having asked.
var ErrNoAdvice = errors.New("no advice available")

// Suggestion layouts. A small closed set; rendering switches on the kind
// instead of subclassing per strategy.
const (
	KindActions = "actions" // title plus a row/list of link actions
	KindQuote   = "quote"   // title plus a quoted passage and one action
	KindText    = "text"    // plain paragraph
)

type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Suggestion is one rendered-ready piece of advice. Construction decides
// applicability; rendering is infallible once a Suggestion exists.
type Suggestion struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Body    string   `json:"body,omitempty"`
	Quote   string   `json:"quote,omitempty"`
	Source  string   `json:"source,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

func (s *Suggestion) RenderText() string {
	var b strings.Builder

	b.WriteString(s.Title)

	if s.Body != "" {
		b.WriteString("\n")
		b.WriteString(s.Body)
	}

	if s.Kind == KindQuote && s.Quote != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(s.Quote, "\n") {
			b.WriteString("> " + line + "\n")
		}
		if s.Source != "" {
			b.WriteString("— " + s.Source)
		}
	}

	for _, a := range s.Actions {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Label, a.URL))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (s *Suggestion) RenderHTML() string {
	var b strings.Builder

	b.WriteString("<p><b>" + html.EscapeString(s.Title) + "</b></p>")

	if s.Body != "" {
		b.WriteString("<p>" + html.EscapeString(s.Body) + "</p>")
	}

	if s.Kind == KindQuote && s.Quote != "" {
		b.WriteString("<blockquote>" + html.EscapeString(s.Quote))
		if s.Source != "" {
			b.WriteString("<footer>" + html.EscapeString(s.Source) + "</footer>")
		}
		b.WriteString("</blockquote>")
	}

	if len(s.Actions) > 0 {
		b.WriteString("<ul>")
		for _, a := range s.Actions {
			b.WriteString(fmt.Sprintf(`<li><a href="%s">%s</a></li>`, a.URL, html.EscapeString(a.Label)))
		}
		b.WriteString("</ul>")
	}

	return b.String()
}

// RenderChatHTML renders for Telegram, which parses only a small inline
// tag set (<b>, <i>, <a>). Block structure becomes newlines; actions are
// carried by the inline keyboard instead of inline links.
func (s *Suggestion) RenderChatHTML() string {
	var b strings.Builder

	b.WriteString("<b>" + html.EscapeString(s.Title) + "</b>")

	if s.Body != "" {
		b.WriteString("\n" + html.EscapeString(s.Body))
	}

	if s.Kind == KindQuote && s.Quote != "" {
		b.WriteString("\n\n<i>" + html.EscapeString(s.Quote) + "</i>")
		if s.Source != "" {
			b.WriteString("\n— " + html.EscapeString(s.Source))
		}
	}

	return b.String()
}

// RenderTelegram returns body text plus one inline-keyboard row per action.
func (s *Suggestion) RenderTelegram() (string, [][]tgbotapi.InlineKeyboardButton) {
	text := s.renderChatText()

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range s.Actions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(a.Label, a.URL),
		))
	}

	return text, rows
}

// RenderSignal returns plain text with action links spelled out; Signal has
// no structured keyboard payload.
func (s *Suggestion) RenderSignal() string {
	return s.RenderText()
}

func (s *Suggestion) renderChatText() string {
	var b strings.Builder

	b.WriteString(s.Title)

	if s.Body != "" {
		b.WriteString("\n" + s.Body)
	}

	if s.Kind == KindQuote && s.Quote != "" {
		b.WriteString("\n\n\"" + s.Quote + "\"")
		if s.Source != "" {
			b.WriteString("\n— " + s.Source)
		}
	}

	return b.String()
}

// RenderAllText joins suggestions blank-line separated for text channels.
func RenderAllText(suggestions []*Suggestion) string {
	parts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		parts = append(parts, s.RenderText())
	}
	return strings.Join(parts, "\n\n")
}

// RenderAllChat joins the Telegram renderings blank-line separated.
func RenderAllChat(suggestions []*Suggestion) string {
	parts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		parts = append(parts, s.RenderChatHTML())
	}
	return strings.Join(parts, "\n\n")
}

func RenderAllHTML(suggestions []*Suggestion) string {
	var b strings.Builder
	for _, s := range suggestions {
		b.WriteString(s.RenderHTML())
	}
	return b.String()
}
