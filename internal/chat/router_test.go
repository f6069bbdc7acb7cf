package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

type mockPrefsRepo struct {
	prefs map[uint]*models.UserPreferences
}

func newMockPrefsRepo() *mockPrefsRepo {
	return &mockPrefsRepo{prefs: make(map[uint]*models.UserPreferences)}
}

func (m *mockPrefsRepo) GetByUserID(userID uint) (*models.UserPreferences, error) {
	return m.prefs[userID], nil
}

func (m *mockPrefsRepo) GetOrCreate(userID uint) (*models.UserPreferences, error) {
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	p := &models.UserPreferences{
		UserID:        userID,
		Authorized:    true,
		PreferredHour: models.PreferredHourAuto,
	}
	m.prefs[userID] = p
	return p, nil
}

func (m *mockPrefsRepo) Update(p *models.UserPreferences) error {
	m.prefs[p.UserID] = p
	return nil
}

type mockMemberRepo struct {
	courses []*models.Course
}

func (m *mockMemberRepo) GetByID(id uint) (*models.CourseMember, error) { return nil, nil }
func (m *mockMemberRepo) GetByCourseAndUser(courseID, userID uint) (*models.CourseMember, error) {
	return nil, nil
}
func (m *mockMemberRepo) ListTeachers(courseID uint) ([]*models.User, error) { return nil, nil }
func (m *mockMemberRepo) ListCoursesForUser(userID uint) ([]*models.Course, error) {
	return m.courses, nil
}

type mockInterventionCounts struct {
	open int64
}

func (m *mockInterventionCounts) Create(i *models.Intervention) error           { return nil }
func (m *mockInterventionCounts) GetByID(id uint) (*models.Intervention, error) { return nil, nil }
func (m *mockInterventionCounts) Update(i *models.Intervention) error           { return nil }
func (m *mockInterventionCounts) ListByState(state string, limit int) ([]*models.Intervention, error) {
	return nil, nil
}
func (m *mockInterventionCounts) ListIntervenedByRecipient(recipientID uint, contextID uint) ([]*models.Intervention, error) {
	return nil, nil
}
func (m *mockInterventionCounts) ListRecentByRecipient(recipientID uint, contextID uint, limit int) ([]*models.Intervention, error) {
	return nil, nil
}
func (m *mockInterventionCounts) UpdateState(id uint, from, to string, modifiedByID uint) (bool, error) {
	return false, nil
}
func (m *mockInterventionCounts) SetMessageRef(id uint, ref string) error          { return nil }
func (m *mockInterventionCounts) SetTeachersInformed(id uint, informed bool) error { return nil }
func (m *mockInterventionCounts) SetHelpful(id uint, helpful bool) error           { return nil }
func (m *mockInterventionCounts) CountByState(state string) (int64, error)         { return 0, nil }
func (m *mockInterventionCounts) CountByRecipientAndState(recipientID uint, state string) (int64, error) {
	return m.open, nil
}
func (m *mockInterventionCounts) DeleteTerminalOlderThan(days int) error { return nil }

type mockEventCounts struct {
	recent int64
}

func (m *mockEventCounts) Create(e *models.UserEvent) error { return nil }
func (m *mockEventCounts) CountRecentByUser(userID uint, since time.Time) (int64, error) {
	return m.recent, nil
}
func (m *mockEventCounts) DeleteOld(days int) error { return nil }

type mockAdviceRepo struct{}

func (m *mockAdviceRepo) Create(a *models.Advice) error                 { return nil }
func (m *mockAdviceRepo) GetByName(name string) (*models.Advice, error) { return nil, nil }
func (m *mockAdviceRepo) Update(a *models.Advice) error                 { return nil }
func (m *mockAdviceRepo) Delete(name string) error                      { return nil }
func (m *mockAdviceRepo) List() ([]*models.Advice, error)               { return nil, nil }
func (m *mockAdviceRepo) ListEnabledForTarget(targetName string) ([]*models.Advice, error) {
	return nil, nil
}

type mockSettingsRepo struct{}

func (m *mockSettingsRepo) GetByUserAndCourse(userID, courseID uint) (*models.CourseSettings, error) {
	return nil, nil
}
func (m *mockSettingsRepo) Update(s *models.CourseSettings) error { return nil }

type mockForumRepo struct {
	recentCount int64
}

func (m *mockForumRepo) Create(post *models.ForumPost) error { return nil }
func (m *mockForumRepo) FindUnansweredStarter(courseID uint) (*models.ForumPost, error) {
	return nil, nil
}
func (m *mockForumRepo) CountRecentByCourse(courseID uint, since time.Time) (int64, error) {
	return m.recentCount, nil
}

type mockModuleRepo struct{}

func (m *mockModuleRepo) Create(module *models.CourseModule) error { return nil }
func (m *mockModuleRepo) ListRecent(courseID uint, since time.Time, limit int) ([]*models.CourseModule, error) {
	return nil, nil
}
func (m *mockModuleRepo) ListDueBefore(courseID uint, before time.Time, limit int) ([]*models.CourseModule, error) {
	return nil, nil
}

type routerFixture struct {
	prefs         *mockPrefsRepo
	members       *mockMemberRepo
	interventions *mockInterventionCounts
	events        *mockEventCounts
	forum         *mockForumRepo
	router        *Router
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		prefs:         newMockPrefsRepo(),
		members:       &mockMemberRepo{},
		interventions: &mockInterventionCounts{},
		events:        &mockEventCounts{},
		forum:         &mockForumRepo{},
	}

	catalog := advice.NewCatalog(&mockAdviceRepo{})
	selector := advice.NewSelector(catalog, target.NewRegistry(), &mockSettingsRepo{})

	f.router = NewRouter(
		f.prefs,
		f.members,
		f.interventions,
		f.events,
		f.forum,
		&mockModuleRepo{},
		selector,
		"https://motbot.example.org/survey",
	)
	return f
}

func testUser() *models.User {
	return &models.User{BaseModel: models.BaseModel{ID: 1}, FirstName: "Jane"}
}

func TestHandleTextClassification(t *testing.T) {
	f := newRouterFixture(t)

	cases := []struct {
		text string
		kind ReplyKind
	}{
		{"advice", ReplyAdvice},
		{"  TIP  ", ReplyAdvice},
		{"Motivate!", ReplyAdvice},
		{"Help me", ReplyAdvice},
		{"status", ReplyStatus},
		{"How am I doing?", ReplyStatus},
		{"Progress", ReplyStatus},
		{"hello", ReplyWelcome},
		{"", ReplyWelcome},
		// A keyword inside free text must not classify.
		{"Give me a TIP please", ReplyWelcome},
		{"what's the status of my grade?", ReplyWelcome},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			reply, err := f.router.HandleText(testUser(), tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reply.Kind != tc.kind {
				t.Errorf("text %q: expected kind %d, got %d", tc.text, tc.kind, reply.Kind)
			}
		})
	}
}

func TestWelcomeReplyListsVocabulary(t *testing.T) {
	f := newRouterFixture(t)

	reply, err := f.router.HandleText(testUser(), "who are you")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, "Jane") {
		t.Error("expected the welcome to greet the user by name")
	}
	if !strings.Contains(reply.Text, "advice") || !strings.Contains(reply.Text, "status") {
		t.Error("expected the welcome to list the vocabulary")
	}
}

func TestAdviceReply(t *testing.T) {
	t.Run("returns a suggestion from the user's course", func(t *testing.T) {
		f := newRouterFixture(t)
		f.members.courses = []*models.Course{{
			BaseModel: models.BaseModel{ID: 10},
			Shortname: "BIO1",
			Fullname:  "Biology 1",
			URL:       "https://lms.example.org/course/view.php?id=10",
		}}
		f.forum.recentCount = 4

		reply, err := f.router.HandleText(testUser(), "advice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Suggestion == nil {
			t.Fatal("expected a suggestion")
		}
		if reply.Text == "" {
			t.Fatal("expected rendered text")
		}
	})

	t.Run("falls back to a friendly message when nothing applies", func(t *testing.T) {
		f := newRouterFixture(t)

		// No enrolments and no survey configured: nothing to suggest.
		router := NewRouter(
			f.prefs, f.members, f.interventions, f.events, f.forum, &mockModuleRepo{},
			advice.NewSelector(advice.NewCatalog(&mockAdviceRepo{}), target.NewRegistry(), &mockSettingsRepo{}),
			"",
		)

		reply, err := router.HandleText(testUser(), "advice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Suggestion != nil {
			t.Error("expected no suggestion")
		}
		if !strings.Contains(reply.Text, "no fresh tips") {
			t.Errorf("expected the fallback text, got: %s", reply.Text)
		}
	})
}

func TestStatusReply(t *testing.T) {
	t.Run("mentions open interventions first", func(t *testing.T) {
		f := newRouterFixture(t)
		f.interventions.open = 2
		f.events.recent = 9

		reply, err := f.router.HandleText(testUser(), "status")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "2 open nudges") {
			t.Errorf("expected the open-nudges line, got: %s", reply.Text)
		}
	})

	t.Run("praises recent activity when nothing is open", func(t *testing.T) {
		f := newRouterFixture(t)
		f.events.recent = 9

		reply, err := f.router.HandleText(testUser(), "status")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "active 9 times") {
			t.Errorf("expected the activity line, got: %s", reply.Text)
		}
	})

	t.Run("nudges inactive users", func(t *testing.T) {
		f := newRouterFixture(t)

		reply, err := f.router.HandleText(testUser(), "status")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "not seen you around") {
			t.Errorf("expected the inactivity line, got: %s", reply.Text)
		}
	})

	t.Run("reports an opt-out", func(t *testing.T) {
		f := newRouterFixture(t)
		f.prefs.prefs[1] = &models.UserPreferences{UserID: 1, Authorized: false}

		reply, err := f.router.HandleText(testUser(), "status")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "opted out") {
			t.Errorf("expected the opt-out line, got: %s", reply.Text)
		}
	})
}
