package advice

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

type mockAdviceRepo struct {
	records map[string]*models.Advice
}

func newMockAdviceRepo() *mockAdviceRepo {
	return &mockAdviceRepo{records: make(map[string]*models.Advice)}
}

func (m *mockAdviceRepo) Create(a *models.Advice) error {
	m.records[a.Name] = a
	return nil
}

func (m *mockAdviceRepo) GetByName(name string) (*models.Advice, error) {
	return m.records[name], nil
}

func (m *mockAdviceRepo) Update(a *models.Advice) error {
	m.records[a.Name] = a
	return nil
}

func (m *mockAdviceRepo) Delete(name string) error {
	delete(m.records, name)
	return nil
}

func (m *mockAdviceRepo) List() ([]*models.Advice, error) {
	var result []*models.Advice
	for _, a := range m.records {
		result = append(result, a)
	}
	return result, nil
}

func (m *mockAdviceRepo) ListEnabledForTarget(targetName string) ([]*models.Advice, error) {
	var result []*models.Advice
	for _, a := range m.records {
		if a.Enabled && a.Targets.Contains(targetName) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAdviceRepo) disable(name string) {
	m.records[name] = &models.Advice{Name: name, Enabled: false}
}

func (m *mockAdviceRepo) bind(name string, targets ...string) {
	m.records[name] = &models.Advice{Name: name, Targets: models.StringArray(targets), Enabled: true}
}

type mockSettingsRepo struct {
	settings map[[2]uint]*models.CourseSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[[2]uint]*models.CourseSettings)}
}

func (m *mockSettingsRepo) GetByUserAndCourse(userID, courseID uint) (*models.CourseSettings, error) {
	return m.settings[[2]uint{userID, courseID}], nil
}

func (m *mockSettingsRepo) Update(s *models.CourseSettings) error {
	m.settings[[2]uint{s.UserID, s.CourseID}] = s
	return nil
}

type mockForumRepo struct {
	starter     *models.ForumPost
	recentCount int64
}

func (m *mockForumRepo) Create(post *models.ForumPost) error { return nil }

func (m *mockForumRepo) FindUnansweredStarter(courseID uint) (*models.ForumPost, error) {
	return m.starter, nil
}

func (m *mockForumRepo) CountRecentByCourse(courseID uint, since time.Time) (int64, error) {
	return m.recentCount, nil
}

type mockModuleRepo struct {
	recent []*models.CourseModule
	due    []*models.CourseModule
}

func (m *mockModuleRepo) Create(module *models.CourseModule) error { return nil }

func (m *mockModuleRepo) ListRecent(courseID uint, since time.Time, limit int) ([]*models.CourseModule, error) {
	return m.recent, nil
}

func (m *mockModuleRepo) ListDueBefore(courseID uint, before time.Time, limit int) ([]*models.CourseModule, error) {
	return m.due, nil
}

type selectorFixture struct {
	adviceRepo *mockAdviceRepo
	settings   *mockSettingsRepo
	forum      *mockForumRepo
	modules    *mockModuleRepo
	selector   *Selector
}

func newSelectorFixture(t *testing.T) *selectorFixture {
	t.Helper()

	f := &selectorFixture{
		adviceRepo: newMockAdviceRepo(),
		settings:   newMockSettingsRepo(),
		forum:      &mockForumRepo{},
		modules:    &mockModuleRepo{},
	}

	catalog := NewCatalog(f.adviceRepo)
	f.selector = NewSelector(catalog, target.NewRegistry(), f.settings)
	return f
}

func (f *selectorFixture) buildContext() *BuildContext {
	return &BuildContext{
		Recipient: &models.User{BaseModel: models.BaseModel{ID: 1}, FirstName: "Jane"},
		Course: &models.Course{
			BaseModel: models.BaseModel{ID: 10},
			Shortname: "BIO1",
			Fullname:  "Biology 1",
			URL:       "https://lms.example.org/course/view.php?id=10",
		},
		Forum:     f.forum,
		Modules:   f.modules,
		SurveyURL: "https://motbot.example.org/survey",
	}
}

func names(suggestions []*Suggestion) []string {
	result := make([]string, len(suggestions))
	for i, s := range suggestions {
		result[i] = s.Name
	}
	return result
}

func TestSelectExclusiveGroup(t *testing.T) {
	t.Run("first applicable strategy wins", func(t *testing.T) {
		f := newSelectorFixture(t)
		f.forum.starter = &models.ForumPost{
			Message: "How does osmosis work?",
			Author:  models.User{FirstName: "Sam"},
			URL:     "https://lms.example.org/mod/forum/discuss.php?d=4",
		}
		f.forum.recentCount = 12

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := names(suggestions)
		want := []string{NameRecommendedDiscussion, NameFeedback}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("falls back within the group when the first does not apply", func(t *testing.T) {
		f := newSelectorFixture(t)
		f.forum.starter = nil
		f.forum.recentCount = 3

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecentForumActivity {
			t.Errorf("expected fallback to %s, got %s", NameRecentForumActivity, suggestions[0].Name)
		}
	})

	t.Run("falls back when the first is disabled by an administrator", func(t *testing.T) {
		f := newSelectorFixture(t)
		f.forum.starter = &models.ForumPost{Message: "anyone?", Author: models.User{FirstName: "Sam"}}
		f.forum.recentCount = 3
		f.adviceRepo.disable(NameRecommendedDiscussion)

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecentForumActivity {
			t.Errorf("expected fallback to %s, got %s", NameRecentForumActivity, suggestions[0].Name)
		}
	})

	t.Run("falls back when the recipient disabled it for the course", func(t *testing.T) {
		f := newSelectorFixture(t)
		f.forum.starter = &models.ForumPost{Message: "anyone?", Author: models.User{FirstName: "Sam"}}
		f.forum.recentCount = 3
		f.settings.settings[[2]uint{1, 10}] = &models.CourseSettings{
			UserID:         1,
			CourseID:       10,
			DisabledAdvice: models.StringArray{NameRecommendedDiscussion},
		}

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecentForumActivity {
			t.Errorf("expected fallback to %s, got %s", NameRecentForumActivity, suggestions[0].Name)
		}
	})
}

func TestSelectHonorsTargetBindings(t *testing.T) {
	starter := func(f *selectorFixture) {
		f.forum.starter = &models.ForumPost{Message: "anyone?", Author: models.User{FirstName: "Sam"}}
		f.forum.recentCount = 3
	}

	t.Run("a strategy bound to other targets is skipped", func(t *testing.T) {
		f := newSelectorFixture(t)
		starter(f)
		f.adviceRepo.bind(NameRecommendedDiscussion, target.CourseDropout)

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecentForumActivity {
			t.Errorf("expected fallback to %s, got %s", NameRecentForumActivity, suggestions[0].Name)
		}
	})

	t.Run("a binding naming the target keeps the strategy", func(t *testing.T) {
		f := newSelectorFixture(t)
		starter(f)
		f.adviceRepo.bind(NameRecommendedDiscussion, target.LowSocialPresence)

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecommendedDiscussion {
			t.Errorf("expected %s, got %s", NameRecommendedDiscussion, suggestions[0].Name)
		}
	})

	t.Run("a record without bindings imposes no restriction", func(t *testing.T) {
		f := newSelectorFixture(t)
		starter(f)
		f.adviceRepo.bind(NameRecommendedDiscussion)

		suggestions, err := f.selector.Select(target.LowSocialPresence, f.buildContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if suggestions[0].Name != NameRecommendedDiscussion {
			t.Errorf("expected %s, got %s", NameRecommendedDiscussion, suggestions[0].Name)
		}
	})
}

func TestRecommendedDiscussionTruncatesOnRuneBoundary(t *testing.T) {
	f := newSelectorFixture(t)
	f.forum.starter = &models.ForumPost{
		Message: strings.Repeat("ü", 300),
		Author:  models.User{FirstName: "Sam"},
	}

	suggestion, err := buildRecommendedDiscussion(f.buildContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(suggestion.Quote) {
		t.Error("expected the truncated quote to stay valid UTF-8")
	}
	if got := utf8.RuneCountInString(suggestion.Quote); got != 280 {
		t.Errorf("expected 280 runes after truncation, got %d", got)
	}
	if !strings.HasSuffix(suggestion.Quote, "...") {
		t.Error("expected the truncation marker")
	}
}

func TestSelectAdditiveGroup(t *testing.T) {
	f := newSelectorFixture(t)
	f.modules.recent = []*models.CourseModule{
		{Name: "Quiz 3", URL: "https://lms.example.org/mod/quiz/view.php?id=7"},
	}

	suggestions, err := f.selector.Select(target.CourseDropout, f.buildContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := names(suggestions)
	want := []string{NameRecentActivities, NameVisitCourse, NameFeedback}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSelectNoAdvice(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := f.buildContext()
	ctx.Course = nil
	ctx.SurveyURL = ""

	_, err := f.selector.Select(target.NoRecentAccesses, ctx)
	if !errors.Is(err, ErrNoAdvice) {
		t.Fatalf("expected ErrNoAdvice, got %v", err)
	}
}

func TestSelectUnknownTarget(t *testing.T) {
	f := newSelectorFixture(t)
	if _, err := f.selector.Select("nonsense", f.buildContext()); err == nil {
		t.Fatal("expected an error for an unknown target")
	}
}

func TestSelectRandom(t *testing.T) {
	f := newSelectorFixture(t)
	f.forum.recentCount = 2
	f.selector.pick = func(n int) int { return 0 }

	suggestion, err := f.selector.SelectRandom(f.buildContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion == nil || suggestion.Name == "" {
		t.Fatal("expected a suggestion")
	}

	t.Run("nothing applicable", func(t *testing.T) {
		f := newSelectorFixture(t)
		ctx := f.buildContext()
		ctx.Course = nil
		ctx.SurveyURL = ""

		if _, err := f.selector.SelectRandom(ctx); !errors.Is(err, ErrNoAdvice) {
			t.Fatalf("expected ErrNoAdvice, got %v", err)
		}
	})
}
