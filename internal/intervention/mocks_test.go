package intervention

import (
	"errors"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/notification"
)

// In-memory repositories for testing.

type mockInterventionRepo struct {
	interventions map[uint]*models.Intervention
	nextID        uint
}

func newMockInterventionRepo() *mockInterventionRepo {
	return &mockInterventionRepo{
		interventions: make(map[uint]*models.Intervention),
		nextID:        1,
	}
}

func (m *mockInterventionRepo) Create(i *models.Intervention) error {
	i.ID = m.nextID
	i.CreatedAt = time.Now()
	m.nextID++
	m.interventions[i.ID] = i
	return nil
}

func (m *mockInterventionRepo) GetByID(id uint) (*models.Intervention, error) {
	return m.interventions[id], nil
}

func (m *mockInterventionRepo) Update(i *models.Intervention) error {
	m.interventions[i.ID] = i
	return nil
}

func (m *mockInterventionRepo) ListByState(state string, limit int) ([]*models.Intervention, error) {
	var result []*models.Intervention
	for _, i := range m.interventions {
		if i.State == state && len(result) < limit {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *mockInterventionRepo) ListIntervenedByRecipient(recipientID uint, contextID uint) ([]*models.Intervention, error) {
	var result []*models.Intervention
	for _, i := range m.interventions {
		if i.RecipientID != recipientID || i.State != models.InterventionStateIntervened {
			continue
		}
		if contextID > 0 && i.ContextID != contextID {
			continue
		}
		result = append(result, i)
	}
	return result, nil
}

func (m *mockInterventionRepo) ListRecentByRecipient(recipientID uint, contextID uint, limit int) ([]*models.Intervention, error) {
	var result []*models.Intervention
	for _, i := range m.interventions {
		if i.RecipientID != recipientID {
			continue
		}
		if contextID > 0 && i.ContextID != contextID {
			continue
		}
		if len(result) < limit {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *mockInterventionRepo) UpdateState(id uint, from, to string, modifiedByID uint) (bool, error) {
	i, ok := m.interventions[id]
	if !ok || i.State != from {
		return false, nil
	}
	i.State = to
	i.ModifiedByID = modifiedByID
	return true, nil
}

func (m *mockInterventionRepo) SetMessageRef(id uint, ref string) error {
	if i, ok := m.interventions[id]; ok {
		i.MessageRef = ref
	}
	return nil
}

func (m *mockInterventionRepo) SetTeachersInformed(id uint, informed bool) error {
	if i, ok := m.interventions[id]; ok {
		i.TeachersInformed = &informed
	}
	return nil
}

func (m *mockInterventionRepo) SetHelpful(id uint, helpful bool) error {
	if i, ok := m.interventions[id]; ok {
		i.Helpful = &helpful
	}
	return nil
}

func (m *mockInterventionRepo) CountByState(state string) (int64, error) {
	var count int64
	for _, i := range m.interventions {
		if i.State == state {
			count++
		}
	}
	return count, nil
}

func (m *mockInterventionRepo) CountByRecipientAndState(recipientID uint, state string) (int64, error) {
	var count int64
	for _, i := range m.interventions {
		if i.RecipientID == recipientID && i.State == state {
			count++
		}
	}
	return count, nil
}

func (m *mockInterventionRepo) DeleteTerminalOlderThan(days int) error {
	return nil
}

type mockUserRepo struct {
	users map[uint]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*models.User)}
}

func (m *mockUserRepo) Create(u *models.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(id uint) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByTelegramID(telegramID int64) (*models.User, error) {
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetBySignalNumber(number string) (*models.User, error) {
	for _, u := range m.users {
		if u.SignalNumber == number {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(u *models.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) TouchLastAccess(id uint, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastAccessAt = &at
	}
	return nil
}

func (m *mockUserRepo) List(offset, limit int) ([]*models.User, error) {
	var result []*models.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

func (m *mockUserRepo) Count() (int64, error) {
	return int64(len(m.users)), nil
}

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

type mockCourseRepo struct {
	courses map[uint]*models.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[uint]*models.Course)}
}

func (m *mockCourseRepo) GetByID(id uint) (*models.Course, error) {
	return m.courses[id], nil
}

func (m *mockCourseRepo) GetByShortname(shortname string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Shortname == shortname {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCourseRepo) List(offset, limit int) ([]*models.Course, error) {
	var result []*models.Course
	for _, c := range m.courses {
		result = append(result, c)
	}
	return result, nil
}

type mockMemberRepo struct {
	members  map[uint]*models.CourseMember
	teachers map[uint][]*models.User
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		members:  make(map[uint]*models.CourseMember),
		teachers: make(map[uint][]*models.User),
	}
}

func (m *mockMemberRepo) GetByID(id uint) (*models.CourseMember, error) {
	return m.members[id], nil
}

func (m *mockMemberRepo) GetByCourseAndUser(courseID, userID uint) (*models.CourseMember, error) {
	for _, member := range m.members {
		if member.CourseID == courseID && member.UserID == userID {
			return member, nil
		}
	}
	return nil, nil
}

func (m *mockMemberRepo) ListTeachers(courseID uint) ([]*models.User, error) {
	return m.teachers[courseID], nil
}

func (m *mockMemberRepo) ListCoursesForUser(userID uint) ([]*models.Course, error) {
	var result []*models.Course
	for _, member := range m.members {
		if member.UserID == userID {
			course := member.Course
			result = append(result, &course)
		}
	}
	return result, nil
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

type mockTemplateRepo struct{}

func (m *mockTemplateRepo) Create(t *models.MessageTemplate) error { return nil }
func (m *mockTemplateRepo) Update(t *models.MessageTemplate) error { return nil }
func (m *mockTemplateRepo) Delete(id uint) error                   { return nil }
func (m *mockTemplateRepo) ListForCourseAndTarget(courseID uint, target string) ([]*models.MessageTemplate, error) {
	return nil, nil
}

type mockAdviceRepo struct {
	rows map[string]*models.Advice
}

func newMockAdviceRepo() *mockAdviceRepo {
	return &mockAdviceRepo{rows: make(map[string]*models.Advice)}
}

func (m *mockAdviceRepo) Create(a *models.Advice) error {
	m.rows[a.Name] = a
	return nil
}

func (m *mockAdviceRepo) GetByName(name string) (*models.Advice, error) {
	return m.rows[name], nil
}

func (m *mockAdviceRepo) Update(a *models.Advice) error {
	m.rows[a.Name] = a
	return nil
}

func (m *mockAdviceRepo) Delete(name string) error {
	delete(m.rows, name)
	return nil
}

func (m *mockAdviceRepo) List() ([]*models.Advice, error) {
	var result []*models.Advice
	for _, a := range m.rows {
		result = append(result, a)
	}
	return result, nil
}

func (m *mockAdviceRepo) ListEnabledForTarget(target string) ([]*models.Advice, error) {
	var result []*models.Advice
	for _, a := range m.rows {
		if a.Enabled && a.AppliesTo(target) {
			result = append(result, a)
		}
	}
	return result, nil
}

// mockSender records deliveries and can be told to fail.
type mockSender struct {
	sent []sentMessage
	fail bool
}

type sentMessage struct {
	userID uint
	msg    *notification.Message
}

func (m *mockSender) Send(user *models.User, msg *notification.Message) (string, error) {
	if m.fail {
		return "", errors.New("channel unavailable")
	}
	m.sent = append(m.sent, sentMessage{userID: user.ID, msg: msg})
	return "telegram:1", nil
}
