package event

import (
	"testing"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/lib/pq"
)

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
	return nil, nil
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
	return nil, nil
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

func (m *mockInterventionRepo) SetMessageRef(id uint, ref string) error          { return nil }
func (m *mockInterventionRepo) SetTeachersInformed(id uint, informed bool) error { return nil }
func (m *mockInterventionRepo) SetHelpful(id uint, helpful bool) error           { return nil }
func (m *mockInterventionRepo) CountByState(state string) (int64, error)         { return 0, nil }
func (m *mockInterventionRepo) CountByRecipientAndState(recipientID uint, state string) (int64, error) {
	return 0, nil
}
func (m *mockInterventionRepo) DeleteTerminalOlderThan(days int) error { return nil }

type mockEventRepo struct {
	events []*models.UserEvent
}

func (m *mockEventRepo) Create(e *models.UserEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockEventRepo) CountRecentByUser(userID uint, since time.Time) (int64, error) {
	return int64(len(m.events)), nil
}

func (m *mockEventRepo) DeleteOld(days int) error { return nil }

type mockUserRepo struct {
	touched map[uint]time.Time
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{touched: make(map[uint]time.Time)}
}

func (m *mockUserRepo) Create(u *models.User) error                           { return nil }
func (m *mockUserRepo) GetByID(id uint) (*models.User, error)                 { return nil, nil }
func (m *mockUserRepo) GetByUsername(username string) (*models.User, error)   { return nil, nil }
func (m *mockUserRepo) GetByTelegramID(id int64) (*models.User, error)        { return nil, nil }
func (m *mockUserRepo) GetBySignalNumber(number string) (*models.User, error) { return nil, nil }
func (m *mockUserRepo) Update(u *models.User) error                           { return nil }

func (m *mockUserRepo) TouchLastAccess(id uint, at time.Time) error {
	m.touched[id] = at
	return nil
}

func (m *mockUserRepo) List(offset, limit int) ([]*models.User, error) { return nil, nil }
func (m *mockUserRepo) Count() (int64, error)                          { return 0, nil }

func seedIntervened(repo *mockInterventionRepo, recipientID, contextID uint, events ...string) *models.Intervention {
	i := &models.Intervention{
		RecipientID:   recipientID,
		ContextID:     contextID,
		Target:        "no_recent_accesses",
		DesiredEvents: pq.StringArray(events),
		State:         models.InterventionStateIntervened,
	}
	repo.Create(i)
	return i
}

func TestHandleEventResolvesMatchingInterventions(t *testing.T) {
	repo := newMockInterventionRepo()
	events := &mockEventRepo{}
	users := newMockUserRepo()
	detector := NewDetector(repo, events, users)

	matching := seedIntervened(repo, 1, 10, models.EventCourseViewed)
	otherEvent := seedIntervened(repo, 1, 10, models.EventForumPostCreated)

	resolved, err := detector.HandleEvent(models.EventCourseViewed, 1, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("expected 1 resolved, got %d", resolved)
	}

	if got := repo.interventions[matching.ID].State; got != models.InterventionStateSuccessful {
		t.Errorf("expected matching intervention successful, got %s", got)
	}
	if got := repo.interventions[otherEvent.ID].State; got != models.InterventionStateIntervened {
		t.Errorf("expected non-matching intervention untouched, got %s", got)
	}

	if len(events.events) != 1 {
		t.Errorf("expected the event to be persisted, got %d records", len(events.events))
	}
	if _, ok := users.touched[1]; !ok {
		t.Error("expected last access to be updated")
	}
}

func TestHandleEventRespectsContextScope(t *testing.T) {
	repo := newMockInterventionRepo()
	detector := NewDetector(repo, &mockEventRepo{}, newMockUserRepo())

	courseBound := seedIntervened(repo, 1, 10, models.EventCourseViewed)
	siteWide := seedIntervened(repo, 1, 0, models.EventCourseViewed)

	// Event from a different course: only the site-wide record resolves.
	resolved, err := detector.HandleEvent(models.EventCourseViewed, 1, 20, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("expected 1 resolved, got %d", resolved)
	}

	if got := repo.interventions[courseBound.ID].State; got != models.InterventionStateIntervened {
		t.Errorf("expected course-bound intervention untouched, got %s", got)
	}
	if got := repo.interventions[siteWide.ID].State; got != models.InterventionStateSuccessful {
		t.Errorf("expected site-wide intervention successful, got %s", got)
	}
}

func TestHandleEventIgnoresOtherRecipients(t *testing.T) {
	repo := newMockInterventionRepo()
	detector := NewDetector(repo, &mockEventRepo{}, newMockUserRepo())

	other := seedIntervened(repo, 2, 10, models.EventCourseViewed)

	resolved, err := detector.HandleEvent(models.EventCourseViewed, 1, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("expected 0 resolved, got %d", resolved)
	}
	if got := repo.interventions[other.ID].State; got != models.InterventionStateIntervened {
		t.Errorf("expected other recipient's intervention untouched, got %s", got)
	}
}
