package appointment

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/pkg/timeslot"
)

// -- Mock repository --

type mockRepo struct {
	store map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) slotTaken(doctorID uuid.UUID, at time.Time, exclude uuid.UUID) bool {
	for _, a := range m.store {
		if a.ID != exclude && a.DoctorID == doctorID && a.Time.Equal(at) {
			return true
		}
	}
	return false
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if m.slotTaken(a.DoctorID, a.Time, uuid.Nil) {
		return apperror.New(apperror.KindConflict, "slot already booked")
	}
	a.ID = uuid.New()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.store[a.ID]; !ok {
		return apperror.New(apperror.KindNotFound, "appointment not found")
	}
	if m.slotTaken(a.DoctorID, a.Time, a.ID) {
		return apperror.New(apperror.KindConflict, "slot already booked")
	}
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.store[id]
	return ok, nil
}

func (m *mockRepo) DeleteByIDAndPatient(_ context.Context, id, patientID uuid.UUID) (int64, error) {
	a, ok := m.store[id]
	if !ok || a.PatientID != patientID {
		return 0, nil
	}
	delete(m.store, id)
	return 1, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (int64, error) {
	a, ok := m.store[id]
	if !ok {
		return 0, nil
	}
	a.Status = status
	return 1, nil
}

func (m *mockRepo) ListForDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.store {
		if a.DoctorID != doctorID || a.Time.Before(from) || !a.Time.Before(to) {
			continue
		}
		if patientName != "" && !strings.Contains(strings.ToLower(a.PatientName), strings.ToLower(patientName)) {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status *Status, doctorName string) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.store {
		if a.PatientID != patientID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		if doctorName != "" && !strings.Contains(strings.ToLower(a.DoctorName), strings.ToLower(doctorName)) {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, nil
}

// -- Mock directory --

type mockDirectory struct {
	slots map[uuid.UUID][]string
}

func (m *mockDirectory) DoctorSlots(_ context.Context, doctorID uuid.UUID) ([]string, bool, error) {
	s, ok := m.slots[doctorID]
	return s, ok, nil
}

// -- Fixtures --

var testNow = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestService(slots map[uuid.UUID][]string) (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, &mockDirectory{slots: slots}).
		WithClock(func() time.Time { return testNow })
	return svc, repo
}

func at(day int, hour int) time.Time {
	return time.Date(2025, 9, day, hour, 0, 0, 0, time.UTC)
}

func collect(seq func(func(string) bool)) []string {
	var out []string
	seq(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

// -- Tests --

func TestAvailabilityExcludesBookedSlots(t *testing.T) {
	doctorID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID][]string{
		doctorID: {"14:00", "09:00"},
	})

	repo.store[uuid.New()] = &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: uuid.New(),
		Time: at(13, 9),
	}

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := collect(free)
	if !slices.Equal(got, []string{"14:00"}) {
		t.Errorf("availability = %v, want [14:00]", got)
	}
}

func TestAvailabilitySortedAndRestartable(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{
		doctorID: {"16:00", "09:00", "11:00"},
	})

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"09:00", "11:00", "16:00"}
	if got := collect(free); !slices.Equal(got, want) {
		t.Errorf("availability = %v, want %v", got, want)
	}
	// A second range over the same sequence replays it.
	if got := collect(free); !slices.Equal(got, want) {
		t.Errorf("second pass = %v, want %v", got, want)
	}
}

func TestUnpaddedSlotLabelsBookAndSortByTimeOfDay(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{
		doctorID: {"14:00", "9:00"},
	})

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "9:00" precedes "14:00" in time of day even though it follows it
	// byte-wise.
	want := []string{"9:00", "14:00"}
	if got := collect(free); !slices.Equal(got, want) {
		t.Errorf("availability = %v, want %v", got, want)
	}

	req := BookRequest{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Time:      at(13, 9),
	}
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("booking a single-digit-hour slot failed: %v", err)
	}

	free, err = svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(free); !slices.Equal(got, []string{"14:00"}) {
		t.Errorf("availability after booking = %v, want [14:00]", got)
	}
}

func TestAvailabilityUnknownDoctorIsEmpty(t *testing.T) {
	svc, _ := newTestService(map[uuid.UUID][]string{})

	free, err := svc.Availability(context.Background(), uuid.New(), at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(free); len(got) != 0 {
		t.Errorf("availability = %v, want empty", got)
	}
}

func TestBookRemovesSlotFromAvailability(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{
		doctorID: {"09:00", "14:00"},
	})

	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %v, want scheduled", a.Status)
	}

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(free); !slices.Equal(got, []string{"14:00"}) {
		t.Errorf("availability after booking = %v, want [14:00]", got)
	}
}

func TestBookSameSlotTwiceConflicts(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	req := BookRequest{DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 9)}
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	req.PatientID = uuid.New()
	if _, err := svc.Book(context.Background(), req); !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("second booking = %v, want conflict", err)
	}
}

func TestBookSameSlotDifferentDayIsFine(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	if _, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 9),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(14, 9),
	}); err != nil {
		t.Errorf("next-day booking failed: %v", err)
	}
}

func TestBookRejectsPastTime(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(),
		Time: testNow.Add(-time.Hour),
	})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("past booking = %v, want validation error", err)
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	svc, _ := newTestService(map[uuid.UUID][]string{})

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: uuid.New(), PatientID: uuid.New(), Time: at(13, 9),
	})
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("unknown doctor = %v, want not found", err)
	}
}

func TestBookOutsideConfiguredSlots(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 15),
	})
	if !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("off-slot booking = %v, want conflict", err)
	}
}

func TestCancelDistinguishesMissingFromForeign(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	owner := uuid.New()
	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: owner, Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	if err := svc.Cancel(context.Background(), uuid.New(), owner); !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("missing appointment = %v, want not found", err)
	}
	if err := svc.Cancel(context.Background(), a.ID, uuid.New()); !apperror.Is(err, apperror.KindForbidden) {
		t.Errorf("foreign appointment = %v, want forbidden", err)
	}
	if err := svc.Cancel(context.Background(), a.ID, owner); err != nil {
		t.Errorf("own appointment = %v, want success", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	owner := uuid.New()
	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: owner, Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if err := svc.Cancel(context.Background(), a.ID, owner); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(free); !slices.Equal(got, []string{"09:00"}) {
		t.Errorf("availability after cancel = %v, want [09:00]", got)
	}
}

func TestUpdateMovesAppointment(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00", "14:00"}})

	owner := uuid.New()
	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: owner, Time: at(13, 9), Notes: "checkup",
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), &Appointment{
		ID: a.ID, DoctorID: doctorID, PatientID: owner,
		Time: at(13, 14), Notes: "moved",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if timeslot.OfTime(updated.Time) != "14:00" || updated.Notes != "moved" {
		t.Errorf("update did not overwrite fields: %+v", updated)
	}

	free, err := svc.Availability(context.Background(), doctorID, at(13, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(free); !slices.Equal(got, []string{"09:00"}) {
		t.Errorf("availability after move = %v, want [09:00]", got)
	}
}

func TestUpdateToTakenSlotConflicts(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00", "14:00"}})

	if _, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 14),
	}); err != nil {
		t.Fatalf("book failed: %v", err)
	}

	owner := uuid.New()
	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: owner, Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	_, err = svc.Update(context.Background(), &Appointment{
		ID: a.ID, DoctorID: doctorID, PatientID: owner, Time: at(13, 14),
	})
	if !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("update to taken slot = %v, want conflict", err)
	}
}

func TestUpdateNotesOnlyKeepsSlot(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	owner := uuid.New()
	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: owner, Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), &Appointment{
		ID: a.ID, DoctorID: doctorID, PatientID: owner,
		Time: at(13, 9), Notes: "bring previous scans",
	})
	if err != nil {
		t.Fatalf("notes-only update failed: %v", err)
	}
	if updated.Notes != "bring previous scans" {
		t.Errorf("notes = %q", updated.Notes)
	}
}

func TestUpdateMissingAppointment(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	_, err := svc.Update(context.Background(), &Appointment{
		ID: uuid.New(), DoctorID: doctorID, Time: at(13, 9),
	})
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Errorf("update missing = %v, want not found", err)
	}
}

func TestChangeStatus(t *testing.T) {
	doctorID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID][]string{doctorID: {"09:00"}})

	a, err := svc.Book(context.Background(), BookRequest{
		DoctorID: doctorID, PatientID: uuid.New(), Time: at(13, 9),
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	touched, err := svc.ChangeStatus(context.Background(), a.ID, StatusCompleted)
	if err != nil || !touched {
		t.Fatalf("change status = (%v, %v), want touched", touched, err)
	}
	got, err := svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %v, want completed", got.Status)
	}

	touched, err = svc.ChangeStatus(context.Background(), uuid.New(), StatusCompleted)
	if err != nil || touched {
		t.Errorf("missing appointment = (%v, %v), want untouched", touched, err)
	}
}

func TestHistoryFilters(t *testing.T) {
	doctorID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID][]string{doctorID: {"09:00", "10:00"}})

	patientID := uuid.New()
	past := &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: patientID,
		Time: at(2, 9), Status: StatusCompleted, DoctorName: "Dr. Lee",
	}
	future := &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: patientID,
		Time: at(20, 10), Status: StatusScheduled, DoctorName: "Dr. Lee",
	}
	repo.store[past.ID] = past
	repo.store[future.ID] = future

	all, err := svc.History(context.Background(), patientID, "", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("unfiltered history = (%d, %v), want 2", len(all), err)
	}

	futureOnly, err := svc.History(context.Background(), patientID, "future", "")
	if err != nil || len(futureOnly) != 1 || futureOnly[0].Status != StatusScheduled {
		t.Fatalf("future history = (%v, %v), want one scheduled", futureOnly, err)
	}

	pastOnly, err := svc.History(context.Background(), patientID, "past", "lee")
	if err != nil || len(pastOnly) != 1 || pastOnly[0].Status != StatusCompleted {
		t.Fatalf("past history = (%v, %v), want one completed", pastOnly, err)
	}

	if _, err := svc.History(context.Background(), patientID, "soonish", ""); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("bad condition = %v, want validation error", err)
	}
}

func TestScheduleForDayFiltersByPatientName(t *testing.T) {
	doctorID := uuid.New()
	svc, repo := newTestService(map[uuid.UUID][]string{doctorID: {"09:00", "10:00"}})

	a := &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: uuid.New(),
		Time: at(13, 9), PatientName: "Asha Rao",
	}
	b := &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: uuid.New(),
		Time: at(13, 10), PatientName: "Ben Okafor",
	}
	repo.store[a.ID] = a
	repo.store[b.ID] = b

	day, err := svc.ScheduleForDay(context.Background(), doctorID, at(13, 0), "")
	if err != nil || len(day) != 2 {
		t.Fatalf("full day = (%d, %v), want 2", len(day), err)
	}

	named, err := svc.ScheduleForDay(context.Background(), doctorID, at(13, 0), "asha")
	if err != nil || len(named) != 1 || named[0].PatientName != "Asha Rao" {
		t.Fatalf("named day = (%v, %v), want Asha only", named, err)
	}
}
