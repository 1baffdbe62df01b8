package appointment

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/pkg/timeslot"
)

// Service implements booking and everything downstream of it.
type Service struct {
	repo    Repository
	doctors DoctorDirectory
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, doctors: doctors, now: time.Now}
}

// WithClock overrides the booking clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func dayWindow(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func emptySeq(func(string) bool) {}

// Availability returns the doctor's free slot labels for the day,
// sorted by start time. The sequence is restartable: every range over
// it replays the same snapshot. An unknown doctor yields an empty
// sequence, not an error.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, day time.Time) (iter.Seq[string], error) {
	slots, exists, err := s.doctors.DoctorSlots(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return emptySeq, nil
	}

	from, to := dayWindow(day)
	booked, err := s.repo.ListForDoctorBetween(ctx, doctorID, from, to, "")
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[timeslot.OfTime(a.Time)] = struct{}{}
	}

	free := make([]string, 0, len(slots))
	for _, slot := range slots {
		start := timeslot.Start(slot)
		if start == "" {
			continue
		}
		if _, ok := taken[start]; ok {
			continue
		}
		free = append(free, slot)
	}
	sort.Slice(free, func(i, j int) bool {
		return timeslot.Start(free[i]) < timeslot.Start(free[j])
	})

	return func(yield func(string) bool) {
		for _, slot := range free {
			if !yield(slot) {
				return
			}
		}
	}, nil
}

// slotOpen reports whether the doctor offers the requested time-of-day
// as a slot and it is still free on that day.
func (s *Service) slotOpen(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	free, err := s.Availability(ctx, doctorID, at)
	if err != nil {
		return false, err
	}
	want := timeslot.OfTime(at)
	for slot := range free {
		if timeslot.Start(slot) == want {
			return true, nil
		}
	}
	return false, nil
}

// BookRequest carries the fields a patient supplies when booking.
type BookRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Time      time.Time
	Notes     string
}

// Book creates a scheduled appointment. The time must be in the
// future, the doctor must exist, and the requested slot must be free.
// The advisory availability check races by design; a lost race
// surfaces as the same Conflict via the storage constraint.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.Time.IsZero() {
		return nil, apperror.New(apperror.KindValidation, "appointment time is required")
	}
	if !req.Time.After(s.now()) {
		return nil, apperror.New(apperror.KindValidation, "appointment time must be in the future")
	}
	if _, exists, err := s.doctors.DoctorSlots(ctx, req.DoctorID); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperror.New(apperror.KindNotFound, "doctor not found")
	}

	open, err := s.slotOpen(ctx, req.DoctorID, req.Time)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, apperror.New(apperror.KindConflict, "requested slot is unavailable")
	}

	a := &Appointment{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Time:      req.Time,
		Status:    StatusScheduled,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get loads one appointment. Used by the boundary for ownership checks.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update reschedules an existing appointment, overwriting its fields.
// The new time passes the same slot check as a fresh booking, skipped
// when the slot is unchanged so that editing notes alone never fails.
func (s *Service) Update(ctx context.Context, in *Appointment) (*Appointment, error) {
	existing, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Time.IsZero() {
		return nil, apperror.New(apperror.KindValidation, "appointment time is required")
	}
	if in.DoctorID == uuid.Nil {
		in.DoctorID = existing.DoctorID
	}

	sameSlot := in.DoctorID == existing.DoctorID &&
		timeslot.OfTime(in.Time) == timeslot.OfTime(existing.Time) &&
		sameDay(in.Time, existing.Time)
	if !sameSlot {
		open, err := s.slotOpen(ctx, in.DoctorID, in.Time)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, apperror.New(apperror.KindConflict, "requested slot is unavailable")
		}
	}

	existing.DoctorID = in.DoctorID
	existing.Time = in.Time
	existing.Status = in.Status
	existing.Notes = in.Notes
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Cancel deletes the patient's own appointment. A missing appointment
// is NotFound; one that exists but belongs to someone else is
// Forbidden, checked in that order so the two stay distinguishable.
func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) error {
	rows, err := s.repo.DeleteByIDAndPatient(ctx, id, patientID)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.New(apperror.KindNotFound, "appointment not found")
	}
	return apperror.New(apperror.KindForbidden, "appointment belongs to another patient")
}

// ScheduleForDay returns the doctor's appointments for one calendar
// day, optionally narrowed by a patient-name substring.
func (s *Service) ScheduleForDay(ctx context.Context, doctorID uuid.UUID, day time.Time, patientName string) ([]*Appointment, error) {
	from, to := dayWindow(day)
	return s.repo.ListForDoctorBetween(ctx, doctorID, from, to, patientName)
}

// ChangeStatus sets the appointment status, reporting whether an
// appointment was actually touched.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	rows, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// History returns the patient's appointments. condition narrows by
// lifecycle ("past"/"future", empty for all), doctorName by substring.
func (s *Service) History(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]*Appointment, error) {
	var status *Status
	if condition != "" {
		st, err := ParseCondition(condition)
		if err != nil {
			return nil, err
		}
		status = &st
	}
	return s.repo.ListByPatient(ctx, patientID, status, doctorName)
}
