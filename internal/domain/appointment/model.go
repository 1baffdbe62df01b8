// Package appointment owns booking, rescheduling, cancellation,
// per-day doctor schedules, patient history and the availability
// calculation. One appointment occupies one slot for one hour; the
// (doctor, time) uniqueness lives in storage so two concurrent
// bookings of the same slot can never both land.
package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/api/internal/platform/apperror"
)

// Status tracks an appointment through its lifecycle. Stored as a
// small integer; Scheduled must stay the zero value.
type Status int

const (
	StatusScheduled Status = 0
	StatusCompleted Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseCondition maps a patient history filter word to a status.
// "future" selects scheduled appointments, "past" completed ones.
func ParseCondition(s string) (Status, error) {
	switch s {
	case "future":
		return StatusScheduled, nil
	case "past":
		return StatusCompleted, nil
	default:
		return 0, apperror.Newf(apperror.KindValidation, "condition must be past or future, got %q", s)
	}
}

// Appointment is one booked slot. DoctorName and PatientName are
// populated by list queries only and never written.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Time      time.Time `json:"appointment_time"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DoctorName  string `json:"doctor_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// EndTime is the implied end of the slot, one hour after the start.
func (a *Appointment) EndTime() time.Time {
	return a.Time.Add(time.Hour)
}
