package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores appointments. Create and Update surface a Conflict
// when the (doctor, time) slot is already taken; that constraint, not
// the service's advisory checks, is what makes double booking
// impossible under concurrency.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteByIDAndPatient deletes only when the appointment belongs to
	// the patient, returning the rows removed.
	DeleteByIDAndPatient(ctx context.Context, id, patientID uuid.UUID) (int64, error)
	// UpdateStatus returns the rows changed; zero means no such
	// appointment.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error)
	// ListForDoctorBetween returns a doctor's appointments in
	// [from, to), optionally narrowed by a patient-name substring.
	ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*Appointment, error)
	// ListByPatient returns a patient's appointments, optionally
	// narrowed by status and by a doctor-name substring.
	ListByPatient(ctx context.Context, patientID uuid.UUID, status *Status, doctorName string) ([]*Appointment, error)
}

// DoctorDirectory supplies the configured slots for a doctor. Wired to
// the identity service in main; the second return reports whether the
// doctor exists at all.
type DoctorDirectory interface {
	DoctorSlots(ctx context.Context, doctorID uuid.UUID) ([]string, bool, error)
}
