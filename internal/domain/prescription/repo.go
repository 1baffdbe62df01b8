package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores prescriptions. Create surfaces a Conflict when the
// appointment already carries one; the unique index on appointment_id
// holds the invariant under concurrent issuance.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}

// StatusUpdater marks an appointment completed once its prescription
// is issued. Wired to the appointment service in main; the bool
// reports whether an appointment was actually touched.
type StatusUpdater interface {
	MarkCompleted(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}
