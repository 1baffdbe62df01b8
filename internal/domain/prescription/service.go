package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartclinic/api/internal/platform/apperror"
)

// Service implements prescription issuance and retrieval.
type Service struct {
	repo         Repository
	appointments StatusUpdater
	logger       zerolog.Logger
}

func NewService(repo Repository, appointments StatusUpdater, logger zerolog.Logger) *Service {
	return &Service{repo: repo, appointments: appointments, logger: logger}
}

// Issue stores the prescription and then marks its appointment
// completed. A second prescription for the same appointment is a
// Conflict. The status update is a side effect, not part of the write:
// if it fails the prescription stands and the failure is logged,
// leaving the status change to a later retry through the schedule.
func (s *Service) Issue(ctx context.Context, p *Prescription) error {
	if err := p.validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByAppointment(ctx, p.AppointmentID); err == nil {
		return apperror.New(apperror.KindConflict, "appointment already has a prescription")
	} else if !apperror.Is(err, apperror.KindNotFound) {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	touched, err := s.appointments.MarkCompleted(ctx, p.AppointmentID)
	if err != nil || !touched {
		s.logger.Warn().
			Err(err).
			Str("appointment_id", p.AppointmentID.String()).
			Str("prescription_id", p.ID.String()).
			Msg("prescription issued but appointment status update did not land")
	}
	return nil
}

// Retrieve returns the appointment's prescription, or nil when none
// has been issued yet. Absence is an answer here, not an error.
func (s *Service) Retrieve(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByAppointment(ctx, appointmentID)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
