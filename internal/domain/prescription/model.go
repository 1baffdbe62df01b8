// Package prescription links at most one prescription to each
// appointment. Issuing one marks the appointment completed as a
// side effect; retrieval is zero-or-one by appointment.
package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/api/internal/platform/apperror"
)

// Item is one prescribed medication line.
type Item struct {
	Drug      string `json:"drug"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Prescription is the single prescription attached to an appointment.
// Items is stored as a JSONB document.
type Prescription struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Notes         string    `json:"notes,omitempty"`
	Items         []Item    `json:"items"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Prescription) validate() error {
	if p.AppointmentID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "appointment_id is required")
	}
	for _, item := range p.Items {
		if item.Drug == "" {
			return apperror.New(apperror.KindValidation, "every prescription item needs a drug name")
		}
	}
	return nil
}
