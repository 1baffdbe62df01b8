// Package identity owns the three account types served by the API and
// everything derived from them: login, patient registration, the
// admin-managed doctor roster, and the public doctor directory with
// its name/period/specialty filter. The service also resolves token
// subjects to identities for the auth middleware.
package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/pkg/timeslot"
)

// Admin is a back-office account. Admins log in by username; the
// username doubles as the token subject.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Doctor is a practitioner listed in the public directory. The
// AvailableTimes slots are the doctor's configured working hours;
// subtracting booked appointments from them yields availability.
type Doctor struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Specialty         string    `json:"specialty"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Phone             string    `json:"phone,omitempty"`
	AvailableTimes    []string  `json:"available_times"`
	YearsOfExperience int       `json:"years_of_experience,omitempty"`
	ClinicAddress     string    `json:"clinic_address,omitempty"`
	Rating            float64   `json:"rating,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Patient is a self-registered account that books appointments.
type Patient struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	Phone                 string     `json:"phone,omitempty"`
	Address               string     `json:"address,omitempty"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty"`
	EmergencyContact      string     `json:"emergency_contact,omitempty"`
	EmergencyContactPhone string     `json:"emergency_contact_phone,omitempty"`
	InsuranceProvider     string     `json:"insurance_provider,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (d *Doctor) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperror.New(apperror.KindValidation, "name is required")
	}
	if strings.TrimSpace(d.Specialty) == "" {
		return apperror.New(apperror.KindValidation, "specialty is required")
	}
	if !validEmail(d.Email) {
		return apperror.New(apperror.KindValidation, "a valid email is required")
	}
	for _, slot := range d.AvailableTimes {
		if !timeslot.Valid(slot) {
			return apperror.Newf(apperror.KindValidation, "malformed availability slot %q", slot)
		}
	}
	return nil
}

func (p *Patient) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.New(apperror.KindValidation, "name is required")
	}
	if !validEmail(p.Email) {
		return apperror.New(apperror.KindValidation, "a valid email is required")
	}
	return nil
}
