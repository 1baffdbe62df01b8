package identity

import (
	"context"

	"github.com/google/uuid"
)

// AdminRepository stores back-office accounts. Lookups are
// case-insensitive on the subject columns.
type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	// GetBySubject matches username or email, either one case-insensitively.
	GetBySubject(ctx context.Context, subject string) (*Admin, error)
}

// DoctorRepository stores the practitioner roster.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	// Search filters by optional name substring (case-insensitive) and
	// optional exact specialty (case-insensitive). Empty strings mean
	// no filter on that field.
	Search(ctx context.Context, name, specialty string) ([]*Doctor, error)
}

// PatientRepository stores self-registered patient accounts.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}
