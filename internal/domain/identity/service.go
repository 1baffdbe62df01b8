package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/auth"
	"github.com/smartclinic/api/pkg/timeslot"
)

const minPasswordLen = 6

// Service implements login, registration, roster management and the
// doctor directory filter. It also implements auth.SubjectResolver.
type Service struct {
	admins   AdminRepository
	doctors  DoctorRepository
	patients PatientRepository
	tokens   *auth.Tokens
}

func NewService(admins AdminRepository, doctors DoctorRepository, patients PatientRepository, tokens *auth.Tokens) *Service {
	return &Service{admins: admins, doctors: doctors, patients: patients, tokens: tokens}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperror.Newf(apperror.KindValidation, "password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "hash password", err)
	}
	return string(hash), nil
}

// checkPassword compares without revealing whether the account exists;
// both a missing account and a wrong password yield the same error.
func checkPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return apperror.New(apperror.KindUnauthorized, "invalid credentials")
	}
	return nil
}

// -- login --

// LoginAdmin verifies admin credentials and issues a token with the
// username as subject.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperror.New(apperror.KindValidation, "username and password are required")
	}
	a, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return "", apperror.New(apperror.KindUnauthorized, "invalid credentials")
		}
		return "", err
	}
	if err := checkPassword(a.PasswordHash, password); err != nil {
		return "", err
	}
	return s.tokens.Issue(a.Username)
}

// LoginDoctor verifies doctor credentials and issues a token with the
// email as subject.
func (s *Service) LoginDoctor(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.New(apperror.KindValidation, "email and password are required")
	}
	d, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return "", apperror.New(apperror.KindUnauthorized, "invalid credentials")
		}
		return "", err
	}
	if err := checkPassword(d.PasswordHash, password); err != nil {
		return "", err
	}
	return s.tokens.Issue(d.Email)
}

// LoginPatient verifies patient credentials and issues a token with the
// email as subject.
func (s *Service) LoginPatient(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.New(apperror.KindValidation, "email and password are required")
	}
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return "", apperror.New(apperror.KindUnauthorized, "invalid credentials")
		}
		return "", err
	}
	if err := checkPassword(p.PasswordHash, password); err != nil {
		return "", err
	}
	return s.tokens.Issue(p.Email)
}

// ResolveSubject maps a token subject to an identity of the given
// role. A subject that exists under a different role resolves to
// nothing; the caller treats that as Unauthorized.
func (s *Service) ResolveSubject(ctx context.Context, subject string, role auth.Role) (uuid.UUID, error) {
	switch role {
	case auth.RoleAdmin:
		a, err := s.admins.GetBySubject(ctx, subject)
		if err != nil {
			return uuid.Nil, err
		}
		return a.ID, nil
	case auth.RoleDoctor:
		d, err := s.doctors.GetByEmail(ctx, subject)
		if err != nil {
			return uuid.Nil, err
		}
		return d.ID, nil
	case auth.RolePatient:
		p, err := s.patients.GetByEmail(ctx, subject)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	default:
		return uuid.Nil, apperror.Newf(apperror.KindValidation, "unknown role %q", role)
	}
}

// -- admins --

// CreateAdmin seeds a back-office account. Exposed through the CLI,
// not the HTTP surface.
func (s *Service) CreateAdmin(ctx context.Context, username, email, password string) (*Admin, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperror.New(apperror.KindValidation, "username is required")
	}
	if !validEmail(email) {
		return nil, apperror.New(apperror.KindValidation, "a valid email is required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &Admin{Username: username, Email: email, PasswordHash: hash}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// -- patients --

// RegisterPatient creates a patient account. An email or phone already
// on file is a Conflict; the unique indexes back the pre-check up
// under concurrent registration.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient, password string) (*Patient, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	exists, err := s.patients.ExistsByEmailOrPhone(ctx, p.Email, p.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.New(apperror.KindConflict, "patient email or phone already registered")
	}
	p.PasswordHash = hash
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// -- doctors --

// CreateDoctor adds a practitioner to the roster. A duplicate email is
// a Conflict.
func (s *Service) CreateDoctor(ctx context.Context, d *Doctor, password string) (*Doctor, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByEmail(ctx, d.Email); err == nil {
		return nil, apperror.New(apperror.KindConflict, "doctor email already in use")
	} else if !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}
	d.PasswordHash = hash
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDoctor overwrites the roster entry. Password is untouched.
func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.ID == uuid.Nil {
		return nil, apperror.New(apperror.KindValidation, "doctor id is required")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	existing, err := s.doctors.GetByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.PasswordHash = existing.PasswordHash
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes the roster entry; the doctor's appointments go
// with it via the storage cascade.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	rows, err := s.doctors.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.New(apperror.KindNotFound, "doctor not found")
	}
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// FilterDoctors applies up to three optional predicates conjunctively:
// name substring, working period (am/pm), exact specialty. All absent
// returns the whole roster. A doctor matches "am" when any configured
// slot starts before noon, "pm" when any starts at noon or later.
func (s *Service) FilterDoctors(ctx context.Context, name, period, specialty string) ([]*Doctor, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period != "" && period != "am" && period != "pm" {
		return nil, apperror.Newf(apperror.KindValidation, "period must be am or pm, got %q", period)
	}

	doctors, err := s.doctors.Search(ctx, name, specialty)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return doctors, nil
	}

	matched := make([]*Doctor, 0, len(doctors))
	for _, d := range doctors {
		if worksInPeriod(d, period) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func worksInPeriod(d *Doctor, period string) bool {
	for _, slot := range d.AvailableTimes {
		h, err := timeslot.Hour(slot)
		if err != nil {
			continue
		}
		if (period == "am" && h < 12) || (period == "pm" && h >= 12) {
			return true
		}
	}
	return false
}
