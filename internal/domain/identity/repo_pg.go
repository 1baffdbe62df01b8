package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/db"
)

// -- admins --

type adminRepoPG struct{ pool *pgxpool.Pool }

func NewAdminRepoPG(pool *pgxpool.Pool) AdminRepository {
	return &adminRepoPG{pool: pool}
}

const adminCols = `id, username, email, password_hash, created_at, updated_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.CreatedAt, &a.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperror.New(apperror.KindNotFound, "admin not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *adminRepoPG) Create(ctx context.Context, a *Admin) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admins (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Username, a.Email, a.PasswordHash)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "admin username or email already in use")
	}
	return err
}

func (r *adminRepoPG) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminCols+` FROM admins WHERE LOWER(username) = LOWER($1)`, username))
}

func (r *adminRepoPG) GetBySubject(ctx context.Context, subject string) (*Admin, error) {
	return scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminCols+` FROM admins
		 WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`, subject))
}

// -- doctors --

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, name, specialty, email, password_hash, phone,
	available_times, years_of_experience, clinic_address, rating,
	created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.PasswordHash,
		&d.Phone, &d.AvailableTimes, &d.YearsOfExperience,
		&d.ClinicAddress, &d.Rating, &d.CreatedAt, &d.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperror.New(apperror.KindNotFound, "doctor not found")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, email, password_hash, phone,
			available_times, years_of_experience, clinic_address, rating)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.Name, d.Specialty, d.Email, d.PasswordHash, d.Phone,
		d.AvailableTimes, d.YearsOfExperience, d.ClinicAddress, d.Rating)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "doctor email already in use")
	}
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctors SET name=$2, specialty=$3, email=$4, phone=$5,
			available_times=$6, years_of_experience=$7, clinic_address=$8,
			rating=$9, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Specialty, d.Email, d.Phone,
		d.AvailableTimes, d.YearsOfExperience, d.ClinicAddress, d.Rating)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "doctor email already in use")
	}
	return err
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctors ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectDoctors(rows)
	return items, total, err
}

func (r *doctorRepoPG) Search(ctx context.Context, name, specialty string) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	args := []interface{}{}
	if name != "" {
		args = append(args, "%"+name+"%")
		query += ` AND name ILIKE $1`
	}
	if specialty != "" {
		args = append(args, specialty)
		if name != "" {
			query += ` AND LOWER(specialty) = LOWER($2)`
		} else {
			query += ` AND LOWER(specialty) = LOWER($1)`
		}
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func collectDoctors(rows pgx.Rows) ([]*Doctor, error) {
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// -- patients --

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, email, password_hash, phone, address,
	date_of_birth, emergency_contact, emergency_contact_phone,
	insurance_provider, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Phone,
		&p.Address, &p.DateOfBirth, &p.EmergencyContact,
		&p.EmergencyContactPhone, &p.InsuranceProvider,
		&p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperror.New(apperror.KindNotFound, "patient not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, password_hash, phone, address,
			date_of_birth, emergency_contact, emergency_contact_phone,
			insurance_provider)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Phone, p.Address,
		p.DateOfBirth, p.EmergencyContact, p.EmergencyContactPhone,
		p.InsuranceProvider)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "patient email or phone already registered")
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *patientRepoPG) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE LOWER(email) = LOWER($1) OR ($2 <> '' AND phone = $2)
		)`, email, phone).Scan(&exists)
	return exists, err
}
