package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const apptCols = `a.id, a.doctor_id, a.patient_id, a.appointment_time,
	a.status, a.notes, a.created_at, a.updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Time,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperror.New(apperror.KindNotFound, "appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanApptWithNames(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Time,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		&a.DoctorName, &a.PatientName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_time, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.DoctorID, a.PatientID, a.Time, a.Status, a.Notes)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "slot already booked")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a WHERE a.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET doctor_id=$2, patient_id=$3, appointment_time=$4, status=$5,
			notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.DoctorID, a.PatientID, a.Time, a.Status, a.Notes)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "slot already booked")
	}
	return err
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repoPG) DeleteByIDAndPatient(ctx context.Context, id, patientID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*Appointment, error) {
	query := `
		SELECT ` + apptCols + `, d.name, p.name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		  AND a.appointment_time >= $2 AND a.appointment_time < $3`
	args := []interface{}{doctorID, from, to}
	if patientName != "" {
		args = append(args, "%"+patientName+"%")
		query += ` AND p.name ILIKE $4`
	}
	query += ` ORDER BY a.appointment_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithNames(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status *Status, doctorName string) ([]*Appointment, error) {
	query := `
		SELECT ` + apptCols + `, d.name, p.name
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1`
	args := []interface{}{patientID}
	if status != nil {
		args = append(args, *status)
		query += ` AND a.status = $2`
	}
	if doctorName != "" {
		args = append(args, "%"+doctorName+"%")
		if status != nil {
			query += ` AND d.name ILIKE $3`
		} else {
			query += ` AND d.name ILIKE $2`
		}
	}
	query += ` ORDER BY a.appointment_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithNames(rows)
}

func collectWithNames(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanApptWithNames(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
