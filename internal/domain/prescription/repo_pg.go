package prescription

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartclinic/api/internal/platform/apperror"
	"github.com/smartclinic/api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	items, err := json.Marshal(p.Items)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "encode prescription items", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO prescriptions (id, appointment_id, notes, items)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.AppointmentID, p.Notes, items)
	if db.IsUniqueViolation(err) {
		return apperror.New(apperror.KindConflict, "appointment already has a prescription")
	}
	return err
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	var items []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, notes, items, created_at
		FROM prescriptions WHERE appointment_id = $1`, appointmentID).
		Scan(&p.ID, &p.AppointmentID, &p.Notes, &items, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperror.New(apperror.KindNotFound, "prescription not found")
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "decode prescription items", err)
	}
	return &p, nil
}
