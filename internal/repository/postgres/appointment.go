package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
)

const appointmentDetailQuery = `
	SELECT a.id, a.client_id, a.doctor_id, a.date_time, a.status, a.created_at, a.updated_at,
		TRIM(u.first_name || ' ' || u.last_name) AS client_name,
		u.email AS client_email,
		TRIM(d.first_name || ' ' || d.last_name) AS doctor_name,
		s.name AS specialty_name
	FROM appointments a
	JOIN users u ON u.id = a.client_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN specialties s ON s.id = d.specialty_id
`

var appointmentOrderings = map[string]string{
	model.OrderDateTimeAsc:   "a.date_time ASC",
	model.OrderDateTimeDesc:  "a.date_time DESC",
	model.OrderCreatedAtDesc: "a.created_at DESC",
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, client_id, doctor_id, date_time, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	appointment.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClientID,
		appointment.DoctorID,
		appointment.DateTime,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, client_id, doctor_id, date_time, status, created_at, updated_at
		FROM appointments WHERE id = $1
	`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	query := appointmentDetailQuery + ` WHERE a.id = $1`

	var appointment model.AppointmentDetail
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment detail: %w", mapError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments SET
			date_time = $1,
			status = $2,
			updated_at = $3
		WHERE id = $4
	`

	appointment.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		appointment.DateTime,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", mapError(err))
	}
	return expectOne(res)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return expectOne(res)
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	where, args := appointmentWhere(filter)
	query := appointmentDetailQuery + where

	order, ok := appointmentOrderings[filter.OrderBy]
	if !ok {
		order = appointmentOrderings[model.OrderDateTimeAsc]
	}
	query += " ORDER BY " + order

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	appointments := []*model.AppointmentDetail{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Count(ctx context.Context, filter model.AppointmentFilter) (int, error) {
	where, args := appointmentWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM appointments a`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountDistinctClients(ctx context.Context, doctorID uuid.UUID) (int, error) {
	query := `SELECT COUNT(DISTINCT client_id) FROM appointments WHERE doctor_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID); err != nil {
		return 0, fmt.Errorf("failed to count doctor patients: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) ExistsAtSlot(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date_time = $2 AND status <> $3
	`
	args := []interface{}{doctorID, at, model.AppointmentStatusCancelled}

	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += ")"

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func appointmentWhere(filter model.AppointmentFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where += fmt.Sprintf(" AND a.client_id = $%d", len(args))
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		where += fmt.Sprintf(" AND a.doctor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND a.date_time >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND a.date_time < $%d", len(args))
	}

	return where, args
}
