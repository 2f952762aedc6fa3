package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("MEDBOOK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MEDBOOK_TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewMigrator(db).Up(context.Background())
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE appointments, doctors, specialties, users CASCADE`)
	require.NoError(t, err)
	return db
}

func TestMigratorLoadsEmbeddedFiles(t *testing.T) {
	migrations, err := NewMigrator(nil).Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS appointments")
}

func TestAppointmentWhere(t *testing.T) {
	doctorID := uuid.New()
	status := model.AppointmentStatusPending
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := appointmentWhere(model.AppointmentFilter{DoctorID: &doctorID, Status: &status, From: &from})

	assert.Equal(t, " WHERE 1=1 AND a.doctor_id = $1 AND a.status = $2 AND a.date_time >= $3", where)
	assert.Equal(t, []interface{}{doctorID, status, from}, args)
}

func TestStoreRoundTrip(t *testing.T) {
	db := testDB(t)
	store := NewStore(db)
	ctx := context.Background()

	spec := &model.Specialty{Name: "Cardiology"}
	require.NoError(t, store.Specialties.Create(ctx, spec))

	client := &model.User{Email: "client@example.com", PasswordHash: "x", Role: model.RoleClient, IsActive: true}
	require.NoError(t, store.Users.Create(ctx, client))

	dup := &model.User{Email: "client@example.com", PasswordHash: "x", Role: model.RoleClient}
	err := store.Users.Create(ctx, dup)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	doctorUser := &model.User{Email: "doc@example.com", PasswordHash: "x", Role: model.RoleDoctor, IsActive: true}
	doctor := &model.Doctor{
		FirstName:    "Ada",
		LastName:     "Smith",
		Email:        "doc@example.com",
		SpecialtyID:  spec.ID,
		Availability: model.Availability{"2025-06-01": {"09:00"}},
	}
	require.NoError(t, store.Doctors.CreateWithUser(ctx, doctor, doctorUser))

	view, err := store.Doctors.Get(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", view.SpecialtyName)
	assert.Equal(t, []string{"09:00"}, view.Availability["2025-06-01"])

	at := time.Now().Add(24 * time.Hour).Truncate(time.Second).UTC()
	apt := &model.Appointment{ClientID: client.ID, DoctorID: doctor.ID, DateTime: at, Status: model.AppointmentStatusPending}
	require.NoError(t, store.Appointments.Create(ctx, apt))

	exists, err := store.Appointments.ExistsAtSlot(ctx, doctor.ID, at, nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Appointments.ExistsAtSlot(ctx, doctor.ID, at, &apt.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Specialties.Delete(ctx, spec.ID)
	assert.True(t, errors.Is(err, repository.ErrReferenced))

	require.NoError(t, store.Doctors.Delete(ctx, doctor.ID))
	_, err = store.Appointments.Get(ctx, apt.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
