package class_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userix/userix/internal/class"
)

var classColumns = []string{"id", "tenant_id", "name", "year", "description", "is_active", "created_at", "updated_at"}

func setupClassRepo(t *testing.T) (class.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return class.NewRepository(mock), mock
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	desc := strPtr("Programmierung 1")

	mock.ExpectQuery("INSERT INTO classes").
		WithArgs(tenantID, "PR1", 2024, desc).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_active", "created_at", "updated_at"}).
			AddRow(id, true, now, now))

	c := &class.Class{TenantID: tenantID, Name: "PR1", Year: 2024, Description: desc}
	require.NoError(t, repo.Create(context.Background(), c))

	assert.Equal(t, id, c.ID)
	assert.True(t, c.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := setupClassRepo(t)

	mock.ExpectQuery("INSERT INTO classes").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &class.Class{TenantID: uuid.New(), Name: "PR1", Year: 2024})
	assert.ErrorIs(t, err, class.ErrDuplicateClass)
}

func TestCreate_TenantGone(t *testing.T) {
	repo, mock := setupClassRepo(t)

	mock.ExpectQuery("INSERT INTO classes").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "classes_tenant_id_fkey"})

	err := repo.Create(context.Background(), &class.Class{TenantID: uuid.New(), Name: "PR1", Year: 2024})
	assert.ErrorIs(t, err, class.ErrUnknownTenant)
}

func TestGetByID_ScopedToTenant(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM classes WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs(tenantID, id).
		WillReturnRows(pgxmock.NewRows(classColumns).
			AddRow(id, tenantID, "PR1", 2024, (*string)(nil), true, now, now))

	c, err := repo.GetByID(context.Background(), tenantID, id)
	require.NoError(t, err)
	assert.Equal(t, "PR1", c.Name)
	assert.Nil(t, c.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_OtherTenant(t *testing.T) {
	repo, mock := setupClassRepo(t)
	otherTenant := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM classes").
		WithArgs(otherTenant, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), otherTenant, id)
	assert.ErrorIs(t, err, class.ErrClassNotFound)
}

func TestList(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM classes WHERE tenant_id = \\$1 ORDER BY year, name").
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows(classColumns).
			AddRow(uuid.New(), tenantID, "PR1", 2023, (*string)(nil), true, now, now).
			AddRow(uuid.New(), tenantID, "PR2", 2024, strPtr("Zweites Jahr"), true, now, now))

	classes, err := repo.List(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "PR1", classes[0].Name)
	require.NotNil(t, classes[1].Description)
	assert.Equal(t, "Zweites Jahr", *classes[1].Description)
}

func TestList_Empty(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM classes").
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows(classColumns))

	classes, err := repo.List(context.Background(), tenantID)
	require.NoError(t, err)
	assert.NotNil(t, classes)
	assert.Empty(t, classes)
}

func TestUpdate(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	year := 2025
	active := false

	mock.ExpectQuery("UPDATE classes SET year = \\$1, is_active = \\$2, updated_at = NOW\\(\\) WHERE tenant_id = \\$3 AND id = \\$4").
		WithArgs(year, active, tenantID, id).
		WillReturnRows(pgxmock.NewRows(classColumns).
			AddRow(id, tenantID, "PR1", year, (*string)(nil), active, now, now))

	c, err := repo.Update(context.Background(), tenantID, id, class.UpdateFields{Year: &year, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 2025, c.Year)
	assert.False(t, c.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := setupClassRepo(t)
	name := "X"

	mock.ExpectQuery("UPDATE classes").
		WithArgs(name, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), class.UpdateFields{Name: &name})
	assert.ErrorIs(t, err, class.ErrClassNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := setupClassRepo(t)
	tenantID := uuid.New()
	id := uuid.New()

	mock.ExpectExec("DELETE FROM classes WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs(tenantID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM classes").
		WithArgs(tenantID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), tenantID, id))
	assert.ErrorIs(t, repo.Delete(context.Background(), tenantID, id), class.ErrClassNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
