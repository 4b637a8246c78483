package student_test

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

	"github.com/userix/userix/internal/student"
)

var studentColumns = []string{
	"id", "tenant_id", "student_number", "first_name", "last_name", "email",
	"ipad_code", "class_id", "class_addition", "teacher_id", "created_at", "updated_at",
}

func setupStudentRepo(t *testing.T) (student.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return student.NewRepository(mock), mock
}

func TestCreate(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	classID := uuid.New()
	teacherID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	addition := "A"

	mock.ExpectQuery("INSERT INTO students").
		WithArgs(tenantID, "STU-1700000000000-AB12", "Max", "Mustermann", "max@schule.de", "1234", &classID, &addition, &teacherID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

	s := &student.Student{
		TenantID:      tenantID,
		StudentNumber: "STU-1700000000000-AB12",
		FirstName:     "Max",
		LastName:      "Mustermann",
		Email:         "max@schule.de",
		IPadCode:      "1234",
		ClassID:       &classID,
		ClassAddition: &addition,
		TeacherID:     &teacherID,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, id, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MapsConstraintErrors(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		constraint string
		want       error
	}{
		{name: "duplicate number", code: "23505", want: student.ErrDuplicateStudentNumber},
		{name: "unknown class", code: "23503", constraint: "students_class_id_fkey", want: student.ErrUnknownClass},
		{name: "unknown teacher", code: "23503", constraint: "students_teacher_id_fkey", want: student.ErrUnknownTeacher},
		{name: "tenant gone", code: "23503", constraint: "students_tenant_id_fkey", want: student.ErrUnknownTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupStudentRepo(t)
			mock.ExpectQuery("INSERT INTO students").
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(&pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), &student.Student{TenantID: uuid.New()})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM students WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs(tenantID, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), tenantID, id)
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestList_WithFilter(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	classID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM students WHERE tenant_id = \\$1 AND class_id = \\$2 AND \\(first_name ILIKE \\$3 ESCAPE (.+)\\) ORDER BY last_name, first_name").
		WithArgs(tenantID, classID, "%muster%").
		WillReturnRows(pgxmock.NewRows(studentColumns).
			AddRow(uuid.New(), tenantID, "STU-1-AAAA", "Max", "Mustermann", "max@schule.de", "1234", &classID, (*string)(nil), (*uuid.UUID)(nil), now, now))

	students, err := repo.List(context.Background(), tenantID, student.ListFilter{ClassID: &classID, Search: " muster "})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Mustermann", students[0].LastName)
	require.NotNil(t, students[0].ClassID)
	assert.Equal(t, classID, *students[0].ClassID)
	assert.Nil(t, students[0].ClassAddition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SearchWildcardsAreLiteral(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM students WHERE tenant_id = \\$1 AND \\(first_name ILIKE \\$2 ESCAPE (.+)\\)").
		WithArgs(tenantID, `%\_%`).
		WillReturnRows(pgxmock.NewRows(studentColumns))

	students, err := repo.List(context.Background(), tenantID, student.ListFilter{Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ByTeacher(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	teacherID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM students WHERE tenant_id = \\$1 AND teacher_id = \\$2 ORDER BY").
		WithArgs(tenantID, teacherID).
		WillReturnRows(pgxmock.NewRows(studentColumns).
			AddRow(uuid.New(), tenantID, "STU-1-AAAA", "Max", "Mustermann", "max@schule.de", "1234", (*uuid.UUID)(nil), (*string)(nil), &teacherID, now, now))

	students, err := repo.List(context.Background(), tenantID, student.ListFilter{TeacherID: &teacherID})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NotNil(t, students[0].TeacherID)
	assert.Equal(t, teacherID, *students[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM students WHERE tenant_id = \\$1 ORDER BY").
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows(studentColumns))

	students, err := repo.List(context.Background(), tenantID, student.ListFilter{})
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestUpdate(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	email := "neu@schule.de"

	mock.ExpectQuery("UPDATE students SET email = \\$1, updated_at = NOW\\(\\) WHERE tenant_id = \\$2 AND id = \\$3").
		WithArgs(email, tenantID, id).
		WillReturnRows(pgxmock.NewRows(studentColumns).
			AddRow(id, tenantID, "STU-1-AAAA", "Max", "Mustermann", email, "1234", (*uuid.UUID)(nil), (*string)(nil), (*uuid.UUID)(nil), now, now))

	s, err := repo.Update(context.Background(), tenantID, id, student.UpdateFields{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, s.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	name := "Moritz"

	mock.ExpectQuery("UPDATE students").
		WithArgs(name, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), student.UpdateFields{FirstName: &name})
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()
	id := uuid.New()

	mock.ExpectExec("DELETE FROM students WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs(tenantID, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), tenantID, id), student.ErrStudentNotFound)
}

func TestCountByTenant(t *testing.T) {
	repo, mock := setupStudentRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE tenant_id").
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
