package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListExcludesDeletedByDefault(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "register_no", "full_name", "email", "phone", "department_id", "semester", "status", "hostel_room_id", "bus_route_id", "created_at", "updated_at"}).
		AddRow("s1", "CS-2023-001", "Asha Nair", "asha@example.com", "", nil, 3, "APPROVED", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, register_no, full_name").
		WithArgs(string(models.StudentStatusDeleted)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(string(models.StudentStatusDeleted)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, students, 1)
	require.Equal(t, "CS-2023-001", students[0].RegisterNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByRegisterNo(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE register_no = $1")).
		WithArgs("CS-2023-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByRegisterNo(context.Background(), "CS-2023-001", "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE register_no = $1")).
		WithArgs("CS-2023-999").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByRegisterNo(context.Background(), "CS-2023-999", "")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET status = $2")).
		WithArgs("s1", string(models.StudentStatusApproved), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "s1", models.StudentStatusApproved)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteStalePending(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE status = $1 AND created_at < $2")).
		WithArgs(string(models.StudentStatusPending), cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	affected, err := repo.DeleteStalePending(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 4, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
