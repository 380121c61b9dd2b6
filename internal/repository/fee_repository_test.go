package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
)

func newFeeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFeeRepositoryCountOutstandingBySemester(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()

	repo := NewFeeRepository(db)
	rows := sqlmock.NewRows([]string{"semester", "count"}).
		AddRow(2, 5).
		AddRow(4, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT semester, COUNT(DISTINCT student_id) AS count FROM fee_invoices")).
		WithArgs(string(models.FeeInvoiceStatusUnpaid), string(models.FeeInvoiceStatusPartial)).
		WillReturnRows(rows)

	counts, err := repo.CountOutstandingBySemester(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, models.SemesterCount{Semester: 2, Count: 5}, counts[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryRecordPaymentCommits(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()

	repo := NewFeeRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fee_payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_invoices SET amount_paid = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment := &models.FeePayment{InvoiceID: "inv-1", Amount: 5000, Mode: "UPI", PaidAt: time.Now().UTC()}
	err := repo.RecordPayment(context.Background(), payment, 5000, models.FeeInvoiceStatusPartial)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryCollectionSummary(t *testing.T) {
	db, mock, cleanup := newFeeRepoMock(t)
	defer cleanup()

	repo := NewFeeRepository(db)
	rows := sqlmock.NewRows([]string{"total_invoiced", "total_collected", "outstanding"}).
		AddRow(100000, 75000, 25000)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) AS total_invoiced")).
		WillReturnRows(rows)

	summary, err := repo.CollectionSummary(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 25000, summary.Outstanding)
	require.NoError(t, mock.ExpectationsWereMet())
}
