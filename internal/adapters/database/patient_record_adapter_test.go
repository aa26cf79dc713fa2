package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

var recordRowColumns = []string{
	"uid", "mr_no", "name", "visit_count", "first_visit", "last_visit", "updated_at", "visits",
}

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestPatientRecordAdapter_GetByUID(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)
	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM "patient_records" WHERE \("uid" = \$1\)`).
		WithArgs("P-0001").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).AddRow(
			"P-0001", "MR123", "Jane", 2, "2023-01-01", "2023-06-01", updated,
			[]byte(`[{"visit_no":1,"date":"2023-01-01","opinion":"Retina referral"},{"visit_no":2,"date":"2023-06-01"}]`),
		))

	record, err := adapter.GetByUID(context.Background(), "P-0001")
	require.NoError(t, err)
	assert.Equal(t, "MR123", record.MRNo)
	assert.Equal(t, updated, record.UpdatedAt)
	require.Len(t, record.Visits, 2)
	assert.Equal(t, entities.ClinicalText("Retina referral"), record.Visits[0].Opinion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRecordAdapter_GetByUID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	mock.ExpectQuery(`FROM "patient_records"`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetByUID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPatientRecordAdapter_GetByUID_CorruptVisits(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	mock.ExpectQuery(`FROM "patient_records"`).
		WillReturnRows(sqlmock.NewRows(recordRowColumns).AddRow(
			"P-0002", "MR9", "", 0, "", "", time.Now(), []byte(`{not json`),
		))

	_, err := adapter.GetByUID(context.Background(), "P-0002")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestPatientRecordAdapter_GetByUIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM "patient_records" WHERE "uid" = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("P1", "MR1", "", 0, "", "", now, []byte(`[]`)).
			AddRow("P2", "MR2", "", 0, "", "", now, nil))

	records, err := adapter.GetByUIDs(context.Background(), []string{"P1", "P2", "P3"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "P2", records[1].UID)
	assert.NotNil(t, records[1].Visits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRecordAdapter_GetByUIDs_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	records, err := adapter.GetByUIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRecordAdapter_List(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM "patient_records" ORDER BY "uid" ASC LIMIT \$1 OFFSET \$2`).
		WillReturnRows(sqlmock.NewRows([]string{
			"uid", "mr_no", "name", "visit_count", "first_visit", "last_visit", "updated_at",
		}).AddRow("P1", "MR1", "Jane", 3, "2023-01-01", "2023-12-01", now))

	summaries, err := adapter.List(context.Background(), repositories.PatientFilter{Limit: 10000, Offset: 10})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].VisitCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRecordAdapter_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\)(.*) FROM "patient_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := adapter.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestPatientRecordAdapter_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO "patient_records" (.+) ON CONFLICT \(uid\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &entities.PatientRecord{
		UID:    "P1",
		MRNo:   "MR1",
		Visits: []entities.Visit{{VisitNo: 1, Date: "2023-01-01"}},
	}
	require.NoError(t, adapter.Upsert(context.Background(), record))
	assert.Equal(t, fixed, record.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRecordAdapter_Upsert_RequiresUID(t *testing.T) {
	db, _ := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	err := adapter.Upsert(context.Background(), &entities.PatientRecord{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPatientRecordAdapter_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	adapter := NewPatientRecordAdapter(db, nil)

	mock.ExpectExec(`DELETE FROM "patient_records" WHERE \("uid" = \$1\)`).
		WithArgs("P1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "patient_records"`).
		WithArgs("P404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.Delete(context.Background(), "P1"))
	err := adapter.Delete(context.Background(), "P404")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
