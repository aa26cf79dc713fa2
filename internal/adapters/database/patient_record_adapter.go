package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

const (
	patientRecordsTable = "patient_records"
	defaultListLimit    = 50
	maxListLimit        = 500
)

var summaryColumns = []interface{}{
	"uid", "mr_no", "name", "visit_count", "first_visit", "last_visit", "updated_at",
}

var recordColumns = append(append([]interface{}{}, summaryColumns...), "visits")

// patientRecordRow mirrors one patient_records row; visits stay raw until decoded
type patientRecordRow struct {
	entities.PatientSummary
	Visits []byte `db:"visits"`
}

func (r *patientRecordRow) toEntity() (*entities.PatientRecord, error) {
	record := &entities.PatientRecord{
		UID:        r.UID,
		MRNo:       r.MRNo,
		Name:       r.Name,
		VisitCount: r.VisitCount,
		FirstVisit: r.FirstVisit,
		LastVisit:  r.LastVisit,
		UpdatedAt:  r.UpdatedAt,
		Visits:     []entities.Visit{},
	}
	if len(r.Visits) > 0 {
		if err := json.Unmarshal(r.Visits, &record.Visits); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// PatientRecordAdapter implements PatientRecordRepository on PostgreSQL
type PatientRecordAdapter struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	metrics *observability.Metrics
	now     func() time.Time
}

// NewPatientRecordAdapter creates a new patient record adapter. metrics may be nil.
func NewPatientRecordAdapter(db *sqlx.DB, metrics *observability.Metrics) *PatientRecordAdapter {
	return &PatientRecordAdapter{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		metrics: metrics,
		now:     time.Now,
	}
}

// GetByUID retrieves one full record
func (a *PatientRecordAdapter) GetByUID(ctx context.Context, uid string) (*entities.PatientRecord, error) {
	defer a.observe(ctx, "patient_records.get", time.Now())

	query, args, err := a.dialect.From(patientRecordsTable).Prepared(true).
		Select(recordColumns...).
		Where(goqu.Ex{"uid": uid}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	var row patientRecordRow
	if err := a.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("patient record not found: " + uid)
		}
		return nil, apperrors.NewInternalError("failed to get patient record", err)
	}

	record, err := row.toEntity()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to decode visits for "+uid, err)
	}
	return record, nil
}

// GetByUIDs retrieves several records in one round trip; unknown UIDs are omitted
func (a *PatientRecordAdapter) GetByUIDs(ctx context.Context, uids []string) ([]*entities.PatientRecord, error) {
	if len(uids) == 0 {
		return []*entities.PatientRecord{}, nil
	}
	defer a.observe(ctx, "patient_records.get_many", time.Now())

	query, args, err := a.dialect.From(patientRecordsTable).Prepared(true).
		Select(recordColumns...).
		Where(goqu.L(`"uid" = ANY(?)`, pq.Array(uids))).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	var rows []patientRecordRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get patient records", err)
	}

	records := make([]*entities.PatientRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toEntity()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to decode visits for "+rows[i].UID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// List retrieves record summaries ordered by UID
func (a *PatientRecordAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.PatientSummary, error) {
	defer a.observe(ctx, "patient_records.list", time.Now())

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	ds := a.dialect.From(patientRecordsTable).Prepared(true).
		Select(summaryColumns...).
		Order(goqu.I("uid").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset))
	if filter.MRNo != "" {
		ds = ds.Where(goqu.Ex{"mr_no": filter.MRNo})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	summaries := []*entities.PatientSummary{}
	if err := a.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list patient records", err)
	}
	return summaries, nil
}

// Count returns the number of stored records
func (a *PatientRecordAdapter) Count(ctx context.Context) (int, error) {
	defer a.observe(ctx, "patient_records.count", time.Now())

	query, args, err := a.dialect.From(patientRecordsTable).Prepared(true).
		Select(goqu.COUNT("*")).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to count patient records", err)
	}
	return count, nil
}

// Upsert inserts a record or replaces the stored one with the same UID
func (a *PatientRecordAdapter) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	if record == nil || record.UID == "" {
		return apperrors.NewValidationError("patient record uid is required")
	}
	defer a.observe(ctx, "patient_records.upsert", time.Now())

	visits := record.Visits
	if visits == nil {
		visits = []entities.Visit{}
	}
	payload, err := json.Marshal(visits)
	if err != nil {
		return apperrors.NewValidationError("visits cannot be encoded: " + err.Error())
	}

	record.UpdatedAt = a.now().UTC()
	row := goqu.Record{
		"uid":         record.UID,
		"mr_no":       record.MRNo,
		"name":        record.Name,
		"visit_count": record.VisitCount,
		"first_visit": record.FirstVisit,
		"last_visit":  record.LastVisit,
		"visits":      string(payload),
		"updated_at":  record.UpdatedAt,
	}
	update := goqu.Record{
		"mr_no":       goqu.L("EXCLUDED.mr_no"),
		"name":        goqu.L("EXCLUDED.name"),
		"visit_count": goqu.L("EXCLUDED.visit_count"),
		"first_visit": goqu.L("EXCLUDED.first_visit"),
		"last_visit":  goqu.L("EXCLUDED.last_visit"),
		"visits":      goqu.L("EXCLUDED.visits"),
		"updated_at":  goqu.L("EXCLUDED.updated_at"),
	}

	query, args, err := a.dialect.Insert(patientRecordsTable).Prepared(true).
		Rows(row).
		OnConflict(goqu.DoUpdate("uid", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert patient record", err)
	}
	return nil
}

// Delete removes a record
func (a *PatientRecordAdapter) Delete(ctx context.Context, uid string) error {
	defer a.observe(ctx, "patient_records.delete", time.Now())

	query, args, err := a.dialect.Delete(patientRecordsTable).Prepared(true).
		Where(goqu.Ex{"uid": uid}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient record", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("patient record not found: " + uid)
	}
	return nil
}

func (a *PatientRecordAdapter) observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
}
