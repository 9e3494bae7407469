package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolattend/internal/model"
)

// Repository persists attendance rows in Postgres. It satisfies
// RecordStore; the unique index on (user_id, day) makes InsertOnce
// safe under concurrent logins.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, user_id, occurred_at, day, status, time_in, created_at`

func scanRecord(row interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var day time.Time
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.OccurredAt, &day, &rec.Status, &rec.TimeIn, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Day = day.Format("2006-01-02")
	return &rec, nil
}

// InsertOnce writes a row unless one already exists for the same user
// and day. Returns nil without error when the row was already there.
func (r *Repository) InsertOnce(ctx context.Context, rec model.AttendanceRecord) (*model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, occurred_at, day, status, time_in)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO NOTHING
		RETURNING `+recordColumns+`
	`, rec.ID, rec.UserID, rec.OccurredAt, rec.Day, rec.Status, rec.TimeIn)
	out, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

// FindForDay returns the row for a user on a local calendar day, or nil.
func (r *Repository) FindForDay(ctx context.Context, userID, day string) (*model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE user_id = $1 AND day = $2
	`, userID, day)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Get returns a single row by id, or nil.
func (r *Repository) Get(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListFilter narrows List results. Zero values mean no filter.
type ListFilter struct {
	UserID  string
	ClassID string
	Day     string
	Limit   int
	Offset  int
}

// List returns rows joined with user names, newest first. The class
// filter matches students of that class.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]model.AttendanceRecord, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `
		SELECT a.id, a.user_id, u.name, a.occurred_at, a.day, a.status, a.time_in, a.created_at
		FROM attendance_records a
		JOIN users u ON u.id = a.user_id`
	args := []any{}
	clauses := []string{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, "a.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.ClassID != "" {
		args = append(args, f.ClassID)
		clauses = append(clauses, "u.class_id = $"+strconv.Itoa(len(args)))
	}
	if f.Day != "" {
		args = append(args, f.Day)
		clauses = append(clauses, "a.day = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY a.occurred_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		var day time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserName, &rec.OccurredAt, &day, &rec.Status, &rec.TimeIn, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Day = day.Format("2006-01-02")
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Override is the manual admin/teacher path: it creates the row for
// the day or overwrites status and time-in of the existing one.
func (r *Repository) Override(ctx context.Context, rec model.AttendanceRecord) (*model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, occurred_at, day, status, time_in)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			time_in = EXCLUDED.time_in
		RETURNING `+recordColumns+`
	`, rec.ID, rec.UserID, rec.OccurredAt, rec.Day, rec.Status, rec.TimeIn)
	return scanRecord(row)
}

// UpdateStatus edits one row in place.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status model.Status, timeIn *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET status = $2, time_in = $3
		WHERE id = $1
	`, id, status, timeIn)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes one row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	return err
}
