// Package user persists accounts in Postgres.
package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"schoolattend/internal/model"
)

// ErrEmailTaken is returned when creating a user with a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// Repository persists users.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, role, password, class_id, qr_code, face_enrolled, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.ClassID, &u.QRCode, &u.FaceEnrolled, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. Password must already be hashed.
func (r *Repository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, u.Email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, role, password, class_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.Role, u.PasswordHash, u.ClassID).Scan(&u.CreatedAt)
}

// GetUser returns a user with their class (students) and assigned
// classes (teachers), or nil when absent. Satisfies
// attendance.UserDirectory.
func (r *Repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachClasses(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns a user (with class info) for login, or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachClasses(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) attachClasses(ctx context.Context, u *model.User) error {
	if u.ClassID != nil {
		row := r.db.QueryRowContext(ctx, `
			SELECT id, grade, section, teacher_id, created_at
			FROM classes WHERE id = $1
		`, *u.ClassID)
		var c model.Class
		if err := row.Scan(&c.ID, &c.Grade, &c.Section, &c.TeacherID, &c.CreatedAt); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		} else {
			u.Class = &c
		}
	}
	if u.Role == model.RoleTeacher {
		rows, err := r.db.QueryContext(ctx, `
			SELECT id, grade, section, teacher_id, created_at
			FROM classes WHERE teacher_id = $1
			ORDER BY created_at
		`, u.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c model.Class
			if err := rows.Scan(&c.ID, &c.Grade, &c.Section, &c.TeacherID, &c.CreatedAt); err != nil {
				return err
			}
			u.Teaching = append(u.Teaching, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

// ListByRoles returns all users holding any of the given roles.
// Satisfies attendance.UserDirectory.
func (r *Repository) ListByRoles(ctx context.Context, roles ...model.Role) ([]model.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = ANY($1)
		ORDER BY created_at DESC
	`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// List returns users, optionally filtered by role, newest first.
func (r *Repository) List(ctx context.Context, role string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]model.User, error) {
	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// Update edits name, email, role and class assignment.
func (r *Repository) Update(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, role = $4, class_id = $5
		WHERE id = $1
	`, u.ID, u.Name, u.Email, u.Role, u.ClassID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes a user; attendance rows cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// FindByQR resolves a scanned QR payload to a user. The credential is
// normally the user id, but worn or partial scans happen, so fall back
// to a direct id match and finally an id/credential suffix match for
// payloads of at least 12 hex chars, mirroring the login flow's
// tolerance.
func (r *Repository) FindByQR(ctx context.Context, code string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE qr_code = $1`, code)
	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::text`, code)
	u, err = scanUser(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if len(code) < 12 {
		return nil, nil
	}
	row = r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id LIKE '%' || $1 OR qr_code LIKE '%' || $1
		LIMIT 1
	`, code)
	u, err = scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// SetQRCode assigns the QR credential, unique across users.
func (r *Repository) SetQRCode(ctx context.Context, id, code string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET qr_code = $2 WHERE id = $1`, id, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// SetFaceEnrolled flips the face-enrollment flag after the worker
// hears back from the face service.
func (r *Repository) SetFaceEnrolled(ctx context.Context, id string, enrolled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET face_enrolled = $2 WHERE id = $1`, id, enrolled)
	return err
}
