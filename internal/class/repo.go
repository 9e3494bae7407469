// Package class persists grade/section groupings.
package class

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"schoolattend/internal/model"
)

// Repository persists classes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const classColumns = `c.id, c.grade, c.section, c.teacher_id, c.created_at, t.id, t.name, t.email`

func scanClass(row interface{ Scan(...any) error }) (*model.Class, error) {
	var c model.Class
	var tID, tName, tEmail *string
	if err := row.Scan(&c.ID, &c.Grade, &c.Section, &c.TeacherID, &c.CreatedAt, &tID, &tName, &tEmail); err != nil {
		return nil, err
	}
	if tID != nil {
		c.Teacher = &model.User{ID: *tID, Name: *tName, Email: *tEmail, Role: model.RoleTeacher}
	}
	return &c, nil
}

// Create inserts a class.
func (r *Repository) Create(ctx context.Context, c *model.Class) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, grade, section, teacher_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.Grade, c.Section, c.TeacherID).Scan(&c.CreatedAt)
}

// Get returns one class with its teacher summary, or nil.
func (r *Repository) Get(ctx context.Context, id string) (*model.Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+classColumns+`
		FROM classes c
		LEFT JOIN users t ON t.id = c.teacher_id
		WHERE c.id = $1
	`, id)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns classes ordered by grade, optionally only those taught
// by one teacher.
func (r *Repository) List(ctx context.Context, teacherID string) ([]model.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c
		LEFT JOIN users t ON t.id = c.teacher_id`
	args := []any{}
	if teacherID != "" {
		query += ` WHERE c.teacher_id = $1`
		args = append(args, teacherID)
	}
	query += ` ORDER BY c.grade, c.section`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *c)
	}
	return res, rows.Err()
}

// Update edits grade, section and teacher assignment.
func (r *Repository) Update(ctx context.Context, c *model.Class) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE classes
		SET grade = $2, section = $3, teacher_id = $4
		WHERE id = $1
	`, c.ID, c.Grade, c.Section, c.TeacherID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes a class. Student memberships are set null by the
// schema, not cascaded.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	return err
}
