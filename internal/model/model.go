package model

import "time"

// Role identifies what a user can do in the system.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Status is the attendance outcome for one user on one school day.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
	StatusAbsent  Status = "ABSENT"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// User is an account holder. Students belong to a class; teachers may
// have classes assigned to them.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	ClassID      *string   `json:"class_id,omitempty"`
	Class        *Class    `json:"class,omitempty"`
	Teaching     []Class   `json:"teaching,omitempty"`
	QRCode       *string   `json:"qr_code,omitempty"`
	FaceEnrolled bool      `json:"face_enrolled"`
	CreatedAt    time.Time `json:"created_at"`
}

// Class is a grade/section pairing with at most one homeroom teacher.
type Class struct {
	ID        string    `json:"id"`
	Grade     int       `json:"grade"`
	Section   string    `json:"section"`
	TeacherID *string   `json:"teacher_id,omitempty"`
	Teacher   *User     `json:"teacher,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is one user's outcome for one calendar day in the
// institution's timezone. Day is "YYYY-MM-DD"; TimeIn is "HH:MM" and
// nil for ABSENT rows written by the sweep.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"` // joined from users
	OccurredAt time.Time `json:"occurred_at"`
	Day        string    `json:"day"`
	Status     Status    `json:"status"`
	TimeIn     *string   `json:"time_in,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
