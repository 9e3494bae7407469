package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"schoolattend/internal/model"
	"schoolattend/internal/schedule"
)

// Result is the outcome of a login-time attendance attempt. Policy
// rejections (weekend, duplicate, no schedule) come back here with
// Recorded=false; they are informational, never login failures.
type Result struct {
	Recorded   bool                    `json:"recorded"`
	Message    string                  `json:"message"`
	Attendance *model.AttendanceRecord `json:"attendance,omitempty"`
}

// UserDirectory is the slice of the user store the service needs.
// GetUser must populate Class for students and Teaching for teachers.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListByRoles(ctx context.Context, roles ...model.Role) ([]model.User, error)
}

// RecordStore persists attendance rows. InsertOnce must be atomic per
// (user, day): on a duplicate it returns (nil, nil) without writing.
type RecordStore interface {
	FindForDay(ctx context.Context, userID, day string) (*model.AttendanceRecord, error)
	InsertOnce(ctx context.Context, rec model.AttendanceRecord) (*model.AttendanceRecord, error)
}

// Service decides and persists attendance outcomes. All time math runs
// in the institution's timezone regardless of server locale.
type Service struct {
	users   UserDirectory
	records RecordStore
	cfg     schedule.Config
	loc     *time.Location
	now     func() time.Time
}

// NewService builds a service. A nil clock means time.Now.
func NewService(users UserDirectory, records RecordStore, cfg schedule.Config, loc *time.Location, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, records: records, cfg: cfg, loc: loc, now: now}
}

const (
	dayFormat  = "2006-01-02"
	timeFormat = "15:04"
)

// RecordOnLogin records today's attendance for an already-authenticated
// user. At most one row per user per local calendar day; arrival at or
// before the window start is PRESENT, strictly after is LATE. A non-nil
// error means storage trouble; callers treat recording as best-effort
// relative to login.
func (s *Service) RecordOnLogin(ctx context.Context, userID string) (Result, error) {
	now := s.now().In(s.loc)
	day := now.Format(dayFormat)

	if isWeekend(now) {
		return Result{Message: "No attendance recording on weekends"}, nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return Result{Message: "User not found"}, nil
	}

	existing, err := s.records.FindForDay(ctx, userID, day)
	if err != nil {
		return Result{}, fmt.Errorf("check existing attendance: %w", err)
	}
	if existing != nil {
		return Result{Message: "Attendance already recorded for today", Attendance: existing}, nil
	}

	window, ok := s.windowFor(user)
	if !ok {
		return Result{Message: "No schedule found for user"}, nil
	}

	timeIn := now.Format(timeFormat)
	status, err := classify(timeIn, window.Start)
	if err != nil {
		return Result{}, err
	}

	rec, err := s.records.InsertOnce(ctx, model.AttendanceRecord{
		UserID:     userID,
		OccurredAt: now,
		Day:        day,
		Status:     status,
		TimeIn:     &timeIn,
	})
	if err != nil {
		return Result{}, fmt.Errorf("insert attendance: %w", err)
	}
	if rec == nil {
		// Lost a concurrent-login race; report the winner's row.
		existing, err := s.records.FindForDay(ctx, userID, day)
		if err != nil {
			return Result{}, fmt.Errorf("reload attendance after conflict: %w", err)
		}
		return Result{Message: "Attendance already recorded for today", Attendance: existing}, nil
	}

	return Result{
		Recorded:   true,
		Message:    fmt.Sprintf("Attendance recorded as %s", status),
		Attendance: rec,
	}, nil
}

// MarkAbsent backfills ABSENT rows for every student and teacher with
// no record for today. Idempotent: existing rows are never touched.
// One user's failure is logged and the sweep continues. Returns how
// many users were newly marked absent.
func (s *Service) MarkAbsent(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	if isWeekend(now) {
		return 0, nil
	}
	day := now.Format(dayFormat)

	users, err := s.users.ListByRoles(ctx, model.RoleStudent, model.RoleTeacher)
	if err != nil {
		return 0, fmt.Errorf("list users for sweep: %w", err)
	}

	marked := 0
	for _, u := range users {
		rec, err := s.records.InsertOnce(ctx, model.AttendanceRecord{
			UserID:     u.ID,
			OccurredAt: now,
			Day:        day,
			Status:     model.StatusAbsent,
			TimeIn:     nil,
		})
		if err != nil {
			log.Printf("sweep: mark absent %s failed: %v", u.ID, err)
			continue
		}
		if rec != nil {
			marked++
		}
	}
	return marked, nil
}

// windowFor resolves the schedule window for a user. Students use
// their class grade. Teachers use the grade of their first assigned
// class only; with multiple classes this is a known ambiguity carried
// over from the original policy.
func (s *Service) windowFor(u *model.User) (schedule.Window, bool) {
	var grade int
	switch u.Role {
	case model.RoleStudent:
		if u.Class == nil {
			return schedule.Window{}, false
		}
		grade = u.Class.Grade
	case model.RoleTeacher:
		if len(u.Teaching) == 0 {
			return schedule.Window{}, false
		}
		grade = u.Teaching[0].Grade
	default:
		return schedule.Window{}, false
	}
	_, w, ok := s.cfg.ForGrade(grade)
	return w, ok
}

func classify(timeIn, start string) (model.Status, error) {
	in, err := schedule.MinuteOfDay(timeIn)
	if err != nil {
		return "", err
	}
	st, err := schedule.MinuteOfDay(start)
	if err != nil {
		return "", err
	}
	if in <= st {
		return model.StatusPresent, nil
	}
	return model.StatusLate, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
