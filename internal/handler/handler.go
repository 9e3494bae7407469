// Package handler wires the HTTP API: auth flows, user/class/attendance
// CRUD, QR credentials and face-service plumbing.
package handler

import (
	"time"

	"schoolattend/internal/attendance"
	"schoolattend/internal/class"
	"schoolattend/internal/config"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/queue"
	"schoolattend/internal/user"
)

// Handler carries the dependencies shared by all routes.
type Handler struct {
	cfg        config.App
	users      *user.Repository
	classes    *class.Repository
	attendance *attendance.Service
	records    *attendance.Repository
	face       *faceclient.Client
	queue      queue.Queue
	loc        *time.Location
}

// New builds a handler.
func New(cfg config.App, users *user.Repository, classes *class.Repository, svc *attendance.Service, records *attendance.Repository, face *faceclient.Client, q queue.Queue, loc *time.Location) *Handler {
	return &Handler{
		cfg:        cfg,
		users:      users,
		classes:    classes,
		attendance: svc,
		records:    records,
		face:       face,
		queue:      q,
		loc:        loc,
	}
}

// resolveDay maps an optional "YYYY-MM-DD" input to an occurred-at
// instant and day key in the institution's timezone.
func (h *Handler) resolveDay(date string) (time.Time, string, error) {
	if date == "" {
		now := time.Now().In(h.loc)
		return now, now.Format("2006-01-02"), nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, h.loc)
	if err != nil {
		return time.Time{}, "", err
	}
	return t, date, nil
}
