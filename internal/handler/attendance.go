package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/attendance"
	"schoolattend/internal/metrics"
	"schoolattend/internal/model"
)

// ListAttendance returns attendance rows filtered by user, class
// (students of that class) and day ("YYYY-MM-DD").
func (h *Handler) ListAttendance(c *gin.Context) {
	filter := attendance.ListFilter{
		UserID:  c.Query("user_id"),
		ClassID: c.Query("class_id"),
		Day:     c.Query("date"),
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Offset = parsed
		}
	}

	records, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}

type manualAttendanceRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Status string  `json:"status" binding:"required"`
	Date   string  `json:"date"` // "YYYY-MM-DD", today when empty
	TimeIn *string `json:"time_in"`
}

// CreateAttendance is the manual override path for admins and
// teachers: it creates the day's row or overwrites an existing one.
func (h *Handler) CreateAttendance(c *gin.Context) {
	var req manualAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and status are required"})
		return
	}
	status := model.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	occurredAt, day, err := h.resolveDay(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	rec, err := h.records.Override(c.Request.Context(), model.AttendanceRecord{
		UserID:     req.UserID,
		OccurredAt: occurredAt,
		Day:        day,
		Status:     status,
		TimeIn:     req.TimeIn,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.AttendanceRecords.WithLabelValues(string(status), "manual").Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "Attendance recorded", "attendance": rec})
}

type updateAttendanceRequest struct {
	Status string  `json:"status" binding:"required"`
	TimeIn *string `json:"time_in"`
}

// UpdateAttendance edits one row's status and time-in.
func (h *Handler) UpdateAttendance(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := model.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	if err := h.records.UpdateStatus(c.Request.Context(), c.Param("id"), status, req.TimeIn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance updated"})
}

// DeleteAttendance removes one row.
func (h *Handler) DeleteAttendance(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance deleted"})
}

// MarkAbsent triggers the end-of-day absence sweep.
func (h *Handler) MarkAbsent(c *gin.Context) {
	marked, err := h.attendance.MarkAbsent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.SweepMarked.Add(float64(marked))
	c.JSON(http.StatusOK, gin.H{"message": "Absence sweep complete", "marked": marked})
}
