package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/model"
)

type classRequest struct {
	Grade     int     `json:"grade" binding:"required,min=1,max=6"`
	Section   string  `json:"section" binding:"required"`
	TeacherID *string `json:"teacher_id"`
}

// CreateClass adds a grade/section grouping.
func (h *Handler) CreateClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade and section are required"})
		return
	}

	cls := &model.Class{Grade: req.Grade, Section: req.Section, TeacherID: req.TeacherID}
	if err := h.classes.Create(c.Request.Context(), cls); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Class created successfully", "class": cls})
}

// ListClasses returns classes ordered by grade, optionally filtered to
// one teacher.
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context(), c.Query("teacher_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if classes == nil {
		classes = []model.Class{}
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// GetClass returns one class with its teacher summary.
func (h *Handler) GetClass(c *gin.Context) {
	cls, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cls == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"class": cls})
}

// UpdateClass edits grade, section and teacher assignment.
func (h *Handler) UpdateClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade and section are required"})
		return
	}

	cls := &model.Class{ID: c.Param("id"), Grade: req.Grade, Section: req.Section, TeacherID: req.TeacherID}
	if err := h.classes.Update(c.Request.Context(), cls); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class updated successfully"})
}

// DeleteClass removes a class; students keep their accounts.
func (h *Handler) DeleteClass(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}
