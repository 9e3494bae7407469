package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/queue"
)

type enrollFaceRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Image  string `json:"image" binding:"required"` // base64 data string
}

// EnrollFace queues a face-enrollment job; the worker calls the face
// service and flips face_enrolled when it succeeds.
func (h *Handler) EnrollFace(c *gin.Context) {
	var req enrollFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and image are required"})
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

	msg, err := queue.NewMessage(queue.TypeFaceEnroll, queue.FaceJob{UserID: req.UserID, Image: req.Image})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	if err := h.queue.Publish(c.Request.Context(), msg); err != nil {
		log.Printf("queue publish failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enrollment queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Enrollment queued", "user_id": req.UserID})
}

type recognizeFaceRequest struct {
	Image string `json:"image" binding:"required"`
}

// RecognizeFace forwards an image to the face service and returns the
// matched user id, for pairing with a QR scan in the biometric flow.
func (h *Handler) RecognizeFace(c *gin.Context) {
	var req recognizeFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	result, err := h.face.Recognize(c.Request.Context(), req.Image)
	if err != nil {
		log.Printf("face recognize failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "face recognition failed"})
		return
	}
	if !result.Success || result.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "face not recognized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user_id":    result.UserID,
		"similarity": result.Similarity,
	})
}

// DeleteFace queues removal of a user's enrollment.
func (h *Handler) DeleteFace(c *gin.Context) {
	id := c.Param("id")
	msg, err := queue.NewMessage(queue.TypeFaceDelete, queue.FaceJob{UserID: id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	if err := h.queue.Publish(c.Request.Context(), msg); err != nil {
		log.Printf("queue publish failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enrollment queue unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Deletion queued", "user_id": id})
}
