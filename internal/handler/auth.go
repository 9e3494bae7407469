package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/metrics"
	"schoolattend/internal/model"
	"schoolattend/internal/qr"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates with email and password, then records attendance
// best-effort: a weekend or duplicate-day result never fails the login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		metrics.LoginAttempts.WithLabelValues("password", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	tokens, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	metrics.LoginAttempts.WithLabelValues("password", "accepted").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"attendance":    h.recordAttendance(c, u, "password"),
	})
}

// recordAttendance runs the determination service for students and
// teachers. Errors are logged, never surfaced as login failures.
func (h *Handler) recordAttendance(c *gin.Context, u *model.User, method string) *attendance.Result {
	if u.Role != model.RoleStudent && u.Role != model.RoleTeacher {
		return nil
	}
	res, err := h.attendance.RecordOnLogin(c.Request.Context(), u.ID)
	if err != nil {
		log.Printf("attendance recording failed for %s: %v", u.ID, err)
		return &attendance.Result{Message: "Failed to record attendance"}
	}
	if res.Recorded && res.Attendance != nil {
		metrics.AttendanceRecords.WithLabelValues(string(res.Attendance.Status), method).Inc()
	}
	return &res
}

type verifyQRRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

// VerifyQR resolves a scanned QR payload to a user id. It does not
// grant a session by itself; biometric login pairs it with a face
// match.
func (h *Handler) VerifyQR(c *gin.Context) {
	var req verifyQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qr_code is required", "valid": false})
		return
	}

	u, err := h.users.FindByQR(c.Request.Context(), req.QRCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr verification failed", "valid": false})
		return
	}
	if u == nil {
		metrics.LoginAttempts.WithLabelValues("qr", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid qr code", "valid": false})
		return
	}

	metrics.LoginAttempts.WithLabelValues("qr", "accepted").Inc()
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"user_id": u.ID,
		"message": "QR code verified successfully",
	})
}

type verifyBiometricRequest struct {
	FaceUserID string `json:"face_user_id" binding:"required"`
	QRUserID   string `json:"qr_user_id" binding:"required"`
}

// VerifyBiometric grants a session only when the face match and the QR
// scan resolved to the same user. Attendance is recorded best-effort.
func (h *Handler) VerifyBiometric(c *gin.Context) {
	var req verifyBiometricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face and qr user ids are required", "valid": false})
		return
	}

	if req.FaceUserID != req.QRUserID {
		metrics.LoginAttempts.WithLabelValues("biometric", "rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "face and qr code do not match the same user", "valid": false})
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), req.FaceUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed", "valid": false})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "valid": false})
		return
	}

	tokens, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed", "valid": false})
		return
	}

	metrics.LoginAttempts.WithLabelValues("biometric", "accepted").Inc()
	c.JSON(http.StatusOK, gin.H{
		"valid":         true,
		"user_id":       u.ID,
		"message":       "Biometric verification successful",
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"attendance":    h.recordAttendance(c, u, "biometric"),
	})
}

type generateQRRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// GenerateQR assigns a QR credential to a user (admin only).
func (h *Handler) GenerateQR(c *gin.Context) {
	var req generateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
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

	credential := qr.Credential(u.ID)
	if err := h.users.SetQRCode(c.Request.Context(), u.ID, credential); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store qr code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qr_code": credential,
		"message": "QR code generated successfully",
	})
}

// QRImage renders a user's QR credential as a PNG.
func (h *Handler) QRImage(c *gin.Context) {
	u, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if u == nil || u.QRCode == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no qr credential for user"})
		return
	}

	png, err := qr.PNG(*u.QRCode, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
