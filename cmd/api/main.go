package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/class"
	"schoolattend/internal/config"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/handler"
	"schoolattend/internal/httpmiddleware"
	"schoolattend/internal/model"
	"schoolattend/internal/queue"
	"schoolattend/internal/schedule"
	"schoolattend/internal/store"
	"schoolattend/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	sched := schedule.Default()
	if cfg.ScheduleFile != "" {
		loaded, err := schedule.Load(cfg.ScheduleFile)
		if err != nil {
			return err
		}
		sched = loaded
	}
	loc, err := sched.Location()
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if db == nil {
		return err
	}
	if err != nil {
		log.Printf("warning: db not reachable yet: %v", err)
	}
	defer db.Close()

	if cfg.MigrationsDir != "" {
		if err := db.ApplyMigrations(context.Background(), cfg.MigrationsDir); err != nil {
			return err
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "schoolattend:face-jobs")
	}

	users := user.NewRepository(db.Client)
	classes := class.NewRepository(db.Client)
	records := attendance.NewRepository(db.Client)
	svc := attendance.NewService(users, records, sched, loc, nil)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	h := handler.New(cfg, users, classes, svc, records, face, q, loc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RequestDuration())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Public auth flows; attendance recording rides on them.
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/qr/verify", h.VerifyQR)
	r.POST("/v1/auth/biometric/verify", h.VerifyBiometric)
	r.POST("/v1/face/recognize", h.RecognizeFace)

	authed := r.Group("/v1", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer))

	staff := authed.Group("", auth.RequireRole(model.RoleAdmin, model.RoleTeacher))
	staff.GET("/attendance", h.ListAttendance)
	staff.POST("/attendance", h.CreateAttendance)
	staff.PUT("/attendance/:id", h.UpdateAttendance)

	admin := authed.Group("", auth.RequireRole(model.RoleAdmin))
	admin.POST("/attendance/mark-absent", h.MarkAbsent)
	admin.DELETE("/attendance/:id", h.DeleteAttendance)
	admin.POST("/users", h.CreateUser)
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/classes", h.CreateClass)
	admin.PUT("/classes/:id", h.UpdateClass)
	admin.DELETE("/classes/:id", h.DeleteClass)
	admin.POST("/auth/qr/generate", h.GenerateQR)
	admin.POST("/face/enroll", h.EnrollFace)
	admin.DELETE("/face/:id", h.DeleteFace)

	authed.GET("/users/:id", h.GetUser)
	authed.GET("/users/:id/qr.png", h.QRImage)
	authed.GET("/classes", h.ListClasses)
	authed.GET("/classes/:id", h.GetClass)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
