package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"schoolattend/internal/config"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/queue"
	"schoolattend/internal/store"
	"schoolattend/internal/user"
)

// Worker consumes face jobs, calls the face service, and updates the
// user's enrollment flag.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "schoolattend:face-jobs")
	}

	users := user.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
			log.Println("worker will retry when jobs arrive")
		} else {
			log.Println("face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for jobs...")
	for msg := range messages {
		var job queue.FaceJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("bad job payload: %v", err)
			continue
		}

		switch msg.Type {
		case queue.TypeFaceEnroll:
			result, err := face.Enroll(ctx, job.UserID, job.Image)
			if err != nil {
				log.Printf("face enroll failed for %s: %v", job.UserID, err)
				continue
			}
			if !result.Success {
				log.Printf("face enroll rejected for %s: %s", job.UserID, result.Message)
				continue
			}
			if err := users.SetFaceEnrolled(ctx, job.UserID, true); err != nil {
				log.Printf("mark enrolled failed for %s: %v", job.UserID, err)
				continue
			}
			log.Printf("user %s face-enrolled", job.UserID)

		case queue.TypeFaceDelete:
			if err := face.Delete(ctx, job.UserID); err != nil {
				log.Printf("face delete failed for %s: %v", job.UserID, err)
				continue
			}
			if err := users.SetFaceEnrolled(ctx, job.UserID, false); err != nil {
				log.Printf("clear enrolled failed for %s: %v", job.UserID, err)
				continue
			}
			log.Printf("user %s face enrollment removed", job.UserID)

		default:
			log.Printf("unknown job type %q", msg.Type)
		}
	}

	log.Println("worker stopped")
}
