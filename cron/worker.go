package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"servana/config"
	"servana/services/scheduling"

	"github.com/hibiken/asynq"
)

const TypeBookingExpire = "booking:expire_overdue"

// InitExpiryWorker runs the async worker and its periodic scheduler in
// the background. The worker sweeps pending bookings whose
// confirmation deadline has passed.
func InitExpiryWorker(engine scheduling.SchedulingEngine) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingExpire, handleExpireTask(engine))

	// Start async worker with retry logic.
	go func() {
		log.Println("[ExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go runExpiryScheduler(redisOpts)
}

// runExpiryScheduler enqueues the sweep task on a fixed interval.
func runExpiryScheduler(redisOpts asynq.RedisClientOpt) {
	sweepEvery := config.AppConfig.ExpirySweepMinutes
	if sweepEvery <= 0 {
		sweepEvery = 10
	}

	scheduler := asynq.NewScheduler(redisOpts, nil)
	cronspec := fmt.Sprintf("@every %dm", sweepEvery)
	if _, err := scheduler.Register(cronspec, asynq.NewTask(TypeBookingExpire, nil)); err != nil {
		log.Printf("[ExpiryWorker] failed to register sweep schedule: %v", err)
		return
	}
	if err := scheduler.Run(); err != nil {
		log.Printf("[ExpiryWorker] scheduler stopped: %v", err)
	}
}

func handleExpireTask(engine scheduling.SchedulingEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := engine.ExpireOverdueBookings(ctx)
		if err != nil {
			log.Printf("[ExpiryWorker] sweep failed: %v", err)
			return err
		}
		if expired > 0 {
			log.Printf("[ExpiryWorker] expired %d overdue bookings", expired)
		}
		return nil
	}
}
