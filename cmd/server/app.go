package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Code-Chilll/Task-Manager/internal/config"
	"github.com/Code-Chilll/Task-Manager/internal/database"
	"github.com/Code-Chilll/Task-Manager/internal/handlers"
	"github.com/Code-Chilll/Task-Manager/internal/middleware"
	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
	"github.com/Code-Chilll/Task-Manager/internal/notify"
	"github.com/Code-Chilll/Task-Manager/internal/redisclient"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/services"
	"github.com/Code-Chilll/Task-Manager/internal/worker"
)

const emailTimeout = 30 * time.Second

// app owns every long-lived resource of the server process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	pool    *database.DatabasePool
	redis   *redisclient.Client
	worker  *worker.Worker
	queue   *worker.JobQueue
	otp     services.OTPService
	limiter *middleware.IPRateLimiter
	router  *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	a.pool = pool
	if err := pool.Migrate(); err != nil {
		a.close()
		return nil, err
	}

	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register("database", pool.Health)

	var transport notify.Sender = notify.NewLogSender(logger)
	if cfg.SMTP.Enabled() {
		transport = notify.NewSMTPSender(cfg.SMTP, logger)
	}

	sender := notify.Sender(notify.NewAsyncSender(transport, emailTimeout, logger))
	if cfg.Redis.Enabled {
		a.redis = redisclient.New(redisclient.ConfigFrom(cfg))
		if err := a.redis.Health(ctx); err != nil {
			a.close()
			return nil, err
		}
		health.Register("redis", a.redis.Health)

		a.queue = worker.NewJobQueue(a.redis.Client, cfg.Worker.MaxRetries)
		a.worker = worker.NewWorker(a.redis.Client, worker.Config{
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			JobTimeout:   emailTimeout,
			Logger:       logger,
		})
		a.worker.RegisterHandler(notify.JobTypeEmail, emailJob(transport))
		sender = notify.NewQueueSender(a.queue)
	}

	opts := []services.Option{services.WithLogger(logger)}
	userRepo := repositories.NewUserRepository(pool.DB)
	hasher := services.NewBcryptHasher(cfg.Auth.BCryptCost)
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, opts...)
	authz := services.NewAuthorizationService(userRepo, repositories.NewAuditRepository(pool.DB), opts...)
	otp := services.NewOTPService(repositories.NewOtpRepository(pool.DB), sender, cfg.OTP.TTL, cfg.OTP.Retention, opts...)
	accounts := services.NewAccountService(userRepo, otp, hasher, tokens, opts...)
	a.otp = otp

	if a.worker != nil {
		a.worker.RegisterHandler(worker.JobTypeOTPPurge, func(ctx context.Context, _ *worker.Job) error {
			_, err := otp.PurgeExpired(ctx)
			return err
		})
	}

	created, err := accounts.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		a.close()
		return nil, err
	}
	if created {
		logger.Info("admin account created", slog.String("email", cfg.Auth.AdminEmail))
	}

	if cfg.RateLimit.Enabled {
		a.limiter = middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMin, time.Minute, cfg.RateLimit.BurstSize)
	}

	router, err := handlers.NewRouter(handlers.Deps{
		Accounts:       accounts,
		Tasks:          services.NewTaskService(repositories.NewTaskRepository(pool.DB), authz, sender, cfg.Notify.TaskEvents, opts...),
		Users:          services.NewUserService(userRepo, authz, hasher, opts...),
		Tokens:         tokens,
		Health:         health,
		RateLimiter:    a.limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.router = router
	return a, nil
}

// start launches background work. Everything stops when ctx is cancelled.
func (a *app) start(ctx context.Context) {
	if a.limiter != nil && a.cfg.RateLimit.CleanupInterval > 0 {
		go a.limiter.Cleanup(ctx, a.cfg.RateLimit.CleanupInterval)
	}

	purge := func(ctx context.Context) error {
		_, err := a.otp.PurgeExpired(ctx)
		return err
	}
	if a.worker != nil {
		a.worker.Start(ctx)
		purge = func(ctx context.Context) error {
			_, err := a.queue.Enqueue(ctx, worker.JobTypeOTPPurge, struct{}{})
			return err
		}
	}
	go worker.RunPeriodic(ctx, "otp_purge", a.cfg.OTP.PurgeInterval, a.logger, purge)
}

func (a *app) close() error {
	var errs []error
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.pool != nil {
		errs = append(errs, a.pool.Close())
	}
	return errors.Join(errs...)
}

// emailJob delivers a queued Message through the real transport.
func emailJob(transport notify.Sender) worker.JobHandler {
	return func(ctx context.Context, job *worker.Job) error {
		var msg notify.Message
		if err := job.Decode(&msg); err != nil {
			return err
		}
		return transport.Send(ctx, msg)
	}
}
