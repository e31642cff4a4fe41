package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
)

const (
	QueueDefault = "taskmanager:jobs"
	QueueRetry   = "taskmanager:jobs:retry"
	QueueDead    = "taskmanager:jobs:dead"
)

// JobTypeOTPPurge removes expired OTP ledger entries.
const JobTypeOTPPurge = "otp_purge"

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

func (j *Job) Decode(v any) error {
	if len(j.Payload) == 0 {
		return errors.New("job has no payload")
	}
	return json.Unmarshal(j.Payload, v)
}

type JobHandler func(ctx context.Context, job *Job) error

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	RetryBackoff time.Duration
	JobTimeout   time.Duration
	Logger       *slog.Logger
}

type Worker struct {
	client   *redis.Client
	handlers map[string]JobHandler
	mu       sync.RWMutex
	cfg      Config
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewWorker(client *redis.Client, cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		client:   client,
		handlers: make(map[string]JobHandler),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (w *Worker) RegisterHandler(jobType string, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches the consumer goroutines. They run until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.logger.Info("starting worker", slog.Int("concurrency", w.cfg.Concurrency))

	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}

	w.wg.Add(1)
	go w.promoteLoop(ctx)
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := w.ProcessNext(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("error processing job", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *Worker) promoteLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.PromoteDue(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("promote retry jobs", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessNext waits up to PollInterval for a job and runs it. It reports whether a job was taken.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	result, err := w.client.BLPop(ctx, w.cfg.PollInterval, QueueDefault).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return false, fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		raw, _ := json.Marshal(result[1])
		return true, w.moveToDeadQueue(ctx, &Job{Payload: raw}, fmt.Errorf("unmarshal job: %w", err))
	}

	return true, w.execute(ctx, &job)
}

func (w *Worker) execute(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	err := handler(jobCtx, job)
	monitoring.RecordJob(job.Type, err)
	if err == nil {
		w.logger.Debug("job completed", slog.String("id", job.ID), slog.String("type", job.Type))
		return nil
	}

	job.Attempts++
	if job.Attempts < job.MaxTries {
		w.logger.Warn("job failed, retrying",
			slog.String("id", job.ID),
			slog.String("type", job.Type),
			slog.Int("attempt", job.Attempts),
			slog.Int("max_tries", job.MaxTries),
			slog.String("error", err.Error()),
		)
		return w.scheduleRetry(ctx, job)
	}

	w.logger.Error("job failed permanently",
		slog.String("id", job.ID),
		slog.String("type", job.Type),
		slog.Int("attempts", job.Attempts),
		slog.String("error", err.Error()),
	)
	return w.moveToDeadQueue(ctx, job, err)
}

func (w *Worker) scheduleRetry(ctx context.Context, job *Job) error {
	delay := time.Duration(1<<(job.Attempts-1)) * w.cfg.RetryBackoff
	job.ProcessAt = w.now().Add(delay)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return w.client.ZAdd(ctx, QueueRetry, redis.Z{
		Score:  float64(job.ProcessAt.UnixMilli()),
		Member: data,
	}).Err()
}

// PromoteDue moves retry jobs whose time has come back onto the main queue.
func (w *Worker) PromoteDue(ctx context.Context) (int, error) {
	due, err := w.client.ZRangeByScore(ctx, QueueRetry, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(w.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, member := range due {
		removed, err := w.client.ZRem(ctx, QueueRetry, member).Result()
		if err != nil {
			return promoted, err
		}
		if removed == 0 {
			continue
		}
		if err := w.client.RPush(ctx, QueueDefault, member).Err(); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]any{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    w.now(),
	}

	data, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}
	return w.client.RPush(ctx, QueueDead, data).Err()
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
	now      func() time.Time
}

func NewJobQueue(client *redis.Client, maxTries int) *JobQueue {
	if maxTries <= 0 {
		maxTries = 3
	}
	return &JobQueue{client: client, maxTries: maxTries, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := q.now()
	job := &Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   raw,
		MaxTries:  q.maxTries,
		CreatedAt: now,
		ProcessAt: now,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueDefault, data).Err(); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (q *JobQueue) Size(ctx context.Context, queue string) (int64, error) {
	if queue == QueueRetry {
		return q.client.ZCard(ctx, queue).Result()
	}
	return q.client.LLen(ctx, queue).Result()
}
