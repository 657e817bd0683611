package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	matchdomain "onboarding_backend/internal/matching/domain"
	msdomain "onboarding_backend/internal/milestones/domain"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues one-off tasks, e.g. an operator triggered recompute.
type Client struct {
	client enqueuer
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueMilestoneRecompute queues a recompute and returns the task id.
func (c *Client) EnqueueMilestoneRecompute(ctx context.Context, payload MilestoneRecomputePayload) (string, error) {
	if !msdomain.ValidWindow(payload.WindowDays) {
		return "", apperr.Validation(fmt.Sprintf("windowDays must be one of %v", msdomain.AllWindows))
	}

	task, err := NewMilestoneRecomputeTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// EnqueueMatchReconcile queues a reconcile run and returns the task id.
func (c *Client) EnqueueMatchReconcile(ctx context.Context, payload MatchReconcilePayload) (string, error) {
	if !matchdomain.Source(payload.Source).Valid() {
		return "", apperr.Validation(fmt.Sprintf("unknown source %q", payload.Source))
	}
	if payload.LookbackDays < 1 {
		return "", apperr.Validation("lookbackDays must be positive")
	}

	task, err := NewMatchReconcileTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
