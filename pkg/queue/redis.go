package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ZPulse/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "zpulse:queue"

// QueueConfig tunes the consumer side.
type QueueConfig struct {
	Workers    int
	RetryLimit int
	RetryDelay time.Duration
}

// RedisQueue is a redis-list job queue with delayed retries and a dead-letter
// list. Messages whose job keeps failing past RetryLimit land on the DLQ for
// manual inspection.
type RedisQueue struct {
	log  *logger.Logger
	cfg  QueueConfig
	rdb  *redis.Client
	jobs map[string]Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	ctx     context.Context
	wg      sync.WaitGroup
}

// NewRedisConsumer builds a queue consuming with the given jobs. Start must be
// called before messages flow.
func NewRedisConsumer(log *logger.Logger, cfg *QueueConfig, rdb *redis.Client, jobs []Job) *RedisQueue {
	c := QueueConfig{Workers: 1, RetryDelay: 10 * time.Second}
	if cfg != nil {
		if cfg.Workers > 0 {
			c.Workers = cfg.Workers
		}
		if cfg.RetryDelay > 0 {
			c.RetryDelay = cfg.RetryDelay
		}
		c.RetryLimit = cfg.RetryLimit
	}

	q := &RedisQueue{log: log, cfg: c, rdb: rdb, jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		if _, dup := q.jobs[j.Type()]; dup {
			log.Warn("duplicate job type ignored", logger.String("job", j.Name()))
			continue
		}
		q.jobs[j.Type()] = j
	}
	return q
}

// Start verifies the redis connection and launches the workers plus the
// retry redelivery loop.
func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue already running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := q.rdb.Ping(ctx).Err()
	cancel()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.running = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.redeliverLoop()

	q.log.Info("job queue started",
		logger.Int("workers", q.cfg.Workers),
		logger.Int("jobs", len(q.jobs)))
	return nil
}

// Stop cancels the workers and waits for them, bounded by ctx.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue shutdown: %w", ctx.Err())
	case <-done:
		q.log.Info("job queue stopped")
		return nil
	}
}

// Enqueue pushes a message for a registered job type.
func (q *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	if _, ok := q.jobs[msgType]; !ok {
		return fmt.Errorf("no job registered for type %q", msgType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:         strconv.FormatInt(time.Now().UnixNano(), 10),
		Type:       msgType,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return q.rdb.LPush(ctx, keyPrefix+":messages", data).Err()
}

func (q *RedisQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		res, err := q.rdb.BRPop(q.ctx, time.Second, keyPrefix+":messages").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			q.log.Error("queue pop", logger.Int("worker", id), logger.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			q.log.Error("queue message decode", logger.Error(err))
			continue
		}
		q.dispatch(msg)
	}
}

func (q *RedisQueue) dispatch(msg Message) {
	job, ok := q.jobs[msg.Type]
	if !ok {
		q.log.Error("no job for message",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		return
	}

	err := job.Handle(q.ctx, msg.Payload)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	q.log.Error("job failed",
		logger.String("job", job.Name()),
		logger.String("id", msg.ID),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts >= q.cfg.RetryLimit {
		q.toDeadLetter(msg)
		return
	}
	msg.Attempts++
	q.scheduleRetry(msg, time.Now().Add(q.cfg.RetryDelay))
}

func (q *RedisQueue) scheduleRetry(msg Message, at time.Time) {
	data, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("marshal retry", logger.Error(err))
		return
	}
	err = q.rdb.ZAdd(context.Background(), keyPrefix+":retry", redis.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err()
	if err != nil {
		q.log.Error("schedule retry", logger.Error(err))
	}
}

func (q *RedisQueue) toDeadLetter(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("marshal dead letter", logger.Error(err))
		return
	}
	if err := q.rdb.LPush(context.Background(), keyPrefix+":dlq", data).Err(); err != nil {
		q.log.Error("push dead letter", logger.Error(err))
	}
	q.log.Warn("message dead-lettered",
		logger.String("type", msg.Type),
		logger.String("id", msg.ID))
}

// redeliverLoop moves due retry messages back onto the main list.
func (q *RedisQueue) redeliverLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := q.rdb.ZRangeByScore(q.ctx, keyPrefix+":retry", &redis.ZRangeBy{
			Min: "0",
			Max: strconv.FormatInt(time.Now().Unix(), 10),
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			q.log.Error("fetch due retries", logger.Error(err))
			continue
		}

		for _, data := range due {
			pipe := q.rdb.TxPipeline()
			pipe.ZRem(q.ctx, keyPrefix+":retry", data)
			pipe.LPush(q.ctx, keyPrefix+":messages", data)
			if _, err := pipe.Exec(q.ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				q.log.Error("redeliver retry", logger.Error(err))
			}
		}
	}
}
