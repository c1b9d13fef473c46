package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const (
	DefaultBatchSubject  = "lostfound.batch.requested"
	DefaultEventsSubject = "lostfound.match.created"

	workerQueueGroup = "matchers"
)

// Queue carries batch jobs to workers and announces created matches.
type Queue struct {
	conn          *nats.Conn
	batchSubject  string
	eventsSubject string
	executor      *resilience.Executor
}

type Options struct {
	BatchSubject         string
	EventsSubject        string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string) (*Queue, error) {
	return NewWithOptions(url, Options{})
}

func NewWithOptions(url string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("lostfound-matcher"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		batchSubject:  orDefault(options.BatchSubject, DefaultBatchSubject),
		eventsSubject: orDefault(options.EventsSubject, DefaultEventsSubject),
		executor:      options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishBatchJob(ctx context.Context, job domain.BatchJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal batch job: %w", err)
	}
	return q.publish(ctx, q.batchSubject, payload)
}

// PublishMatchCreated sends the match as a JSON event on the events subject.
func (q *Queue) PublishMatchCreated(ctx context.Context, match domain.Match) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}
	return q.publish(ctx, q.eventsSubject, payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context, _ int) error {
		return q.conn.Publish(subject, payload)
	}

	var err error
	if q.executor != nil {
		_, err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx, 1)
	}
	return publishError(subject, err)
}

// SubscribeBatchJobs blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeBatchJobs(ctx context.Context, handler func(context.Context, domain.BatchJob) error) error {
	sub, err := q.conn.QueueSubscribe(q.batchSubject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		handleBatchMessage(ctx, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func handleBatchMessage(ctx context.Context, data []byte, handler func(context.Context, domain.BatchJob) error) {
	job, err := decodeBatchJob(data)
	if err != nil {
		slog.Error("batch_job_decode_failed", "error", err, "payload_bytes", len(data))
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, job); err != nil {
		slog.Error("batch_job_failed", "job_id", job.ID, "error", err)
	}
}

func decodeBatchJob(data []byte) (domain.BatchJob, error) {
	var job domain.BatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.BatchJob{}, fmt.Errorf("decode batch job: %w", err)
	}
	if job.ID == "" {
		return domain.BatchJob{}, errors.New("decode batch job: missing id")
	}
	return job, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
