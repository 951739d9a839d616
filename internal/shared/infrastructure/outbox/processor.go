package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paperlus/ledger/internal/shared/infrastructure/eventbus"
	"github.com/paperlus/ledger/pkg/observability"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig polls every 100ms, 100 messages at a time, and
// dead-letters a message after 5 attempts.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

func (c ProcessorConfig) normalized() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = time.Second
	}
	if c.RetryBackoffMax <= 0 {
		c.RetryBackoffMax = time.Minute
	}
	return c
}

// Processor moves ledger events from the outbox table to a Publisher. A
// failed delivery is rescheduled with exponential backoff; the attempt that
// reaches MaxRetries dead-letters the message instead.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	statusMu sync.Mutex
	status   relayStatus
}

type relayStatus struct {
	lastErr    string
	lastErrAt  *time.Time
	lastPollAt *time.Time
	oldest     *time.Time
	lag        time.Duration
}

// NewProcessor creates a relay from repo to publisher.
func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg.normalized(),
		logger:    logger.With("component", "outbox"),
		metrics:   observability.NoopMetrics{},
	}
}

// WithMetrics reports deliveries and lag to m.
func (p *Processor) WithMetrics(m observability.Metrics) *Processor {
	if m != nil {
		p.metrics = m
	}
	return p
}

// Start launches the polling loop. It stops when ctx ends or Stop is called.
// Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go p.loop(loopCtx, done)
	p.logger.Info("outbox relay started", "poll_interval", p.cfg.PollInterval, "batch_size", p.cfg.BatchSize)
	return nil
}

// Stop ends the loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.lifecycle.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox relay stopped")
}

// IsRunning reports whether the loop is polling.
func (p *Processor) IsRunning() bool {
	p.lifecycle.Lock()
	done := p.done
	p.lifecycle.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (p *Processor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.relay(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("outbox poll failed", "error", err)
			}
		}
	}
}

// ProcessOnce relays one batch synchronously. Local mode flushes events this
// way after each command since no worker is running.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.relay(ctx)
}

func (p *Processor) relay(ctx context.Context) error {
	batch, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.noteBatch(batch)

	for _, msg := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.deliver(ctx, msg)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) {
	routing := observability.T("routing_key", msg.RoutingKey)

	pubErr := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if pubErr == nil {
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("published message could not be marked", "id", msg.ID, "event_id", msg.EventID, "error", err)
			return
		}
		p.published.Add(1)
		p.metrics.Counter(observability.MetricOutboxPublished, 1, routing)
		return
	}

	meta := decodeMetadata(msg)
	p.logger.Warn("outbox delivery failed",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		observability.CorrelationIDKey, meta.CorrelationID,
		observability.OperatorIDKey, meta.OperatorID,
		"attempt", msg.RetryCount+1,
		"error", pubErr,
	)
	p.noteError(pubErr)

	attempt := msg.RetryCount + 1
	if p.cfg.MaxRetries <= 0 || attempt >= p.cfg.MaxRetries {
		p.dead.Add(1)
		p.metrics.Counter(observability.MetricOutboxDead, 1, routing)
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			p.logger.Error("message could not be dead-lettered", "id", msg.ID, "error", err)
		}
		return
	}

	p.failed.Add(1)
	p.metrics.Counter(observability.MetricOutboxFailed, 1, routing)
	retryAt := time.Now().Add(p.backoff(attempt))
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), retryAt); err != nil {
		p.logger.Error("message retry could not be scheduled", "id", msg.ID, "error", err)
	}
}

// backoff is RetryBackoffBase * 2^(attempt-1), capped at RetryBackoffMax.
func (p *Processor) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 30 {
		return p.cfg.RetryBackoffMax
	}
	delay := p.cfg.RetryBackoffBase << shift
	if delay <= 0 || delay > p.cfg.RetryBackoffMax {
		return p.cfg.RetryBackoffMax
	}
	return delay
}

func decodeMetadata(msg *Message) eventbus.EventMetadata {
	var meta eventbus.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &meta)
	}
	return meta
}

func (p *Processor) noteError(err error) {
	now := time.Now()
	p.statusMu.Lock()
	p.status.lastErr = err.Error()
	p.status.lastErrAt = &now
	p.statusMu.Unlock()
}

// noteBatch records the age of the oldest pending message as the relay lag.
func (p *Processor) noteBatch(batch []*Message) {
	now := time.Now()
	var oldest *time.Time
	for _, msg := range batch {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			created := msg.CreatedAt
			oldest = &created
		}
	}
	var lag time.Duration
	if oldest != nil {
		lag = now.Sub(*oldest)
	}

	p.statusMu.Lock()
	p.status.lastPollAt = &now
	p.status.oldest = oldest
	p.status.lag = lag
	p.statusMu.Unlock()

	p.metrics.Gauge(observability.MetricOutboxLag, lag.Seconds())
}

// Stats is a snapshot of relay activity, served by the worker health endpoint.
type Stats struct {
	IsRunning       bool       `json:"is_running"`
	PublishedCount  uint64     `json:"published_count"`
	FailedCount     uint64     `json:"failed_count"`
	DeadCount       uint64     `json:"dead_count"`
	LagSeconds      float64    `json:"lag_seconds"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
	OldestMessageAt *time.Time `json:"oldest_message_at,omitempty"`
}

// GetStats returns a snapshot of the relay.
func (p *Processor) GetStats() Stats {
	p.statusMu.Lock()
	st := p.status
	p.statusMu.Unlock()

	return Stats{
		IsRunning:       p.IsRunning(),
		PublishedCount:  p.published.Load(),
		FailedCount:     p.failed.Load(),
		DeadCount:       p.dead.Load(),
		LagSeconds:      st.lag.Seconds(),
		LastError:       st.lastErr,
		LastErrorAt:     st.lastErrAt,
		LastProcessedAt: st.lastPollAt,
		OldestMessageAt: st.oldest,
	}
}
