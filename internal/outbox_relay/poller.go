// Package outbox_relay moves transaction events from the outbox table to
// Kafka. Messages of one transaction are published in creation order; distinct
// transactions are published concurrently on a worker pool.
package outbox_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/financial-transactions-api/internal/config"
	"github.com/financial-transactions-api/internal/domain/outbox"
	"github.com/financial-transactions-api/internal/platform/messaging/producers"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// PublishRecorder counts publish outcomes per event type
type PublishRecorder interface {
	EventPublished(eventType string)
	EventFailed(eventType string)
}

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	dlq              producers.DeadLetterPublisher
	recorder         PublishRecorder
	pool             *ants.Pool
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	poolCfg *config.WorkerPoolConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	dlq producers.DeadLetterPublisher,
	recorder PublishRecorder,
	logger *slog.Logger,
) (*Poller, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		dlq:              dlq,
		recorder:         recorder,
		pool:             pool,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"workers", p.pool.Cap(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool
func (p *Poller) Shutdown() {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	var wg sync.WaitGroup
	for _, group := range groupByTransaction(messages) {
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			p.processGroup(ctx, group)
		}); err != nil {
			wg.Done()
			p.logger.Error("Failed to submit outbox messages to worker pool",
				"transaction_id", group[0].TransactionID,
				"count", len(group),
				"error", err,
			)
		}
	}
	wg.Wait()

	return nil
}

// processGroup publishes one transaction's messages in order. A failure stops
// the group so a later event never overtakes an earlier one.
func (p *Poller) processGroup(ctx context.Context, group []*outbox.Message) {
	for _, msg := range group {
		if !p.processMessage(ctx, msg) {
			return
		}
	}
}

// processMessage reports whether msg left the pending state
func (p *Poller) processMessage(ctx context.Context, msg *outbox.Message) bool {
	logger := p.logger.With(
		"outbox_id", msg.ID,
		"event_type", msg.EventType,
		"transaction_id", msg.TransactionID,
	)

	err := p.publisher.PublishEvent(ctx, msg)
	if err == nil {
		p.recorder.EventPublished(string(msg.EventType))
		if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusProcessed); errUpdate != nil {
			// Still PENDING, so the next poll publishes it again.
			logger.Error("Failed to update outbox message status to PROCESSED", "error", errUpdate)
			return false
		}
		logger.Info("Outbox message published and marked as PROCESSED")
		return true
	}

	p.recorder.EventFailed(string(msg.EventType))
	logger.Error("Failed to publish outbox message", "current_attempts", msg.Attempts, "error", err)

	if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
		logger.Error("Failed to increment attempts for outbox message", "error", errInc)
		return false
	}

	msg.IncrementAttempts()
	if !msg.RetriesExhausted(p.maxRetryAttempts) {
		return false
	}

	logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
		"attempts_made", msg.Attempts,
	)
	if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusFailedToPublish); errUpdate != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", errUpdate)
		return false
	}

	reason := fmt.Sprintf("publish failed after %d attempts: %v", msg.Attempts, err)
	if errDLQ := p.dlq.PublishToDLQ(ctx, msg.TransactionID.String(), msg.Payload, reason); errDLQ != nil {
		if errors.Is(errDLQ, producers.ErrDLQDisabled) {
			logger.Warn("Dead letter queue disabled, dropping exhausted outbox message")
		} else {
			logger.Error("Failed to publish exhausted outbox message to DLQ", "error", errDLQ)
		}
	}
	return true
}

// groupByTransaction splits messages per transaction, keeping their order
func groupByTransaction(messages []*outbox.Message) [][]*outbox.Message {
	index := make(map[uuid.UUID]int)
	var groups [][]*outbox.Message
	for _, msg := range messages {
		i, ok := index[msg.TransactionID]
		if !ok {
			i = len(groups)
			index[msg.TransactionID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], msg)
	}
	return groups
}
