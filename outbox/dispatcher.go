package outbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// Handler delivers one message. A returned error schedules a retry.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DispatcherConfig tunes polling.
type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Dispatcher drains pending outbox rows to topic handlers.
type Dispatcher struct {
	pool     TxBeginner
	cfg      DispatcherConfig
	handlers map[string]Handler
	logger   *log.Logger
}

func NewDispatcher(pool TxBeginner, cfg DispatcherConfig) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Dispatcher{
		pool:     pool,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		logger:   log.Default(),
	}
}

// Register binds a handler to a topic.
func (d *Dispatcher) Register(topic string, h Handler) *Dispatcher {
	d.handlers[topic] = h
	return d
}

// WithLogger replaces the default logger.
func (d *Dispatcher) WithLogger(l *log.Logger) *Dispatcher {
	d.logger = l
	return d
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.Printf("outbox: dispatch: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchOnce drains up to BatchSize rows, each claimed, delivered and marked
// in its own transaction so one failure never replays the rest of the batch.
// Rows are claimed with SKIP LOCKED so several dispatchers never deliver the same
// row. Delivery is at-least-once: a handler that succeeds before its commit fails
// sees the message again on the next pass. It returns the number of rows claimed.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	seen := make([]string, 0, d.cfg.BatchSize)
	for len(seen) < d.cfg.BatchSize {
		id, err := d.dispatchNext(ctx, seen)
		if err != nil {
			return len(seen), err
		}
		if id == "" {
			break
		}
		seen = append(seen, id)
	}
	return len(seen), nil
}

// dispatchNext claims the oldest pending row not in skip and returns its id, or
// "" when nothing is left.
func (d *Dispatcher) dispatchNext(ctx context.Context, skip []string) (string, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("outbox: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const claimSQL = `
SELECT id::text, topic, payload, status, attempts, created_at
FROM outbox
WHERE status = 'pending' AND NOT (id::text = ANY($1::text[]))
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;
`
	var msg Message
	err = tx.QueryRow(ctx, claimSQL, skip).
		Scan(&msg.ID, &msg.Topic, &msg.Payload, &msg.Status, &msg.Attempts, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("outbox: claim: %w", err)
	}

	if err := d.deliver(ctx, tx, msg); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("outbox: commit %s: %w", msg.ID, err)
	}
	return msg.ID, nil
}

func (d *Dispatcher) deliver(ctx context.Context, tx pgx.Tx, msg Message) error {
	h, ok := d.handlers[msg.Topic]
	if !ok {
		d.logger.Printf("outbox: no handler for topic %s, marking %s processed", msg.Topic, msg.ID)
		return markProcessed(ctx, tx, msg.ID)
	}

	handleErr := h.Handle(ctx, msg)
	if handleErr == nil {
		return markProcessed(ctx, tx, msg.ID)
	}
	if errors.Is(handleErr, context.Canceled) {
		return handleErr
	}

	attempts := msg.Attempts + 1
	status := StatusPending
	if attempts >= d.cfg.MaxAttempts {
		status = StatusDead
	}
	d.logger.Printf("outbox: deliver %s (%s) attempt %d: %v", msg.ID, msg.Topic, attempts, handleErr)

	const failSQL = `
UPDATE outbox
SET attempts = $2, status = $3, last_error = $4
WHERE id = $1;
`
	if _, err := tx.Exec(ctx, failSQL, msg.ID, attempts, status, handleErr.Error()); err != nil {
		return fmt.Errorf("outbox: record failure: %w", err)
	}
	return nil
}

func markProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	const doneSQL = `
UPDATE outbox
SET status = 'processed', processed_at = now()
WHERE id = $1;
`
	if _, err := tx.Exec(ctx, doneSQL, id); err != nil {
		return fmt.Errorf("outbox: mark processed: %w", err)
	}
	return nil
}
