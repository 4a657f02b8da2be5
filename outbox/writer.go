package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Writer appends messages to the outbox table inside an existing transaction,
// so the message commits or rolls back together with the business write.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Enqueue inserts one pending message.
func (w *Writer) Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	if topic == "" {
		return fmt.Errorf("outbox: empty topic")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("outbox: marshal payload: %w", err)
	}

	const insertSQL = `
INSERT INTO outbox (topic, payload)
VALUES ($1, $2);
`
	if _, err := tx.Exec(ctx, insertSQL, topic, body); err != nil {
		return fmt.Errorf("outbox: insert message: %w", err)
	}
	return nil
}
