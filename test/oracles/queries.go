package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All lists queries that must return no rows.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_signed_message",
			SQL: `SELECT payload->>'request_id', COUNT(*) FROM outbox
                  WHERE topic = 'signoff.signed'
                  GROUP BY payload->>'request_id' HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_signed_without_message",
			SQL: `SELECT r.id FROM signoff_requests r
                  WHERE r.status = 'signed'
                    AND NOT EXISTS (SELECT 1 FROM outbox o
                                    WHERE o.topic = 'signoff.signed' AND o.payload->>'request_id' = r.id::text)`,
		},
		{
			Name: "O3_message_without_signature",
			SQL: `SELECT o.id FROM outbox o
                  LEFT JOIN signoff_requests r ON r.id::text = o.payload->>'request_id'
                  WHERE o.topic = 'signoff.signed' AND (r.id IS NULL OR r.status <> 'signed')`,
		},
		{
			Name: "O4_signed_at_consistent",
			SQL: `SELECT id FROM signoff_requests
                  WHERE (status = 'signed') <> (signed_at IS NOT NULL)`,
		},
		{
			Name: "O5_blank_guarantor_details",
			SQL: `SELECT id FROM signoff_requests
                  WHERE guarantor_name = '' OR guarantor_email = ''`,
		},
		{
			Name: "O6_outbox_stuck",
			SQL: `SELECT id FROM outbox
                  WHERE status = 'pending' AND now() - created_at > interval '5 minutes'`,
		},
		{
			Name: "O7_guard_trigger_present",
			SQL: `SELECT 'missing_signoff_guard' AS detail
                  WHERE NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'signoff_guard_signed')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
