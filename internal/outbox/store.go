package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmstead-erp/farmstead-erp/internal/platform/db"
)

// Store reads and settles outbox rows.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// DispatchBatch claims up to limit pending rows with SKIP LOCKED, invokes
// handle for each, and settles them in the same transaction. A handler
// error leaves the row pending with the error recorded; other workers are
// never blocked on it. Returns the number of rows dispatched.
func (s *Store) DispatchBatch(ctx context.Context, limit int, handle func(Message) error) (int, error) {
	dispatched := 0
	err := db.WithReadCommittedTx(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, topic, payload, attempts, COALESCE(last_error,''), created_at
			FROM outbox_messages
			WHERE status=$1
			ORDER BY id
			LIMIT $2
			FOR UPDATE SKIP LOCKED`, StatusPending, limit)
		if err != nil {
			return err
		}
		var batch []Message
		for rows.Next() {
			var m Message
			if err := rows.Scan(&m.ID, &m.Topic, &m.Payload, &m.Attempts, &m.LastError, &m.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, m)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, m := range batch {
			if handleErr := handle(m); handleErr != nil {
				if _, err := tx.Exec(ctx, `
					UPDATE outbox_messages
					SET attempts=attempts+1, last_error=$2
					WHERE id=$1`, m.ID, handleErr.Error()); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.Exec(ctx, `
				UPDATE outbox_messages
				SET status=$2, attempts=attempts+1, last_error=NULL, dispatched_at=$3
				WHERE id=$1`, m.ID, StatusDispatched, now); err != nil {
				return err
			}
			dispatched++
		}
		return nil
	})
	return dispatched, err
}

// PendingCount reports how many rows await dispatch.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE status=$1`, StatusPending).Scan(&n)
	return n, err
}

// Prune deletes dispatched rows older than the retention window.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `
		DELETE FROM outbox_messages
		WHERE status=$1 AND dispatched_at < $2`, StatusDispatched, cutoff)
	return err
}
