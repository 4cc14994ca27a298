package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/genlist/internal/producer"
)

// SaveNode upserts a producer row.
//
// The source state is serialized to canonical JSON and the row is only
// rewritten when its content hash changed, so saving an untouched node is a
// no-op. The node's link is stored as-is; the store never follows it.
func (s *Store) SaveNode(ctx context.Context, n *producer.Node) error {
	state, err := n.EncodeState()
	if err != nil {
		return fmt.Errorf("save node: %w", err)
	}
	hash, err := n.ContentHash()
	if err != nil {
		return fmt.Errorf("save node: %w", err)
	}

	next := sql.NullString{String: n.NextID, Valid: n.NextID != ""}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO producers
		(id, next_id, label, priority, seq, retired, emitted, done, kind, state, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			next_id = excluded.next_id,
			label = excluded.label,
			priority = excluded.priority,
			seq = excluded.seq,
			retired = excluded.retired,
			emitted = excluded.emitted,
			done = excluded.done,
			kind = excluded.kind,
			state = excluded.state,
			content_hash = excluded.content_hash
		WHERE producers.content_hash != excluded.content_hash
	`,
		n.ID,
		next,
		n.Label,
		n.Priority,
		n.Seq,
		n.Retired,
		n.Emitted,
		n.Done,
		string(n.Kind()),
		string(state),
		hash,
	)
	if err != nil {
		return fmt.Errorf("save node %s: %w", n.ID, err)
	}

	return nil
}

// DeleteNode removes a producer row. Deleting a missing id returns
// ErrNotFound so that a double delete is visible to the caller.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM producers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete node %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendEvent writes one event. Seq must be unique; a duplicate seq is an
// error because it means two writers share a clock.
func (s *Store) AppendEvent(ctx context.Context, e Event) error {
	var value sql.NullInt64
	if e.Value != nil {
		value = sql.NullInt64{Int64: *e.Value, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (seq, kind, producer_id, label, value)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.Seq,
		string(e.Kind),
		e.ProducerID,
		e.Label,
		value,
	)
	if err != nil {
		return fmt.Errorf("append event %d: %w", e.Seq, err)
	}
	return nil
}
