package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/genlist/internal/producer"
)

const producerColumns = `id, next_id, label, priority, seq, retired, emitted, done, kind, state`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*producer.Node, error) {
	var (
		n     producer.Node
		next  sql.NullString
		kind  string
		state string
	)
	if err := row.Scan(&n.ID, &next, &n.Label, &n.Priority, &n.Seq, &n.Retired, &n.Emitted, &n.Done, &kind, &state); err != nil {
		return nil, err
	}
	if next.Valid {
		n.NextID = next.String
	}
	src, err := producer.DecodeSource(producer.Kind(kind), []byte(state))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", n.ID, err)
	}
	n.Source = src
	return &n, nil
}

// LoadNode reads a producer by id. Returns ErrNotFound if no row exists.
// Every call returns a fresh *producer.Node.
func (s *Store) LoadNode(ctx context.Context, id string) (*producer.Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+producerColumns+` FROM producers WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", id, err)
	}
	return n, nil
}

// CountNodes returns the number of stored producers.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM producers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// Heads returns ids of nodes that no other node links to, ordered by seq.
// A consistent store has at most one.
func (s *Store) Heads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id FROM producers p
		WHERE NOT EXISTS (SELECT 1 FROM producers q WHERE q.next_id = p.id)
		ORDER BY p.seq ASC, p.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query heads: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan head: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heads: %w", err)
	}
	return ids, nil
}

// Head loads the single list head. ok is false for an empty store.
// Returns ErrMultipleHeads when the stored links describe more than one list.
func (s *Store) Head(ctx context.Context) (*producer.Node, bool, error) {
	ids, err := s.Heads(ctx)
	if err != nil {
		return nil, false, err
	}
	switch len(ids) {
	case 0:
		return nil, false, nil
	case 1:
		n, err := s.LoadNode(ctx, ids[0])
		if err != nil {
			return nil, false, err
		}
		return n, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrMultipleHeads, strings.Join(ids, ", "))
	}
}

// ReadEvents returns events matching the filter, ordered by seq.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)
	if f.ProducerID != "" {
		clauses = append(clauses, "producer_id = ?")
		args = append(args, f.ProducerID)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.AfterSeq > 0 {
		clauses = append(clauses, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT seq, kind, producer_id, label, value FROM events`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e     Event
			kind  string
			value sql.NullInt64
		)
		if err := rows.Scan(&e.Seq, &kind, &e.ProducerID, &e.Label, &value); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		if value.Valid {
			v := value.Int64
			e.Value = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// MaxSeq returns the highest event seq, or 0 for an empty log.
// Used to resume the logical clock after restart.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

// MaxNodeSeq returns the highest producer insertion seq, or 0.
func (s *Store) MaxNodeSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM producers`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max node seq: %w", err)
	}
	return seq.Int64, nil
}
