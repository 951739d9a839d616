package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
)

const outboxColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

// dialect covers what differs between the two SQL backends: placeholder
// syntax, how ids and timestamps are bound, and how a row is read back.
type dialect struct {
	numbered bool
	id       func(uuid.UUID) any
	stamp    func(time.Time) any
	text     func(json.RawMessage) any
	scan     func(database.Rows) (*Message, error)
}

var postgresDialect = dialect{
	numbered: true,
	id:       func(u uuid.UUID) any { return u },
	stamp:    func(t time.Time) any { return t },
	text:     func(raw json.RawMessage) any { return []byte(raw) },
	scan:     scanPostgresMessage,
}

var sqliteDialect = dialect{
	id:    func(u uuid.UUID) any { return u.String() },
	stamp: func(t time.Time) any { return sqliteTime(t) },
	text:  func(raw json.RawMessage) any { return string(raw) },
	scan:  scanSQLiteMessage,
}

// bind rewrites ? placeholders to $1..$n for numbered dialects.
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLRepository stores the outbox in the ledger database.
type SQLRepository struct {
	conn database.Connection
	d    dialect
}

// NewPostgresRepository returns an outbox on PostgreSQL.
func NewPostgresRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, d: postgresDialect}
}

// NewSQLiteRepository returns an outbox on the local SQLite file.
func NewSQLiteRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, d: sqliteDialect}
}

// SaveBatch inserts msgs, joining the caller's transaction when present.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	insert := r.d.bind(`INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	return withExecutor(ctx, r.conn, func(exec database.Executor) error {
		for _, msg := range msgs {
			var metadata any
			if len(msg.Metadata) > 0 {
				metadata = r.d.text(msg.Metadata)
			}
			err := exec.QueryRow(ctx, insert,
				r.d.id(msg.EventID), msg.AggregateType, r.d.id(msg.AggregateID),
				msg.EventType, msg.RoutingKey, r.d.text(msg.Payload), metadata,
				r.d.stamp(msg.CreatedAt),
			).Scan(&msg.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUnpublished returns pending messages, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := r.d.bind(`SELECT ` + outboxColumns + ` FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`)

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, r.d.stamp(time.Now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*Message
	for rows.Next() {
		msg, err := r.d.scan(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, msg)
	}
	return pending, rows.Err()
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`,
		r.d.stamp(time.Now()), id)
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.exec(ctx, `UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		errMsg, r.d.stamp(nextRetryAt), id)
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.exec(ctx, `UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		r.d.stamp(time.Now()), reason, id)
}

// DeleteOld removes published messages older than olderThanDays.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		r.d.bind(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`),
		r.d.stamp(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, r.d.bind(query), args...)
	return err
}

func scanPostgresMessage(rows database.Rows) (*Message, error) {
	var msg Message
	err := rows.Scan(
		&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.RoutingKey,
		&msg.Payload, &msg.Metadata, &msg.CreatedAt, &msg.PublishedAt, &msg.NextRetryAt, &msg.RetryCount,
		&msg.LastError, &msg.DeadLetteredAt, &msg.DeadLetterReason,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SQLite stores timestamps as fixed-width UTC text so they compare lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(sqliteTimeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func scanSQLiteMessage(rows database.Rows) (*Message, error) {
	var (
		msg                                Message
		eventID, aggregateID, payload      string
		created                            string
		metadata, published, retryAt, dead sql.NullString
		lastError, deadReason              sql.NullString
	)
	err := rows.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &created, &published, &retryAt, &msg.RetryCount,
		&lastError, &dead, &deadReason,
	)
	if err != nil {
		return nil, err
	}

	msg.EventID, _ = uuid.Parse(eventID)
	msg.AggregateID, _ = uuid.Parse(aggregateID)
	msg.Payload = json.RawMessage(payload)
	if metadata.Valid {
		msg.Metadata = json.RawMessage(metadata.String)
	}
	if t := parseSQLiteTime(sql.NullString{String: created, Valid: true}); t != nil {
		msg.CreatedAt = *t
	}
	msg.PublishedAt = parseSQLiteTime(published)
	msg.NextRetryAt = parseSQLiteTime(retryAt)
	msg.DeadLetteredAt = parseSQLiteTime(dead)
	msg.LastError = nullString(lastError)
	msg.DeadLetterReason = nullString(deadReason)
	return &msg, nil
}

// withExecutor runs fn in the transaction from ctx, or in a new one that it
// commits itself.
func withExecutor(ctx context.Context, conn database.Connection, fn func(database.Executor) error) error {
	if tx, ok := database.TxFromContext(ctx); ok {
		return fn(tx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
