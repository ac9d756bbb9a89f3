package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// RecordMessage inserts a relayed message and returns its id.
func RecordMessage(ctx context.Context, db DBExecutor, m Message) (int64, error) {
	if strings.TrimSpace(m.Context) == "" {
		return 0, fmt.Errorf("context must be non-empty")
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO messages (context, speaker, raw_text, annotation, annotation_source, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Context, m.Speaker, m.RawText, nullableString(m.Annotation), nullableString(m.AnnotationSource), m.SentAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return res.LastInsertId()
}

// RecentMessages returns up to limit messages, newest first. An empty
// context matches every context.
func RecentMessages(ctx context.Context, db DBExecutor, chatContext string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, context, speaker, raw_text, annotation, annotation_source, sent_at FROM messages`
	args := []interface{}{}
	if chatContext != "" {
		query += ` WHERE context = ?`
		args = append(args, chatContext)
	}
	query += ` ORDER BY sent_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var annotation, source sql.NullString
		if err := rows.Scan(&m.ID, &m.Context, &m.Speaker, &m.RawText, &annotation, &source, &m.SentAt); err != nil {
			return nil, err
		}
		if annotation.Valid {
			m.Annotation = annotation.String
		}
		if source.Valid {
			m.AnnotationSource = source.String
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatsBySpeaker counts messages and annotated messages per speaker.
func StatsBySpeaker(ctx context.Context, db DBExecutor) ([]SpeakerStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT speaker, COUNT(*), COUNT(annotation) FROM messages GROUP BY speaker ORDER BY COUNT(*) DESC, speaker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SpeakerStats
	for rows.Next() {
		var s SpeakerStats
		if err := rows.Scan(&s.Speaker, &s.Messages, &s.Annotated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullableString returns nil for "" so the column stays NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
