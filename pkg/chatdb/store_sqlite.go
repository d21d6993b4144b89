package chatdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrMissingTable = errors.New("chatdb: required table missing")

// RequiredTables are the tables both queries join over.
var RequiredTables = []string{"message", "chat", "chat_message_join", "handle"}

const listConversationsQuery = `
	SELECT max(m.date), c.chat_identifier
	FROM message m
	JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
	JOIN chat c ON cmj.chat_id = c.ROWID
	GROUP BY c.chat_identifier
	ORDER BY max(m.date) DESC
`

const listMessagesQuery = `
	SELECT m.text, m.date, m.is_from_me, h.id
	FROM message m
	JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
	JOIN chat c ON cmj.chat_id = c.ROWID
	LEFT JOIN handle h ON m.handle_id = h.ROWID
	WHERE c.chat_identifier = ?
	ORDER BY m.date ASC, m.ROWID ASC
`

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = &SQLiteStore{}

// SQLiteReadOnlyDSNForFile builds a DSN that never writes to path.
func SQLiteReadOnlyDSNForFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite chat store: empty path")
	}
	return fmt.Sprintf("file:%s?mode=ro&_query_only=true&_busy_timeout=5000", path), nil
}

// OpenSQLiteStore opens an existing chat database read-only and checks its
// schema.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "sqlite chat store: stat database")
	}
	dsn, err := SQLiteReadOnlyDSNForFile(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite chat store: open")
	}
	s := &SQLiteStore{db: db}
	if err := s.verify(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("opened chat database")
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) verify(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "sqlite chat store: ping")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(RequiredTables)), ",")
	args := make([]any, 0, len(RequiredTables))
	for _, t := range RequiredTables {
		args = append(args, t)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (`+placeholders+`)`, args...)
	if err != nil {
		return errors.Wrap(err, "sqlite chat store: read schema")
	}
	defer func() { _ = rows.Close() }()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Wrap(err, "sqlite chat store: scan schema")
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "sqlite chat store: iterate schema")
	}
	for _, t := range RequiredTables {
		if !found[t] {
			return errors.Wrapf(ErrMissingTable, "table %q", t)
		}
	}
	return nil
}

func (s *SQLiteStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite chat store: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, listConversationsQuery)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite chat store: list conversations")
	}
	defer func() { _ = rows.Close() }()

	conversations := make([]Conversation, 0, 64)
	for rows.Next() {
		var (
			lastDate sql.NullInt64
			name     string
		)
		if err := rows.Scan(&lastDate, &name); err != nil {
			return nil, errors.Wrap(err, "sqlite chat store: scan conversation")
		}
		lastActive, err := Time(lastDate.Int64)
		if err != nil {
			return nil, errors.Wrapf(err, "sqlite chat store: conversation %q", name)
		}
		conversations = append(conversations, Conversation{Name: name, LastActive: lastActive})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite chat store: iterate conversations")
	}
	return conversations, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite chat store: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, listMessagesQuery, conversationID)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite chat store: list messages of %q", conversationID)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]Message, 0, 256)
	for rows.Next() {
		var (
			text     sql.NullString
			date     sql.NullInt64
			isFromMe sql.NullInt64
			handle   sql.NullString
		)
		if err := rows.Scan(&text, &date, &isFromMe, &handle); err != nil {
			return nil, errors.Wrap(err, "sqlite chat store: scan message")
		}
		t, err := Time(date.Int64)
		if err != nil {
			return nil, errors.Wrapf(err, "sqlite chat store: message in %q", conversationID)
		}
		sender := Self()
		if isFromMe.Int64 == 0 {
			sender = Other(handle.String)
		}
		messages = append(messages, Message{Text: text.String, Sender: sender, Date: t})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite chat store: iterate messages")
	}
	log.Debug().Str("conversation", conversationID).Int("count", len(messages)).Msg("loaded messages")
	return messages, nil
}
