// Package chatdbtest builds throwaway chat databases for tests.
package chatdbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
)

// Schema is the subset of the Messages schema the viewer reads.
const Schema = `
CREATE TABLE handle (
  ROWID INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE,
  id TEXT NOT NULL
);
CREATE TABLE chat (
  ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
  chat_identifier TEXT
);
CREATE TABLE message (
  ROWID INTEGER PRIMARY KEY AUTOINCREMENT,
  text TEXT,
  date INTEGER,
  handle_id INTEGER DEFAULT 0,
  is_from_me INTEGER DEFAULT 0
);
CREATE TABLE chat_message_join (
  chat_id INTEGER REFERENCES chat (ROWID) ON DELETE CASCADE,
  message_id INTEGER REFERENCES message (ROWID) ON DELETE CASCADE,
  PRIMARY KEY (chat_id, message_id)
);
`

type Message struct {
	Text   string
	Date   time.Time
	FromMe bool
	// Handle is the counterpart handle id. Empty stores handle_id 0.
	Handle string
	// DanglingHandle points handle_id at a row that does not exist.
	DanglingHandle bool
	// NullHandle stores NULL in handle_id.
	NullHandle bool
	NullText   bool
}

type Fixture struct {
	Path    string
	db      *sql.DB
	chats   map[string]int64
	handles map[string]int64
}

// New creates an empty database with the Messages schema under t.TempDir().
func New(t testing.TB) *Fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return &Fixture{
		Path:    path,
		db:      db,
		chats:   map[string]int64{},
		handles: map[string]int64{},
	}
}

func (f *Fixture) chatID(t testing.TB, name string) int64 {
	if id, ok := f.chats[name]; ok {
		return id
	}
	res, err := f.db.Exec(`INSERT INTO chat (chat_identifier) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	f.chats[name] = id
	return id
}

func (f *Fixture) handleID(t testing.TB, handle string) int64 {
	if id, ok := f.handles[handle]; ok {
		return id
	}
	res, err := f.db.Exec(`INSERT INTO handle (id) VALUES (?)`, handle)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	f.handles[handle] = id
	return id
}

// AddChat registers a conversation without messages.
func (f *Fixture) AddChat(t testing.TB, name string) {
	t.Helper()
	f.chatID(t, name)
}

// AddMessage inserts msg into the conversation named chat, creating the chat
// and handle rows on first use.
func (f *Fixture) AddMessage(t testing.TB, chat string, msg Message) {
	t.Helper()
	chatID := f.chatID(t, chat)

	var handleID any = int64(0)
	switch {
	case msg.NullHandle:
		handleID = nil
	case msg.DanglingHandle:
		handleID = int64(1 << 40)
	case msg.Handle != "":
		handleID = f.handleID(t, msg.Handle)
	}
	var text any = msg.Text
	if msg.NullText {
		text = nil
	}
	fromMe := 0
	if msg.FromMe {
		fromMe = 1
	}

	res, err := f.db.Exec(
		`INSERT INTO message (text, date, handle_id, is_from_me) VALUES (?, ?, ?, ?)`,
		text, chatdb.RawTime(msg.Date), handleID, fromMe,
	)
	require.NoError(t, err)
	msgID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = f.db.Exec(`INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)`, chatID, msgID)
	require.NoError(t, err)
}

// Exec runs raw SQL against the fixture, for tests that need odd rows.
func (f *Fixture) Exec(t testing.TB, query string, args ...any) {
	t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(t, err)
}

// Open opens the fixture through the read-only store.
func (f *Fixture) Open(t testing.TB) *chatdb.SQLiteStore {
	t.Helper()
	s, err := chatdb.OpenSQLiteStore(context.Background(), f.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TwoChats builds the alice/bob scenario: alice has three messages over the
// last three days, bob one message yesterday.
func TwoChats(t testing.TB, now time.Time) *Fixture {
	t.Helper()
	f := New(t)
	day := 24 * time.Hour
	f.AddMessage(t, "alice", Message{Text: "hi, it's alice", Date: now.Add(-3 * day), Handle: "alice"})
	f.AddMessage(t, "alice", Message{Text: "hey alice", Date: now.Add(-2 * day), FromMe: true})
	f.AddMessage(t, "alice", Message{Text: "see you tomorrow", Date: now.Add(-1 * time.Hour), Handle: "alice"})
	f.AddMessage(t, "bob", Message{Text: "lunch?", Date: now.Add(-1 * day), Handle: "bob"})
	return f
}
