// Package analytics persists chat exchanges and user feedback to SQLite.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/chat"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS analytics_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	conversation_id TEXT,
	message_id TEXT,
	language TEXT,
	question TEXT,
	response TEXT,
	k INTEGER,
	use_mmr INTEGER,
	fetch_k INTEGER,
	mmr_lambda REAL,
	sources_json TEXT
);
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	conversation_id TEXT,
	message_id TEXT,
	rating TEXT NOT NULL,
	comment TEXT
);
`

// Store is a SQLite-backed event log. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create analytics dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init analytics schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordChat inserts one completed exchange.
func (s *Store) RecordChat(event chat.ChatEvent) error {
	sources, err := json.Marshal(event.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO analytics_events (
			created_at, conversation_id, message_id, language, question, response,
			k, use_mmr, fetch_k, mmr_lambda, sources_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		utcNow(), event.ConversationID, event.MessageID, event.Language,
		event.Question, event.Response, event.K, boolToInt(event.UseMMR),
		event.FetchK, event.MMRLambda, string(sources))
	if err != nil {
		return fmt.Errorf("insert chat event: %w", err)
	}
	return nil
}

// RecordFeedback inserts one feedback entry.
func (s *Store) RecordFeedback(fb models.Feedback) error {
	_, err := s.db.Exec(`
		INSERT INTO feedback (created_at, conversation_id, message_id, rating, comment)
		VALUES (?, ?, ?, ?, ?)`,
		utcNow(), fb.ConversationID, fb.MessageID, fb.Rating, fb.Comment)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
