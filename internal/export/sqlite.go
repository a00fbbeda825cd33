package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT,
	message_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	id              TEXT NOT NULL,
	message_index   INTEGER NOT NULL,
	parent_id       TEXT,
	role            TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	content         TEXT NOT NULL,
	PRIMARY KEY (conversation_id, id)
);

CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

// writeSQLite materializes the stream into a SQLite database at path. The
// whole export is one transaction: the database appears complete or not at
// all.
func writeSQLite(ctx context.Context, path string, src Source) (Summary, error) {
	var sum Summary

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return sum, sifterrors.New(sifterrors.ErrCodeFileRead,
			fmt.Sprintf("cannot open database %s", path), err)
	}
	defer db.Close()

	// Single writer; modernc.org/sqlite wants pragmas as statements.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return sum, fmt.Errorf("cannot set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return sum, fmt.Errorf("cannot create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sum, fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertConv, err := tx.PrepareContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at, message_count)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return sum, fmt.Errorf("cannot prepare conversation insert: %w", err)
	}
	defer insertConv.Close()

	insertMsg, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (conversation_id, id, message_index, parent_id, role, timestamp, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return sum, fmt.Errorf("cannot prepare message insert: %w", err)
	}
	defer insertMsg.Close()

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		conv := src.Conversation()

		var updated any
		if conv.UpdatedAt != nil {
			updated = conv.UpdatedAt.Format(time.RFC3339)
		}
		if _, err := insertConv.ExecContext(ctx,
			conv.ID, conv.Title, conv.CreatedAt.Format(time.RFC3339),
			updated, conv.MessageCount()); err != nil {
			return sum, fmt.Errorf("cannot insert conversation %s: %w", conv.ID, err)
		}

		for i := range conv.Messages {
			msg := &conv.Messages[i]
			var parent any
			if msg.ParentID != nil {
				parent = *msg.ParentID
			}
			if _, err := insertMsg.ExecContext(ctx,
				conv.ID, msg.ID, i, parent, string(msg.Role),
				msg.Timestamp.Format(time.RFC3339), msg.Content); err != nil {
				return sum, fmt.Errorf("cannot insert message %s: %w", msg.ID, err)
			}
		}

		sum.Conversations++
		sum.Messages += conv.MessageCount()
	}
	if err := src.Err(); err != nil {
		return sum, err
	}

	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("cannot commit export: %w", err)
	}
	return sum, nil
}
