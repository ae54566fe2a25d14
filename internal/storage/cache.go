// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotCached = errors.New("chat not in cache")
	ErrClosed    = errors.New("cache is closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	chat_id    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	data       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_chat
	ON messages(chat_id, created_at);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the local sqlite chat cache.
type Cache struct {
	db *sql.DB

	// maxPerChat caps stored history per chat (0 = unlimited).
	maxPerChat int
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, maxPerChat int) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Cache{db: db, maxPerChat: maxPerChat}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// CHAT LIST
// =============================================================================

// SaveChats replaces the cached chat list, preserving display order.
func (c *Cache) SaveChats(chats []model.Chat) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chats"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO chats (id, position, data) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, chat := range chats {
		data, err := json.Marshal(chat)
		if err != nil {
			return fmt.Errorf("failed to encode chat %s: %w", chat.ID, err)
		}
		if _, err := stmt.Exec(chat.ID, i, string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadChats returns the cached chat list in saved order. An empty cache
// yields an empty slice, not an error.
func (c *Cache) LoadChats() ([]model.Chat, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.Query("SELECT data FROM chats ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var chat model.Chat
		if err := json.Unmarshal([]byte(data), &chat); err != nil {
			// Stale row from an older build; skip it.
			log.Printf("storage: dropping undecodable chat row: %v", err)
			continue
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// SaveConversation write-throughs a conversation snapshot. Placeholder
// messages still in flight are skipped: only server-confirmed history is
// worth replaying on next open.
func (c *Cache) SaveConversation(conv model.Conversation) error {
	if c.db == nil {
		return ErrClosed
	}
	if conv.Chat.ID == "" {
		return errors.New("conversation has no chat ID")
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	chatData, err := json.Marshal(conv.Chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat %s: %w", conv.Chat.ID, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO chats (id, position, data) VALUES (?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, conv.Chat.ID, string(chatData)); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE chat_id = ?", conv.Chat.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO messages (id, chat_id, created_at, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range conv.Messages {
		if model.IsTempID(msg.ID) || msg.Streaming {
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
		if _, err := stmt.Exec(msg.ID, conv.Chat.ID, msg.CreatedAt.UnixMilli(), string(data)); err != nil {
			return err
		}
	}

	if c.maxPerChat > 0 {
		if _, err := tx.Exec(`
			DELETE FROM messages WHERE chat_id = ? AND id NOT IN (
				SELECT id FROM messages WHERE chat_id = ?
				ORDER BY created_at DESC LIMIT ?
			)
		`, conv.Chat.ID, conv.Chat.ID, c.maxPerChat); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadConversation returns the cached conversation for a chat, oldest
// message first. Returns ErrNotCached when the chat has never been saved.
func (c *Cache) LoadConversation(chatID string) (model.Conversation, error) {
	if c.db == nil {
		return model.Conversation{}, ErrClosed
	}

	var chatData string
	err := c.db.QueryRow("SELECT data FROM chats WHERE id = ?", chatID).Scan(&chatData)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, ErrNotCached
	}
	if err != nil {
		return model.Conversation{}, err
	}

	var conv model.Conversation
	if err := json.Unmarshal([]byte(chatData), &conv.Chat); err != nil {
		return model.Conversation{}, fmt.Errorf("failed to decode cached chat: %w", err)
	}

	rows, err := c.db.Query(
		"SELECT data FROM messages WHERE chat_id = ? ORDER BY created_at", chatID)
	if err != nil {
		return model.Conversation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return model.Conversation{}, err
		}
		var msg model.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			log.Printf("storage: dropping undecodable message row: %v", err)
			continue
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, rows.Err()
}

// DeleteChat removes a chat and its history from the cache.
func (c *Cache) DeleteChat(chatID string) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chats WHERE id = ?", chatID); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear wipes the whole cache (sign-out path: cached chats belong to the
// account, not the machine).
func (c *Cache) Clear() error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chats"); err != nil {
		return err
	}
	return tx.Commit()
}

// MessageCount reports cached history size for a chat.
func (c *Cache) MessageCount(chatID string) (int, error) {
	if c.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM messages WHERE chat_id = ?", chatID).Scan(&n)
	return n, err
}
