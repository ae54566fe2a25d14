// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

func openTestCache(t *testing.T, maxPerChat int) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), maxPerChat)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func cachedMsg(id, chatID string, offset time.Duration) model.Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return model.Message{
		ID:        id,
		ChatID:    chatID,
		Content:   "msg " + id,
		Sender:    model.Participant{ID: "u1", Name: "Alice"},
		CreatedAt: base.Add(offset),
		Status:    model.StatusSent,
	}
}

func TestCache_ChatListRoundtrip(t *testing.T) {
	c := openTestCache(t, 0)

	chats := []model.Chat{
		{ID: "c1", Participants: []model.Participant{{ID: "u1", Name: "Alice"}}},
		{ID: "c2", IsGroup: true, GroupName: "team"},
	}
	if err := c.SaveChats(chats); err != nil {
		t.Fatalf("SaveChats: %v", err)
	}

	loaded, err := c.LoadChats()
	if err != nil {
		t.Fatalf("LoadChats: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "c1" || loaded[1].ID != "c2" {
		t.Errorf("LoadChats order/content wrong: %+v", loaded)
	}
	if !loaded[1].IsGroup || loaded[1].GroupName != "team" {
		t.Errorf("group fields lost: %+v", loaded[1])
	}

	// A second save replaces, not appends.
	if err := c.SaveChats(chats[:1]); err != nil {
		t.Fatalf("SaveChats: %v", err)
	}
	loaded, _ = c.LoadChats()
	if len(loaded) != 1 {
		t.Errorf("SaveChats must replace, got %d chats", len(loaded))
	}
}

func TestCache_ConversationRoundtrip(t *testing.T) {
	c := openTestCache(t, 0)

	conv := model.Conversation{
		Chat: model.Chat{ID: "c1", Participants: []model.Participant{{ID: "u1"}}},
		Messages: []model.Message{
			cachedMsg("m1", "c1", 0),
			cachedMsg("m2", "c1", time.Minute),
		},
	}
	if err := c.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	loaded, err := c.LoadConversation("c1")
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if loaded.Chat.ID != "c1" || len(loaded.Messages) != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.Messages[0].ID != "m1" || loaded.Messages[1].ID != "m2" {
		t.Errorf("order = %s, %s; want m1, m2", loaded.Messages[0].ID, loaded.Messages[1].ID)
	}
	if loaded.Messages[0].Content != "msg m1" {
		t.Errorf("content lost: %q", loaded.Messages[0].Content)
	}
}

func TestCache_SkipsInFlightMessages(t *testing.T) {
	c := openTestCache(t, 0)

	pending := cachedMsg(model.NewTempID(), "c1", time.Minute)
	pending.Status = model.StatusSending
	streaming := cachedMsg("ai1", "c1", 2*time.Minute)
	streaming.Streaming = true

	conv := model.Conversation{
		Chat:     model.Chat{ID: "c1"},
		Messages: []model.Message{cachedMsg("m1", "c1", 0), pending, streaming},
	}
	if err := c.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	loaded, err := c.LoadConversation("c1")
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].ID != "m1" {
		t.Errorf("in-flight messages must not be cached, got %+v", loaded.Messages)
	}
}

func TestCache_NotCached(t *testing.T) {
	c := openTestCache(t, 0)
	if _, err := c.LoadConversation("nope"); !errors.Is(err, ErrNotCached) {
		t.Errorf("err = %v, want ErrNotCached", err)
	}
}

func TestCache_PrunesPerChat(t *testing.T) {
	c := openTestCache(t, 3)

	conv := model.Conversation{Chat: model.Chat{ID: "c1"}}
	for i := 0; i < 10; i++ {
		conv.Messages = append(conv.Messages,
			cachedMsg("m"+string(rune('0'+i)), "c1", time.Duration(i)*time.Minute))
	}
	if err := c.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	n, err := c.MessageCount("c1")
	if err != nil {
		t.Fatalf("MessageCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("cached = %d messages, want 3", n)
	}

	// The newest messages survive pruning.
	loaded, _ := c.LoadConversation("c1")
	if loaded.Messages[len(loaded.Messages)-1].ID != "m9" {
		t.Errorf("newest message lost: %+v", loaded.Messages)
	}
}

func TestCache_DeleteChat(t *testing.T) {
	c := openTestCache(t, 0)

	conv := model.Conversation{
		Chat:     model.Chat{ID: "c1"},
		Messages: []model.Message{cachedMsg("m1", "c1", 0)},
	}
	c.SaveConversation(conv)

	if err := c.DeleteChat("c1"); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if _, err := c.LoadConversation("c1"); !errors.Is(err, ErrNotCached) {
		t.Errorf("chat should be gone, err = %v", err)
	}
}

func TestCache_Clear(t *testing.T) {
	c := openTestCache(t, 0)

	c.SaveChats([]model.Chat{{ID: "c1"}, {ID: "c2"}})
	c.SaveConversation(model.Conversation{
		Chat:     model.Chat{ID: "c1"},
		Messages: []model.Message{cachedMsg("m1", "c1", 0)},
	})

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	chats, _ := c.LoadChats()
	if len(chats) != 0 {
		t.Errorf("Clear left %d chats behind", len(chats))
	}
}

func TestCache_ClosedErrors(t *testing.T) {
	c := openTestCache(t, 0)
	c.Close()

	if _, err := c.LoadChats(); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadChats after close: err = %v, want ErrClosed", err)
	}
	if err := c.SaveChats(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SaveChats after close: err = %v, want ErrClosed", err)
	}
}
