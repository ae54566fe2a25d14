// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
)

func testChats() []model.Chat {
	now := time.Now()
	return []model.Chat{
		{
			ID: "c1",
			Participants: []model.Participant{
				{ID: "me", Name: "Me"},
				{ID: "u2", Name: "Bob"},
			},
			LastMessage: &model.Message{
				Content:   "see you tomorrow",
				Sender:    model.Participant{ID: "u2", Name: "Bob"},
				CreatedAt: now.Add(-2 * time.Minute),
			},
		},
		{
			ID: "c2",
			Participants: []model.Participant{
				{ID: "me", Name: "Me"},
				{ID: "ai1", Name: "Assistant", IsAI: true},
			},
			LastMessage: &model.Message{
				Content:   "Here is the summary you asked for.",
				Sender:    model.Participant{ID: "ai1", Name: "Assistant", IsAI: true},
				CreatedAt: now.Add(-3 * time.Hour),
			},
		},
		{
			ID:        "c3",
			IsGroup:   true,
			GroupName: "Team",
			Participants: []model.Participant{
				{ID: "me"}, {ID: "u2"}, {ID: "u3"},
			},
		},
	}
}

func newTestList(online func(string) bool) *ChatList {
	l := NewChatList(styles.NewTheme(), "me", online)
	l.SetSize(80, 24)
	return l
}

func TestChatList_Navigation(t *testing.T) {
	l := newTestList(nil)
	l.SetChats(testChats())

	if got := l.Selected().ID; got != "c1" {
		t.Fatalf("initial selection = %q, want c1", got)
	}

	l.CursorDown()
	l.CursorDown()
	if got := l.Selected().ID; got != "c3" {
		t.Errorf("after down x2 = %q, want c3", got)
	}

	// Clamps at the ends.
	l.CursorDown()
	if got := l.Selected().ID; got != "c3" {
		t.Errorf("clamp bottom = %q, want c3", got)
	}
	l.CursorTop()
	if got := l.Selected().ID; got != "c1" {
		t.Errorf("top = %q, want c1", got)
	}
	l.CursorUp()
	if got := l.Selected().ID; got != "c1" {
		t.Errorf("clamp top = %q, want c1", got)
	}
}

func TestChatList_SetChatsKeepsSelection(t *testing.T) {
	l := newTestList(nil)
	chats := testChats()
	l.SetChats(chats)
	l.CursorDown() // c2

	// Reorder so c2 moves to the front, as happens when it gets a new message.
	reordered := []model.Chat{chats[1], chats[0], chats[2]}
	l.SetChats(reordered)

	if got := l.Selected().ID; got != "c2" {
		t.Errorf("selection after reorder = %q, want c2", got)
	}
}

func TestChatList_ViewShowsRows(t *testing.T) {
	l := newTestList(func(id string) bool { return id == "u2" })
	l.SetChats(testChats())

	out := l.View()
	for _, want := range []string{"Bob", "Assistant", "Team", "see you tomorrow"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	// AI last message carries the sender name prefix.
	if !strings.Contains(out, "Assistant: ") {
		t.Errorf("view missing AI sender prefix:\n%s", out)
	}
}

func TestChatList_EmptyState(t *testing.T) {
	l := newTestList(nil)
	if l.Selected() != nil {
		t.Error("Selected on empty list should be nil")
	}
	if !strings.Contains(l.View(), "No conversations yet") {
		t.Error("empty view missing placeholder")
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"now", now.Add(-10 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m"},
		{"hours", now.Add(-3 * time.Hour), "3h"},
		{"days", now.Add(-49 * time.Hour), "2d"},
		{"zero", time.Time{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := relativeTime(tc.t); got != tc.want {
				t.Errorf("relativeTime = %q, want %q", got, tc.want)
			}
		})
	}
}
