// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pulsechat-tui/internal/api"
	"github.com/jeranaias/pulsechat-tui/internal/chatstate"
	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
)

func newTestModel(t *testing.T, aiChat bool) (*Model, *chatstate.Engine, *chatstate.SendPipeline) {
	t.Helper()

	engine := chatstate.NewEngine(nil)
	pipeline := chatstate.NewSendPipeline(engine)
	user := model.Participant{ID: "me", Name: "Me"}

	conv := model.Conversation{
		Chat: model.Chat{
			ID:       "c1",
			IsAIChat: aiChat,
			Participants: []model.Participant{
				user,
				{ID: "peer", Name: "Peer", IsAI: aiChat},
			},
		},
	}

	m := New(styles.NewTheme(), engine, pipeline, api.NewClient(""), user, "c1", 80)
	m.SetSize(100, 30)
	m, _ = m.Update(ConversationLoadedMsg{Conversation: conv})
	return m, engine, pipeline
}

func TestSubmit_InsertsOptimisticPlaceholder(t *testing.T) {
	m, engine, pipeline := newTestModel(t, false)

	m.input.SetValue("hello there")
	m, cmd := m.submit()
	if cmd == nil {
		t.Fatal("submit returned no send command")
	}
	if pipeline.PendingCount() != 1 {
		t.Fatalf("pending = %d, want 1", pipeline.PendingCount())
	}
	if m.input.Value() != "" {
		t.Error("input was not cleared")
	}

	snap, ok := engine.Snapshot()
	if !ok || len(snap.Messages) != 1 {
		t.Fatalf("snapshot messages = %d, want 1", len(snap.Messages))
	}
	got := snap.Messages[0]
	if got.Status != model.StatusSending {
		t.Errorf("status = %q, want sending", got.Status)
	}
	if !model.IsTempID(got.ID) {
		t.Errorf("ID %q is not a temp ID", got.ID)
	}
}

func TestSubmit_EmptyInputIsNoop(t *testing.T) {
	m, _, pipeline := newTestModel(t, false)
	m.input.SetValue("   ")
	_, cmd := m.submit()
	if cmd != nil {
		t.Error("blank submit produced a command")
	}
	if pipeline.PendingCount() != 0 {
		t.Error("blank submit registered a pending send")
	}
}

func TestSendFailedThenRetry(t *testing.T) {
	m, engine, _ := newTestModel(t, false)

	m.input.SetValue("flaky")
	m, _ = m.submit()
	snap, _ := engine.Snapshot()
	tempID := snap.Messages[0].ID

	m, _ = m.Update(SendFailedMsg{TempID: tempID, Err: errors.New("boom")})
	snap, _ = engine.Snapshot()
	if snap.Messages[0].Status != model.StatusFailed {
		t.Fatalf("status after failure = %q, want failed", snap.Messages[0].Status)
	}

	m, cmd := m.retry()
	if cmd == nil {
		t.Fatal("retry returned no command")
	}
	snap, _ = engine.Snapshot()
	if snap.Messages[0].Status != model.StatusSending {
		t.Errorf("status after retry = %q, want sending", snap.Messages[0].Status)
	}
	if snap.Messages[0].ID != tempID {
		t.Errorf("retry changed the temp ID: %q -> %q", tempID, snap.Messages[0].ID)
	}
}

func TestSendConfirmed_ReplacesPlaceholder(t *testing.T) {
	m, engine, _ := newTestModel(t, false)

	m.input.SetValue("hi")
	m, _ = m.submit()
	snap, _ := engine.Snapshot()
	tempID := snap.Messages[0].ID

	final := model.Message{
		ID:        "srv-1",
		ChatID:    "c1",
		Content:   "hi",
		Sender:    model.Participant{ID: "me"},
		CreatedAt: time.Now(),
	}
	m, _ = m.Update(SendConfirmedMsg{TempID: tempID, Final: final})

	snap, _ = engine.Snapshot()
	if len(snap.Messages) != 1 {
		t.Fatalf("messages = %d, want 1 (replace, not append)", len(snap.Messages))
	}
	if snap.Messages[0].ID != "srv-1" {
		t.Errorf("ID = %q, want srv-1", snap.Messages[0].ID)
	}
}

func TestSendConfirmed_AIChatStartsTyping(t *testing.T) {
	m, engine, _ := newTestModel(t, true)

	m.input.SetValue("explain this")
	m, _ = m.submit()
	snap, _ := engine.Snapshot()
	tempID := snap.Messages[0].ID

	m, cmd := m.Update(SendConfirmedMsg{
		TempID:      tempID,
		Final:       model.Message{ID: "srv-1", ChatID: "c1", Sender: model.Participant{ID: "me"}},
		AIStreaming: true,
	})
	if cmd == nil {
		t.Error("AI confirmation should start the typing animation")
	}
	if !m.typing.IsActive() {
		t.Error("typing indicator not active after AI confirmation")
	}
}

func TestHandleSnapshot_StreamingGoesThroughCoalescer(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	streamingConv := model.Conversation{
		Chat: m.conv.Chat,
		Messages: []model.Message{
			{ID: "srv-1", Content: "partial rep", Streaming: true,
				Sender: model.Participant{ID: "peer", IsAI: true}},
		},
	}
	m, cmd := m.Update(SnapshotMsg{Conversation: streamingConv})
	if !m.Streaming() {
		t.Fatal("model not in streaming state")
	}
	if cmd == nil {
		t.Error("first streaming snapshot should start the frame tick")
	}

	// Completion snapshot applies immediately and ends streaming.
	finalConv := streamingConv
	finalConv.Messages = []model.Message{
		{ID: "srv-1", Content: "full reply", Status: model.StatusSent,
			Sender: model.Participant{ID: "peer", IsAI: true}},
	}
	m, _ = m.Update(SnapshotMsg{Conversation: finalConv})
	if m.Streaming() {
		t.Error("streaming flag still set after completion")
	}
	if m.conv.Messages[0].Content != "full reply" {
		t.Errorf("content = %q, want full reply", m.conv.Messages[0].Content)
	}
}

func TestBackKeyClearsReplyFirst(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	m.replyTo = &model.Message{ID: "m1", Sender: model.Participant{Name: "Peer"}}

	esc := tea.KeyMsg{Type: tea.KeyEsc}
	m, cmd := m.Update(esc)
	if m.replyTo != nil {
		t.Fatal("Esc did not clear the reply target")
	}
	if cmd != nil {
		t.Error("Esc with a reply target should not leave the chat")
	}

	_, cmd = m.Update(esc)
	if cmd == nil {
		t.Fatal("second Esc should produce the back command")
	}
	if _, ok := cmd().(BackMsg); !ok {
		t.Error("back command did not produce BackMsg")
	}
}

func TestView_ShowsFailedMarker(t *testing.T) {
	m, engine, _ := newTestModel(t, false)

	m.input.SetValue("doomed")
	m, _ = m.submit()
	snap, _ := engine.Snapshot()
	m, _ = m.Update(SendFailedMsg{TempID: snap.Messages[0].ID, Err: errors.New("boom")})

	snap, _ = engine.Snapshot()
	m.applySnapshot(snap)
	if !strings.Contains(m.viewport.View(), "failed") {
		t.Error("transcript does not show the failed marker")
	}
}
