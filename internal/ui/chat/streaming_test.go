// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

func convWithContent(content string) model.Conversation {
	return model.Conversation{
		Chat:     model.Chat{ID: "c1"},
		Messages: []model.Message{{ID: "m1", Content: content}},
	}
}

func TestCoalescer_KeepsOnlyNewest(t *testing.T) {
	c := NewCoalescer()
	c.Offer(convWithContent("first"))
	c.Offer(convWithContent("second"))

	time.Sleep(frameInterval + 5*time.Millisecond)
	conv, ok := c.Take()
	if !ok {
		t.Fatal("Take returned nothing after frame interval")
	}
	if conv.Messages[0].Content != "second" {
		t.Errorf("content = %q, want second", conv.Messages[0].Content)
	}

	if _, ok := c.Take(); ok {
		t.Error("second Take should be empty")
	}
}

func TestCoalescer_RespectsFrameBudget(t *testing.T) {
	c := NewCoalescer()
	c.Offer(convWithContent("x"))

	// Right after creation the frame budget is not yet spent.
	if _, ok := c.Take(); ok {
		t.Error("Take inside the frame interval should return nothing")
	}
	if !c.Pending() {
		t.Error("snapshot should still be pending")
	}
}

func TestCoalescer_ForceIgnoresBudget(t *testing.T) {
	c := NewCoalescer()
	c.Offer(convWithContent("final"))

	conv, ok := c.Force()
	if !ok {
		t.Fatal("Force returned nothing")
	}
	if conv.Messages[0].Content != "final" {
		t.Errorf("content = %q, want final", conv.Messages[0].Content)
	}
}

func TestCoalescer_Reset(t *testing.T) {
	c := NewCoalescer()
	c.Offer(convWithContent("x"))
	c.Reset()
	if c.Pending() {
		t.Error("Reset left a pending snapshot")
	}
}
