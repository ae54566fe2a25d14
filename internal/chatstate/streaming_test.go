// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import (
	"testing"
	"time"
)

func TestAccumulator_FoldAndComplete(t *testing.T) {
	e := NewEngine(nil)
	acc := NewAccumulator(e)

	placeholder := testMsg("ai1", "c1", 0)
	placeholder.Content = ""
	openChat(t, e, "c1", placeholder)

	acc.Chunk("c1", "Hel")
	acc.Chunk("c1", "lo")

	snap, _ := e.Snapshot()
	last := snap.LastMessage()
	if last.Content != "Hello" {
		t.Errorf("folded content = %q, want %q", last.Content, "Hello")
	}
	if !last.Streaming {
		t.Error("message should be streaming during fold")
	}

	final := testMsg("ai1", "c1", time.Second)
	final.Content = "Hello world"
	acc.Done("c1", final)

	snap, _ = e.Snapshot()
	last = snap.LastMessage()
	if last.Content != "Hello world" {
		t.Errorf("final content = %q, want %q", last.Content, "Hello world")
	}
	if last.Streaming {
		t.Error("streaming flag should clear on completion")
	}
	if acc.Pending() != "" {
		t.Errorf("buffer should reset after done, got %q", acc.Pending())
	}
}

func TestAccumulator_EmptySequenceDropsChunk(t *testing.T) {
	e := NewEngine(nil)
	acc := NewAccumulator(e)
	openChat(t, e, "c1")

	acc.Chunk("c1", "orphan")

	snap, _ := e.Snapshot()
	if len(snap.Messages) != 0 {
		t.Errorf("empty sequence should stay empty, got %v", ids(snap))
	}
	if e.DroppedChunks() != 1 {
		t.Errorf("DroppedChunks = %d, want 1", e.DroppedChunks())
	}
}

func TestAccumulator_OtherChatChunkIgnored(t *testing.T) {
	e := NewEngine(nil)
	acc := NewAccumulator(e)
	openChat(t, e, "c1", testMsg("ai1", "c1", 0))

	acc.Chunk("c1", "Hel")
	acc.Chunk("c2", "NOPE")
	acc.Chunk("c1", "lo")

	snap, _ := e.Snapshot()
	if got := snap.LastMessage().Content; got != "Hello" {
		t.Errorf("content = %q, want %q (chunk for c2 must not touch c1's buffer)", got, "Hello")
	}
}

func TestAccumulator_ResetOnChatSwitch(t *testing.T) {
	e := NewEngine(nil)
	acc := NewAccumulator(e)
	openChat(t, e, "c1", testMsg("ai1", "c1", 0))
	acc.Chunk("c1", "partial")

	acc.Reset()
	openChat(t, e, "c2", testMsg("ai2", "c2", 0))
	acc.Chunk("c2", "fresh")

	snap, _ := e.Snapshot()
	if got := snap.LastMessage().Content; got != "fresh" {
		t.Errorf("content = %q, want %q (stale buffer leaked across chats)", got, "fresh")
	}
}

func TestAccumulator_DoneWithoutChunks(t *testing.T) {
	// A completion can arrive without any preceding chunk (very short reply
	// entirely contained in the final message).
	e := NewEngine(nil)
	acc := NewAccumulator(e)
	openChat(t, e, "c1", testMsg("ai1", "c1", 0))

	final := testMsg("ai1", "c1", time.Second)
	final.Content = "short"
	acc.Done("c1", final)

	snap, _ := e.Snapshot()
	assertIDs(t, snap, "ai1")
	if snap.Messages[0].Content != "short" {
		t.Errorf("content = %q, want %q", snap.Messages[0].Content, "short")
	}
}
