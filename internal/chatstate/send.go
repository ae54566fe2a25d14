// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import (
	"errors"
	"sync"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoChat indicates a send with no target chat.
	ErrNoChat = errors.New("send: no chat selected")

	// ErrNoSender indicates a send with no signed-in user.
	ErrNoSender = errors.New("send: no signed-in user")

	// ErrUnknownSend indicates a Confirm/Fail/Retry for a temp ID the
	// pipeline is not tracking.
	ErrUnknownSend = errors.New("send: unknown temp id")
)

// =============================================================================
// SEND PIPELINE
// =============================================================================

// SendPipeline drives the per-attempt state machine
//
//	Pending(temp) -> Confirmed(final) | Failed
//
// Begin inserts the optimistic placeholder and registers the attempt; the
// caller performs the actual REST call and reports back via Confirm or
// Fail. A failed attempt stays visible with StatusFailed until the user
// retries (Retry re-enters Pending reusing the same temp ID, so a duplicate
// placeholder can never appear) or the chat is closed.
//
// AI replies included in a send response are deliberately NOT inserted
// here: they arrive via the streaming socket path, and inserting both would
// race the two sources into a duplicate.
type SendPipeline struct {
	mu      sync.Mutex
	engine  *Engine
	pending map[string]model.Message // temp ID -> optimistic entry
}

// NewSendPipeline creates a pipeline bound to the given engine.
func NewSendPipeline(engine *Engine) *SendPipeline {
	return &SendPipeline{
		engine:  engine,
		pending: make(map[string]model.Message),
	}
}

// Begin validates the send, inserts the optimistic entry with a fresh temp
// ID and StatusSending, and returns it. The returned message's ID is the
// temp ID to resolve on confirmation.
func (p *SendPipeline) Begin(chatID, content, image string, replyTo *model.Message, sender model.Participant) (model.Message, error) {
	if chatID == "" {
		return model.Message{}, ErrNoChat
	}
	if sender.ID == "" {
		return model.Message{}, ErrNoSender
	}

	msg := model.NewOptimisticMessage(chatID, content, image, sender, replyTo)

	p.mu.Lock()
	p.pending[msg.ID] = msg
	p.mu.Unlock()

	p.engine.Upsert(chatID, msg, msg.ID)
	return msg, nil
}

// Confirm resolves a pending attempt with the server-confirmed message:
// the placeholder is replaced and the attempt forgotten.
func (p *SendPipeline) Confirm(tempID string, final model.Message) error {
	p.mu.Lock()
	_, ok := p.pending[tempID]
	delete(p.pending, tempID)
	p.mu.Unlock()
	if !ok {
		return ErrUnknownSend
	}

	if final.Status == "" {
		final.Status = model.StatusSent
	}
	p.engine.Upsert(final.ChatID, final, tempID)
	p.engine.UpdateLastMessage(final.ChatID, final)
	return nil
}

// Fail transitions a pending attempt to StatusFailed. The entry stays in
// the timeline and in the pending table so Retry can pick it up.
func (p *SendPipeline) Fail(tempID string) error {
	p.mu.Lock()
	msg, ok := p.pending[tempID]
	if ok {
		msg.Status = model.StatusFailed
		msg.UpdatedAt = time.Now()
		p.pending[tempID] = msg
	}
	p.mu.Unlock()
	if !ok {
		return ErrUnknownSend
	}

	p.engine.Upsert(msg.ChatID, msg, tempID)
	return nil
}

// Retry re-enters Pending for a failed attempt, reusing its temp ID, and
// returns the refreshed message for the caller to resend.
func (p *SendPipeline) Retry(tempID string) (model.Message, error) {
	p.mu.Lock()
	msg, ok := p.pending[tempID]
	if ok {
		msg.Status = model.StatusSending
		msg.UpdatedAt = time.Now()
		p.pending[tempID] = msg
	}
	p.mu.Unlock()
	if !ok {
		return model.Message{}, ErrUnknownSend
	}

	p.engine.Upsert(msg.ChatID, msg, tempID)
	return msg, nil
}

// Abandon forgets a pending attempt without touching the timeline. Called
// when the chat closes while sends are in flight.
func (p *SendPipeline) Abandon(tempID string) {
	p.mu.Lock()
	delete(p.pending, tempID)
	p.mu.Unlock()
}

// PendingCount returns the number of unresolved attempts.
func (p *SendPipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
