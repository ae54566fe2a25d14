// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatstate reconciles the three event sources that feed a chat
// timeline — local optimistic sends, REST confirmations, and socket pushes
// (new messages, streamed AI chunks, presence) — into one deduplicated,
// chronologically ordered message sequence per open chat.
//
// The pieces:
//
//   - Engine: owns the active Conversation and the chat list. All mutations
//     go through Upsert/AppendIncoming, which enforce the invariants: the
//     sequence stays sorted ascending by CreatedAt, no two entries share a
//     final ID, and a temporary ID is replaced (never duplicated) once the
//     server confirms a send. Calls for a chat other than the active one are
//     no-ops; that guard doubles as cancellation when the user leaves a chat.
//
//   - Accumulator: folds streamed AI chunks into the last message of the
//     active chat until a completion event supplies the authoritative final
//     message.
//
//   - Presence: the set of currently connected user IDs, written only from
//     socket events. AI participants are always reported online.
//
//   - SendPipeline: the Pending -> Confirmed | Failed state machine for one
//     send attempt. The HTTP call itself happens elsewhere; the pipeline
//     only owns the state transitions, which keeps it synchronous and
//     testable.
//
// Consumers never see the engine's live state: Snapshot and subscriber
// callbacks hand out copies.
package chatstate
