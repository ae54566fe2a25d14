// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// errorResponse is the backend's error body shape.
type errorResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// AUTH
// =============================================================================

// SignInRequest carries credentials for POST /auth/sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest carries the registration payload for POST /auth/sign-up.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the result of a successful sign-in or sign-up.
type AuthResponse struct {
	User  model.Participant `json:"user"`
	Token string            `json:"token"`
}

// =============================================================================
// CHATS
// =============================================================================

// chatsResponse wraps GET /chat/all.
type chatsResponse struct {
	Chats []model.Chat `json:"chats"`
}

// singleChatResponse wraps GET /chat/:id.
type singleChatResponse struct {
	Chat     model.Chat      `json:"chat"`
	Messages []model.Message `json:"messages"`
}

// CreateChatRequest is the payload for POST /chat/create.
type CreateChatRequest struct {
	ParticipantIDs []string `json:"participantIds"`
	IsGroup        bool     `json:"isGroup,omitempty"`
	GroupName      string   `json:"groupName,omitempty"`
	IsAIChat       bool     `json:"isAiChat,omitempty"`
}

// createChatResponse wraps POST /chat/create.
type createChatResponse struct {
	Chat model.Chat `json:"chat"`
}

// =============================================================================
// MESSAGES
// =============================================================================

// SendMessageRequest is the payload for POST /chat/message/send.
type SendMessageRequest struct {
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// SendMessageResponse is the result of a send. AIResponse is present only
// for AI chats; callers must NOT insert it into the timeline — the
// streaming socket path owns AI replies.
type SendMessageResponse struct {
	UserMessage model.Message  `json:"userMessage"`
	AIResponse  *model.Message `json:"aiResponse,omitempty"`
}

// =============================================================================
// USERS
// =============================================================================

// usersResponse wraps GET /user/all.
type usersResponse struct {
	Users []model.Participant `json:"users"`
}

// avatarResponse wraps POST /user/avatar.
type avatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}
