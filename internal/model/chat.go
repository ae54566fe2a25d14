// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"time"
)

// =============================================================================
// PARTICIPANT TYPE
// =============================================================================

// Participant is a user taking part in a chat. A chat has zero or one
// participant with IsAI set.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	IsAI   bool   `json:"isAI,omitempty"`
}

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat is one conversation as listed by the backend.
type Chat struct {
	ID           string        `json:"id"`
	IsGroup      bool          `json:"isGroup"`
	GroupName    string        `json:"groupName,omitempty"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	IsAIChat     bool          `json:"isAiChat"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// AIParticipant returns the AI participant of the chat, or nil.
func (c *Chat) AIParticipant() *Participant {
	for i := range c.Participants {
		if c.Participants[i].IsAI {
			return &c.Participants[i]
		}
	}
	return nil
}

// OtherParticipant returns the first participant that is not currentUserID.
// Used for private chats to resolve the peer.
func (c *Chat) OtherParticipant(currentUserID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].ID != currentUserID {
			return &c.Participants[i]
		}
	}
	return nil
}

// =============================================================================
// DISPLAY RESOLUTION
// =============================================================================

// DisplayInfo is what a list row or chat header shows for a chat.
type DisplayInfo struct {
	Name       string
	Subheading string
	Avatar     string
	IsGroup    bool
	IsOnline   bool
	IsAI       bool
}

// Display resolves the name, subheading, and online status for a chat from
// the perspective of currentUserID. online reports real-time presence for a
// user ID; an AI peer is always shown online regardless of it.
func (c *Chat) Display(currentUserID string, online func(string) bool) DisplayInfo {
	if c.IsGroup {
		name := c.GroupName
		if name == "" {
			name = "Unnamed Group"
		}
		return DisplayInfo{
			Name:       name,
			Subheading: formatMemberCount(len(c.Participants)),
			IsGroup:    true,
		}
	}

	other := c.OtherParticipant(currentUserID)
	if other == nil {
		return DisplayInfo{Name: "Unknown"}
	}

	info := DisplayInfo{
		Name:   other.Name,
		Avatar: other.Avatar,
		IsAI:   other.IsAI,
	}

	switch {
	case other.IsAI:
		// Fixed policy: the assistant never reads as offline.
		info.IsOnline = true
		info.Subheading = "Online Assistant"
	case online != nil && online(other.ID):
		info.IsOnline = true
		info.Subheading = "Online"
	default:
		info.Subheading = "Offline"
	}

	if info.Name == "" {
		info.Name = "Unknown"
	}
	return info
}

// formatMemberCount renders "N members" for group subheadings.
func formatMemberCount(n int) string {
	if n == 1 {
		return "1 member"
	}
	return strconv.Itoa(n) + " members"
}
