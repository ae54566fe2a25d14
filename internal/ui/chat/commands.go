// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pulsechat-tui/internal/api"
	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// requestTimeout bounds the REST calls issued from the chat view.
const requestTimeout = 30 * time.Second

// loadConversationCmd fetches the chat with its history.
func loadConversationCmd(client *api.Client, chatID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := client.FetchChat(ctx, chatID)
		if err != nil {
			return ConversationErrMsg{ChatID: chatID, Err: err}
		}
		return ConversationLoadedMsg{Conversation: conv}
	}
}

// sendMessageCmd posts an optimistic message. aiChat marks sends whose
// reply will arrive over the streaming socket.
func sendMessageCmd(client *api.Client, msg model.Message, aiChat bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		req := api.SendMessageRequest{
			ChatID:  msg.ChatID,
			Content: msg.Content,
			Image:   msg.Image,
		}
		if msg.ReplyTo != nil {
			req.ReplyToID = msg.ReplyTo.ID
		}

		resp, err := client.SendMessage(ctx, req)
		if err != nil {
			return SendFailedMsg{TempID: msg.ID, Err: err}
		}
		// resp.AIResponse is intentionally discarded: the streamed socket
		// copy is the only source allowed to insert the AI reply.
		return SendConfirmedMsg{
			TempID:      msg.ID,
			Final:       resp.UserMessage,
			AIStreaming: aiChat,
		}
	}
}

// backCmd returns control to the chat list.
func backCmd() tea.Cmd {
	return func() tea.Msg {
		return BackMsg{}
	}
}
