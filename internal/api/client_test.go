// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchChats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/chat/all", r.URL.Path)
		require.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chats":[{"id":"c1","isGroup":false,"participants":[{"id":"u1","name":"Alice"}],"isAiChat":false}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).WithToken("tok123")
	chats, err := c.FetchChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "c1", chats[0].ID)
	assert.Equal(t, "Alice", chats[0].Participants[0].Name)
}

func TestClient_FetchChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/c1", r.URL.Path)
		w.Write([]byte(`{"chat":{"id":"c1","participants":[]},"messages":[{"id":"m1","chatId":"c1","content":"hi","sender":{"id":"u1"}}]}`))
	}))
	defer srv.Close()

	conv, err := NewClient(srv.URL).FetchChat(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.Chat.ID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hi", conv.Messages[0].Content)
}

func TestClient_SendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/message/send", r.URL.Path)

		var req SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "c1", req.ChatID)
		assert.Equal(t, "hello", req.Content)

		w.Write([]byte(`{"userMessage":{"id":"m1","chatId":"c1","content":"hello","sender":{"id":"u1"}},"aiResponse":{"id":"ai1","chatId":"c1","content":"hi there","sender":{"id":"bot","isAI":true}}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).SendMessage(context.Background(), SendMessageRequest{ChatID: "c1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m1", resp.UserMessage.ID)
	require.NotNil(t, resp.AIResponse)
	assert.True(t, resp.AIResponse.Sender.IsAI)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"token expired"}`, ErrUnauthorized},
		{"not found", http.StatusNotFound, `{"message":"no such chat"}`, ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).FetchChats(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClient_BadRequestCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"content required"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).SendMessage(context.Background(), SendMessageRequest{ChatID: "c1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "content required")
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"chats":[]}`))
	}))
	defer srv.Close()

	chats, err := NewClient(srv.URL).FetchChats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chats)
	assert.Equal(t, 3, attempts)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"nope"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchChats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx responses must not be retried")
}

func TestClient_SignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/sign-in", r.URL.Path)
		w.Write([]byte(`{"user":{"id":"u1","name":"Alice","email":"a@example.com"},"token":"tok123"}`))
	}))
	defer srv.Close()

	auth, err := NewClient(srv.URL).SignIn(context.Background(), SignInRequest{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", auth.User.ID)
	assert.Equal(t, "tok123", auth.Token)
}

func TestClient_UploadAvatar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/avatar", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("avatar")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "me.png", hdr.Filename)

		w.Write([]byte(`{"avatarUrl":"https://cdn.example.com/me.png"}`))
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL).UploadAvatar(context.Background(), "me.png", strings.NewReader("fakepng"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/me.png", url)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := NewClient("").FetchChats(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
