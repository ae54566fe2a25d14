// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
)

func TestToastManager_AddAndRemove(t *testing.T) {
	m := NewToastManager()

	id1 := m.AddError("send failed")
	id2 := m.AddStatus("connected")

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("toasts = %d, want 2", len(toasts))
	}
	// Newest first.
	if toasts[0].ID != id2 {
		t.Errorf("toasts[0].ID = %d, want %d", toasts[0].ID, id2)
	}

	m.Remove(id1)
	toasts = m.Toasts()
	if len(toasts) != 1 || toasts[0].ID != id2 {
		t.Errorf("after remove: %+v", toasts)
	}
}

func TestToastManager_CapsStack(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 10; i++ {
		m.AddStatus("toast")
	}
	if got := len(m.Toasts()); got != 5 {
		t.Errorf("stack size = %d, want 5", got)
	}
}

func TestToastManager_TickExpires(t *testing.T) {
	m := NewToastManager()
	expired := NewStatusToast("old")
	expired.CreatedAt = time.Now().Add(-DefaultToastDuration - time.Second)
	m.Add(expired)
	m.AddError("fresh")

	remaining := m.Tick()
	if len(remaining) != 1 {
		t.Fatalf("remaining = %d, want 1", len(remaining))
	}
	if remaining[0].Message != "fresh" {
		t.Errorf("kept %q, want fresh", remaining[0].Message)
	}
}

func TestToastDurationsByKind(t *testing.T) {
	tests := []struct {
		name  string
		toast Toast
		want  time.Duration
	}{
		{"error", NewErrorToast("e"), ErrorToastDuration},
		{"warning", NewWarningToast("w"), WarningToastDuration},
		{"status", NewStatusToast("s"), DefaultToastDuration},
		{"success", NewSuccessToast("ok"), DefaultToastDuration},
	}
	for _, tc := range tests {
		if tc.toast.Duration != tc.want {
			t.Errorf("%s: duration = %v, want %v", tc.name, tc.toast.Duration, tc.want)
		}
	}
}

func TestRenderToast_RetryHint(t *testing.T) {
	theme := styles.NewTheme()

	plain := RenderToast(theme, NewErrorToast("failed"), 80)
	if strings.Contains(plain, "Retry") {
		t.Error("non-retryable toast shows retry hint")
	}

	retryable := RenderToast(theme, NewRetryableErrorToast("failed", "tmp_1"), 80)
	if !strings.Contains(retryable, "Retry") {
		t.Error("retryable toast missing retry hint")
	}
	if !strings.Contains(retryable, "[x] Dismiss") {
		t.Error("toast missing dismiss hint")
	}
}

func TestRenderToastStack_Empty(t *testing.T) {
	theme := styles.NewTheme()
	if out := RenderToastStack(theme, nil, 80, 24); out != "" {
		t.Errorf("empty stack rendered %q", out)
	}
}
