package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
)

func TestChatRejectsBadBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{oops"},
		{"missing message", `{"session_id":"default"}`},
		{"empty message", `{"message":""}`},
		{"whitespace message", `{"message":"   "}`},
	}

	h := NewChatHandler(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(tt.body))
			r = r.WithContext(middleware.SetUserInContext(context.Background(), testUser()))
			w := httptest.NewRecorder()

			h.Chat(w, r)

			if w.Code != 400 {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestChatUnauthorized(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(nil, nil)
	r := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()

	h.Chat(w, r)

	if w.Code != 401 {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestHistoryLimitParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"zero", "limit=0"},
		{"negative", "limit=-1"},
		{"too large", "limit=500"},
		{"not a number", "limit=many"},
	}

	h := NewChatHandler(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/api/v1/chat/history?"+tt.query, nil)
			r = r.WithContext(middleware.SetUserInContext(context.Background(), testUser()))
			w := httptest.NewRecorder()

			h.History(w, r)

			if w.Code != 400 {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}
