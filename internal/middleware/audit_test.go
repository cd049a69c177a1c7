package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handlerStatus int
		forwardedFor  string
		wantEvent     string
		wantIP        string
	}{
		{
			name:          "unauthorized logs security event",
			handlerStatus: http.StatusUnauthorized,
			forwardedFor:  "203.0.113.7",
			wantEvent:     "security_event",
			wantIP:        "203.0.113.7",
		},
		{
			name:          "forbidden logs security event",
			handlerStatus: http.StatusForbidden,
			forwardedFor:  "203.0.113.7, 10.0.0.1",
			wantEvent:     "security_event",
			wantIP:        "203.0.113.7",
		},
		{
			name:          "rate limited logs violation",
			handlerStatus: http.StatusTooManyRequests,
			forwardedFor:  "198.51.100.4",
			wantEvent:     "rate_limit_violation",
			wantIP:        "198.51.100.4",
		},
		{
			name:          "success is not logged",
			handlerStatus: http.StatusOK,
			wantEvent:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			logger := zap.New(core)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest("GET", "/api/v1/habits", nil)
			if tt.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			w := httptest.NewRecorder()

			Audit(logger)(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}

			entries := logs.All()
			if tt.wantEvent == "" {
				if len(entries) != 0 {
					t.Fatalf("Expected no audit entries, got %d", len(entries))
				}
				return
			}

			if len(entries) != 1 {
				t.Fatalf("Expected 1 audit entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Message != tt.wantEvent {
				t.Errorf("Expected event %q, got %q", tt.wantEvent, entry.Message)
			}
			fields := entry.ContextMap()
			if ip, ok := fields["ip"].(string); !ok || ip != tt.wantIP {
				t.Errorf("Expected ip %q, got %v", tt.wantIP, fields["ip"])
			}
		})
	}
}
