package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := svc.Issue(userID, time.Now())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got != userID {
		t.Errorf("Verify returned user %s, want %s", got, userID)
	}
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("test-secret", time.Hour)
	userID := uuid.New()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage token",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
		},
		{
			name: "wrong signing secret",
			token: func(t *testing.T) string {
				other := NewTokenService("different-secret", time.Hour)
				tok, err := other.Issue(userID, time.Now())
				if err != nil {
					t.Fatalf("Issue returned error: %v", err)
				}
				return tok
			},
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, err := svc.Issue(userID, time.Now().Add(-2*time.Hour))
				if err != nil {
					t.Fatalf("Issue returned error: %v", err)
				}
				return tok
			},
		},
		{
			name: "tampered token",
			token: func(t *testing.T) string {
				tok, err := svc.Issue(userID, time.Now())
				if err != nil {
					t.Fatalf("Issue returned error: %v", err)
				}
				return strings.Replace(tok, ".", ".x", 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.Verify(tt.token(t)); err == nil {
				t.Error("Verify accepted an invalid token")
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("HashPassword returned the plaintext")
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestDefaultTTL(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("test-secret", 0)
	if svc.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", svc.ttl, DefaultTokenTTL)
	}
}
