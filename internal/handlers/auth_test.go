package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterRejectsBadBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{nope"},
		{"missing email", `{"username":"lifty","password":"secretpass"}`},
		{"bad email", `{"email":"not-an-email","username":"lifty","password":"secretpass"}`},
		{"short username", `{"email":"a@b.com","username":"ab","password":"secretpass"}`},
		{"short password", `{"email":"a@b.com","username":"lifty","password":"short"}`},
		{"bad fitness level", `{"email":"a@b.com","username":"lifty","password":"secretpass","fitness_level":"elite"}`},
	}

	h := NewAuthHandler(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Register(w, r)

			if w.Code != 400 {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLoginRejectsBadBody(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil)
	r := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.com"}`))
	w := httptest.NewRecorder()

	h.Login(w, r)

	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
