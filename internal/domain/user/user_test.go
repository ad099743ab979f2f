package user

import (
	"testing"
	"time"
)

func TestNew_NormalizesEmail(t *testing.T) {
	u, err := New("u1", "  Neo@Example.COM ", " Neo ", []byte("hash"), time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if u.Email() != "neo@example.com" {
		t.Errorf("Email() = %q", u.Email())
	}
	if u.Name() != "Neo" {
		t.Errorf("Name() = %q", u.Name())
	}
	if u.CreatedAt().Location() != time.UTC {
		t.Errorf("CreatedAt() not UTC: %v", u.CreatedAt())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		email string
		hash  []byte
	}{
		{"missing id", "", "a@b.c", []byte("h")},
		{"bad email", "u1", "not-an-email", []byte("h")},
		{"missing hash", "u1", "a@b.c", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, tc.email, "n", tc.hash, time.Now()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
