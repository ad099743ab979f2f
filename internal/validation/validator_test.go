package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/moviemaster/internal/domain"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name,omitempty" validate:"max=10"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(signup{Email: "neo@example.com", Password: "12345678"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "short", Name: "a very long name"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{
		"email must be a valid email address",
		"password must be at least 8 characters",
		"name must be at most 10 characters",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %q", want, err.Error())
		}
	}
}

func TestStruct_Required(t *testing.T) {
	err := Struct(signup{})
	if err == nil || !strings.Contains(err.Error(), "email is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}
