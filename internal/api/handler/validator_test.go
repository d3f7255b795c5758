package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/taskhub/task-api/internal/core/domain"
)

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	zero := 0
	err := NewValidator().Validate(&registerRequest{Email: "a@example.com", Age: &zero})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	for _, want := range []string{"name is required", "password is required", "age must be at least 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidator_Valid(t *testing.T) {
	if err := NewValidator().Validate(&createTaskRequest{Description: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
