package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit
	forbiddenPassword = "123456"
)

var validate = validator.New()

// NormalizeEmail trims and lowercases an email and checks its format.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email", "is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", invalid("email", "must be a valid email")
	}
	return email, nil
}

// NormalizeName trims a display name and requires it to be non-empty.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	return name, nil
}

// NormalizePassword trims a plaintext password and applies the strength rules.
func NormalizePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", invalid("password", "is required")
	}
	if len(password) < MinPasswordLength {
		return "", invalid("password", "must be at least 6 characters")
	}
	if len(password) > MaxPasswordLength {
		return "", invalid("password", "must be at most 72 bytes")
	}
	if strings.Contains(password, forbiddenPassword) {
		return "", invalid("password", "must not contain 123456")
	}
	return password, nil
}

// ValidateAge accepts a missing age or any age of at least 1.
func ValidateAge(age *int) error {
	if age != nil && *age < 1 {
		return invalid("age", "must be at least 1")
	}
	return nil
}

// NormalizeDescription trims a task description and requires it to be non-empty.
func NormalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", invalid("description", "is required")
	}
	return description, nil
}

// ValidateID reports ErrInvalidID when id is not a store identifier.
func ValidateID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return ErrInvalidID
	}
	return nil
}
