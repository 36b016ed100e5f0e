// Package security holds the input hardening shared by the HTTP and gRPC surfaces:
// search-text screening, LIKE escaping, field validators and password hashing.
package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length for search queries
	MaxSearchQueryLength = 100
	// PhoneDigits is the exact length of a phone number
	PhoneDigits = 8
)

var (
	ErrSearchTooLong     = errors.New("search query too long")
	ErrSearchInvalidChar = errors.New("search query contains invalid characters")
)

var phonePattern = regexp.MustCompile(`^[0-9]{8}$`)

// ValidateSearchQuery trims a free-text search and rejects control and other
// non-printable characters. The text is bound as a parameter and LIKE-escaped
// downstream, so any printable input is a legitimate search.
func ValidateSearchQuery(query string) (string, error) {
	if query == "" {
		return "", nil
	}
	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrSearchTooLong
	}

	query = strings.TrimSpace(query)
	for _, c := range query {
		if c == utf8.RuneError || !unicode.IsPrint(c) {
			return "", ErrSearchInvalidChar
		}
	}

	return query, nil
}

// SanitizeSearchString escapes LIKE metacharacters with a backslash.
// The query using it must declare backslash as the escape character.
func SanitizeSearchString(query string) string {
	if query == "" {
		return ""
	}
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(query)
}

// IsPhoneNumber reports whether s is exactly PhoneDigits ASCII digits.
func IsPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// RegisterValidations adds the custom tags used by request DTOs:
//
//	phone    exactly 8 digits
//	notblank non-empty after trimming spaces
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhoneNumber(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// NewValidator returns a validator with RegisterValidations applied.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
