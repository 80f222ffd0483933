package utils

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// Validator returns the shared go-playground validator instance
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// IsEmail reports whether s is a syntactically valid e-mail address
func IsEmail(s string) bool {
	return Validator().Var(s, "required,email") == nil
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !IsEmail(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateCNPJ validates a Brazilian company registry number, formatted or bare
func ValidateCNPJ(cnpj string) error {
	digits := make([]int, 0, 14)
	for _, r := range cnpj {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, int(r-'0'))
		case strings.ContainsRune("./- ", r):
		default:
			return fmt.Errorf("CNPJ contains invalid character %q", r)
		}
	}
	if len(digits) != 14 {
		return fmt.Errorf("CNPJ must have 14 digits: %s", cnpj)
	}

	same := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			same = false
			break
		}
	}
	if same {
		return fmt.Errorf("CNPJ is not valid: %s", cnpj)
	}

	if digits[12] != cnpjCheckDigit(digits[:12]) || digits[13] != cnpjCheckDigit(digits[:13]) {
		return fmt.Errorf("CNPJ check digits do not match: %s", cnpj)
	}
	return nil
}

func cnpjCheckDigit(digits []int) int {
	sum := 0
	weight := len(digits) - 7
	for _, d := range digits {
		sum += d * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

// SanitizeString removes control characters, keeping tabs and line breaks
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
