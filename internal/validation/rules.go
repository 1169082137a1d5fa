// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/hex"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordStrength validates operator secrets chosen by an administrator.
type PasswordStrength struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

// Validate checks if the password meets the configured requirements
func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	if len(s) < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}

	if p.RequireUpper && !containsRune(s, unicode.IsUpper) {
		return validation.NewError(
			"validation_password_uppercase",
			"password must contain at least one uppercase letter",
		)
	}

	if p.RequireLower && !containsRune(s, unicode.IsLower) {
		return validation.NewError(
			"validation_password_lowercase",
			"password must contain at least one lowercase letter",
		)
	}

	if p.RequireNumber && !containsRune(s, unicode.IsNumber) {
		return validation.NewError("validation_password_number", "password must contain at least one number")
	}

	if p.RequireSpecial && !containsRune(s, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }) {
		return validation.NewError(
			"validation_password_special",
			"password must contain at least one special character",
		)
	}

	return nil
}

func containsRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Slug validates lowercase, dash separated tenant slugs.
var Slug = validation.NewStringRuleWithError(
	func(s string) bool {
		return slugRegex.MatchString(s)
	},
	validation.NewError("validation_slug", "must contain lowercase letters, digits and single dashes"),
)

// SHA256Hex validates a 64 character hex encoded SHA-256 digest.
var SHA256Hex = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) != 64 {
			return false
		}
		_, err := hex.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_sha256_hex", "must be a 64 character hex encoded SHA-256 digest"),
)

// IPAddress validates an IPv4 or IPv6 address.
var IPAddress = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := netip.ParseAddr(s)
		return err == nil
	},
	validation.NewError("validation_ip_address", "must be a valid IP address"),
)

// CIDR validates a network prefix such as 10.0.0.0/8.
var CIDR = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := netip.ParsePrefix(s)
		return err == nil
	},
	validation.NewError("validation_cidr", "must be a valid CIDR prefix"),
)

// Regexp validates that a string compiles as a regular expression.
var Regexp = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := regexp.Compile(s)
		return err == nil
	},
	validation.NewError("validation_regexp", "must be a valid regular expression"),
)

// HTTPURL validates an absolute http or https URL.
var HTTPURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.ParseRequestURI(s)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
	validation.NewError("validation_http_url", "must be an absolute http or https URL"),
)
