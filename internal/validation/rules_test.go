package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

func TestPasswordStrength(t *testing.T) {
	rule := PasswordStrength{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	tests := []struct {
		name      string
		password  string
		shouldErr bool
		errMsg    string
	}{
		{name: "valid password", password: "SecurePass123!"},
		{name: "too short", password: "Short1!", shouldErr: true, errMsg: "at least 8 characters"},
		{name: "missing uppercase", password: "securepass123!", shouldErr: true, errMsg: "uppercase letter"},
		{name: "missing lowercase", password: "SECUREPASS123!", shouldErr: true, errMsg: "lowercase letter"},
		{name: "missing number", password: "SecurePass!", shouldErr: true, errMsg: "number"},
		{name: "missing special char", password: "SecurePass123", shouldErr: true, errMsg: "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Validate(tt.password)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, rule.Validate(42))
}

func TestStringRules(t *testing.T) {
	type rule interface{ Validate(value interface{}) error }

	tests := []struct {
		name  string
		rule  rule
		valid []string
		bad   []string
	}{
		{"NoWhitespace", NoWhitespace, []string{"acme"}, []string{" acme", "acme "}},
		{"NotBlank", NotBlank, []string{"x"}, []string{"   "}},
		{"Slug", Slug, []string{"acme", "acme-cafe-2"}, []string{"Acme", "acme--cafe", "-acme", "acme_cafe"}},
		{
			"SHA256Hex", SHA256Hex,
			[]string{"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
			[]string{"e3b0", "zzb0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		},
		{"IPAddress", IPAddress, []string{"10.0.0.1", "2001:db8::1"}, []string{"10.0.0.256", "host"}},
		{"CIDR", CIDR, []string{"10.0.0.0/8", "2001:db8::/32"}, []string{"10.0.0.1", "10.0.0.0/33"}},
		{"Regexp", Regexp, []string{`^sshd\[\d+\]`}, []string{`([a-z`}},
		{"HTTPURL", HTTPURL, []string{"https://tsa.example.com/stamp", "http://10.0.0.1:8080"}, []string{"ftp://x", "tsa.example.com", "https://"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.valid {
				assert.NoError(t, tt.rule.Validate(v), v)
			}
			for _, v := range tt.bad {
				assert.Error(t, tt.rule.Validate(v), v)
			}
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(assert.AnError)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, apperrors.KindValidationFailed, apperrors.KindOf(err))
}
