package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAnswer_Valid(t *testing.T) {
	tests := []struct {
		name     string
		question string
		answer   string
	}{
		{"plain text", "City", "Springfield"},
		{"full name with two tokens", "Full Name", "Jane Doe"},
		{"valid email", "Email Address", "jane@example.com"},
		{"phone with separators", "Phone Number", "+1 (555) 123-4567"},
		{"username exempt from name rule", "Username", "jdoe99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, issues := ValidateAnswer(tt.question, tt.answer)
			assert.True(t, ok)
			assert.Empty(t, issues)
		})
	}
}

func TestValidateAnswer_TooShort(t *testing.T) {
	ok, issues := ValidateAnswer("City", "X")
	assert.False(t, ok)
	assert.Contains(t, issues, "Answer seems too short")
}

func TestValidateAnswer_FullNameNeedsTwoTokens(t *testing.T) {
	ok, issues := ValidateAnswer("What is your full name", "Jane")
	assert.False(t, ok)
	assert.Contains(t, issues, "Full name should have first and last name")

	ok, _ = ValidateAnswer("Complete name", "Jane Doe")
	assert.True(t, ok)

	// Plain "name" without full/complete is not held to the two-token rule.
	ok, _ = ValidateAnswer("First name", "Jane")
	assert.True(t, ok)
}

func TestValidateAnswer_EmailFormat(t *testing.T) {
	ok, issues := ValidateAnswer("Email Address", "not-an-email")
	assert.False(t, ok)
	assert.Equal(t, []string{"Email format appears invalid"}, issues)

	ok, _ = ValidateAnswer("E-mail", "user@domain.org")
	assert.True(t, ok)
}

func TestValidateAnswer_PhoneDigitCount(t *testing.T) {
	ok, issues := ValidateAnswer("Mobile number", "555-1234")
	assert.False(t, ok)
	assert.Contains(t, issues, "Phone number seems too short")

	ok, _ = ValidateAnswer("Phone", "5551234567")
	assert.True(t, ok)
}

func TestValidateAnswer_RulesAreAdditive(t *testing.T) {
	// A one-character answer to an email question trips both rules.
	ok, issues := ValidateAnswer("Email", "x")
	assert.False(t, ok)
	assert.Len(t, issues, 2)
}
