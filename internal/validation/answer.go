// Package validation provides the rule checks applied to candidate answers
// before they are shown for review or persisted.
package validation

import (
	"regexp"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// minPhoneDigits is the minimum digit count for a plausible phone number.
const minPhoneDigits = 10

// ValidateAnswer checks a candidate answer against the question it answers.
// All rules are additive; ok is true iff no issue was found.
func ValidateAnswer(question, answer string) (bool, []string) {
	var issues []string
	questionLower := strings.ToLower(question)

	if len(answer) < 2 {
		issues = append(issues, "Answer seems too short")
	}

	if strings.Contains(questionLower, "name") && !strings.Contains(questionLower, "user") {
		if strings.Contains(questionLower, "full") || strings.Contains(questionLower, "complete") {
			if len(strings.Fields(answer)) < 2 {
				issues = append(issues, "Full name should have first and last name")
			}
		}
	}

	if strings.Contains(questionLower, "email") || strings.Contains(questionLower, "e-mail") {
		if !emailRe.MatchString(answer) {
			issues = append(issues, "Email format appears invalid")
		}
	}

	if strings.Contains(questionLower, "phone") || strings.Contains(questionLower, "mobile") {
		digits := nonDigitRe.ReplaceAllString(answer, "")
		if len(digits) < minPhoneDigits {
			issues = append(issues, "Phone number seems too short")
		}
	}

	return len(issues) == 0, issues
}
