package onboarding

import (
	"fmt"
	"regexp"
	"strings"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/storage"
)

// Scratch keys threaded between onboarding steps. These are short-lived,
// step-scoped values distinct from a full session; Restart and CompleteSetup
// clear them as a unit.
const (
	KeyVerificationToken = storage.NamespaceOnboarding + "verification_token"
	KeyEmployee          = storage.NamespaceOnboarding + "employee"
	KeyUsername          = storage.NamespaceOnboarding + "username"
)

func ScratchKeys() []string {
	return []string{KeyVerificationToken, KeyEmployee, KeyUsername}
}

// SupportEmail is where users are directed when their profile fields need
// correction; there is no in-app edit path during onboarding.
const SupportEmail = "hr-support@university.edu"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+[0-9][0-9 \-]*$`)
)

// ValidateEmail checks the address shape before any network call.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return internal.NewValidationError("enter a valid email address", internal.ErrCodeInvalidEmail)
	}
	return nil
}

// ValidatePhone requires a leading + country code followed by 3 to 15
// digits, optionally space or hyphen separated.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return internal.NewValidationError("phone number must start with a + country code", internal.ErrCodeInvalidPhone)
	}

	digits := strings.NewReplacer(" ", "", "-", "").Replace(phone[1:])
	if len(digits) < 3 || len(digits) > 15 {
		return internal.NewValidationError("phone number must contain 3 to 15 digits", internal.ErrCodeInvalidPhone)
	}
	return nil
}

// ValidatePassword enforces the minimum-strength policy: length at least 8
// with at least one letter and one digit.
func ValidatePassword(password, confirm string) error {
	if len(password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeWeakPassword)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return internal.NewValidationError("password must contain at least one letter and one digit", internal.ErrCodeWeakPassword)
	}

	if password != confirm {
		return internal.NewValidationError("passwords do not match", internal.ErrCodePasswordMismatch)
	}
	return nil
}

// StepError is a failed onboarding call surfaced verbatim to the UI.
// AttemptsRemaining is present only when the backend reported a counter;
// Locked means the counter hit zero and further submission is disabled.
type StepError struct {
	Message           string
	AttemptsRemaining *int
	Locked            bool
}

func (e *StepError) Error() string {
	if e.Locked {
		return fmt.Sprintf("%s (account locked, contact %s)", e.Message, SupportEmail)
	}
	return e.Message
}
