package guard

import (
	"github.com/campushr/hrms-portal/internal/onboarding"
	"github.com/campushr/hrms-portal/internal/storage"
)

// Step identifies one screen of the onboarding wizard.
type Step string

const (
	StepVerify   Step = "verify"
	StepUsername Step = "username"
	StepPassword Step = "password"
)

// stepRule is the sequencing requirement for one step: the scratch keys
// that must already exist, and where to send the user when they do not.
type stepRule struct {
	required []string
	fallback string
}

// stepRules encodes the forward-only wizard order. The entry step has no
// prerequisites and stays reachable even for authenticated users so a
// finished flow can be restarted.
var stepRules = map[Step]stepRule{
	StepVerify: {},
	StepUsername: {
		required: []string{onboarding.KeyVerificationToken, onboarding.KeyEmployee},
		fallback: PathOnboardingVerify,
	},
	StepPassword: {
		required: []string{onboarding.KeyVerificationToken, onboarding.KeyUsername},
		fallback: PathOnboardingUsername,
	},
}

// EvaluateOnboarding runs the wizard sequencing guard. Prerequisites are
// read from scratch storage on every evaluation, so a mid-flow restart or
// cleared state immediately redirects back to the earliest incomplete
// step. Unknown steps redirect to the entry step.
func EvaluateOnboarding(st storage.Store, sessionAuthenticated bool, step Step) Decision {
	rule, ok := stepRules[step]
	if !ok {
		return Redirect(PathOnboardingVerify)
	}

	if sessionAuthenticated && step != StepVerify {
		return Redirect(PathDashboard)
	}

	for _, key := range rule.required {
		value, found, err := st.Get(key)
		if err != nil || !found || value == "" {
			return Redirect(rule.fallback)
		}
	}

	return Allow()
}
