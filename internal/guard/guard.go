package guard

import (
	"strings"

	"github.com/campushr/hrms-portal/internal/session"
)

// Portal route paths the guards redirect between.
const (
	PathLogin          = "/login"
	PathDashboard      = "/dashboard"
	PathUnauthorized   = "/unauthorized"
	PathChangePassword = "/settings/password"

	PathOnboardingVerify   = "/onboarding/verify"
	PathOnboardingUsername = "/onboarding/username"
	PathOnboardingPassword = "/onboarding/password"
)

type DecisionKind string

const (
	// KindAllow renders the guarded route.
	KindAllow DecisionKind = "allow"
	// KindRedirect sends the user elsewhere; this is flow control, not an
	// error, so no banner accompanies it.
	KindRedirect DecisionKind = "redirect"
	// KindHold renders a loading affordance while the session settles.
	KindHold DecisionKind = "hold"
)

type Decision struct {
	Kind   DecisionKind
	Target string
}

func Allow() Decision { return Decision{Kind: KindAllow} }
func Hold() Decision  { return Decision{Kind: KindHold} }

func Redirect(to string) Decision { return Decision{Kind: KindRedirect, Target: to} }

// Requirement is what a guarded route demands. Zero value means
// authentication only.
type Requirement struct {
	Role       string
	Permission string
}

// Permission-name markers for the role carve-outs: a manager-tier role
// passes for management/approval/view-all permissions, the base role for
// self-service ones.
var (
	managerMarkers     = []string{"manage", "approv", "view_all"}
	selfServiceMarkers = []string{"own", "self"}
)

// Evaluate runs the general route guard against the ambient session. The
// checks are ordered: authentication, settling, the forced password-change
// interstitial, the Super Admin bypass, then role and permission
// requirements. Roles are exact-match: Super Admin and HR Manager in
// particular are satisfiable only by their own holders (or Super Admin via
// the bypass), and no carve-out applies to a missing role.
func Evaluate(state session.State, sess session.Session, req Requirement, currentPath string) Decision {
	if sess.Token == "" {
		return Redirect(PathLogin)
	}

	if state == session.StateLoading {
		return Hold()
	}

	if sess.RequiresPasswordChange && currentPath != PathChangePassword {
		return Redirect(PathChangePassword)
	}

	if sess.IsSuperAdmin() {
		return Allow()
	}

	if req.Role != "" && !sess.HasRole(req.Role) {
		return Redirect(PathUnauthorized)
	}

	if req.Permission != "" && !sess.HasPermission(req.Permission) {
		if !carveOutAllows(sess, req.Permission) {
			return Redirect(PathUnauthorized)
		}
	}

	return Allow()
}

func carveOutAllows(sess session.Session, permission string) bool {
	name := strings.ToLower(permission)

	if sess.HasRole(session.RoleManager) || sess.HasRole(session.RoleHRManager) {
		if containsAny(name, managerMarkers) {
			return true
		}
	}

	if sess.HasRole(session.RoleEmployee) {
		if containsAny(name, selfServiceMarkers) {
			return true
		}
	}

	return false
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
