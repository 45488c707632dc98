package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a session token plus the role, permission
// and profile payload.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login/", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Me refreshes the current session from the token installed on the client.
func (c *Client) Me(ctx context.Context) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.do(ctx, http.MethodGet, "/auth/me/", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifyPhone validates an email/phone pair and issues the short-lived
// verification token plus an employee snapshot for onboarding.
func (c *Client) VerifyPhone(ctx context.Context, req VerifyPhoneRequest) (*VerifyPhoneResponse, error) {
	var resp VerifyPhoneResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-phone/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateUsername derives the canonical username from the employee snapshot.
func (c *Client) GenerateUsername(ctx context.Context, req GenerateUsernameRequest) (*GenerateUsernameResponse, error) {
	var resp GenerateUsernameResponse
	if err := c.do(ctx, http.MethodPost, "/auth/generate-username/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteSetup finalizes the account and returns the permanent session.
func (c *Client) CompleteSetup(ctx context.Context, req CompleteSetupRequest) (*AuthPayload, error) {
	var payload AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/complete-setup/", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetPreferences reads the notification and theme preferences.
func (c *Client) GetPreferences(ctx context.Context) (*PreferencesResponse, error) {
	var resp PreferencesResponse
	if err := c.do(ctx, http.MethodGet, "/auth/preferences/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePreferences sends a partial update and returns the server's
// authoritative view of the full preference set.
func (c *Client) UpdatePreferences(ctx context.Context, req PreferencesPayload) (*PreferencesResponse, error) {
	var resp PreferencesResponse
	if err := c.do(ctx, http.MethodPatch, "/auth/preferences/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendWelcomeEmail triggers an administrative resend of the onboarding
// invite for the given employee.
func (c *Client) ResendWelcomeEmail(ctx context.Context, employeeID int64) error {
	path := fmt.Sprintf("/auth/resend-welcome-email/%d/", employeeID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
