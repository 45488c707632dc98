package onboarding

import (
	"context"
	"encoding/json"
	"log/slog"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/storage"
)

// Backend is the slice of the HRMS API the onboarding flow consumes.
type Backend interface {
	VerifyPhone(ctx context.Context, req api.VerifyPhoneRequest) (*api.VerifyPhoneResponse, error)
	GenerateUsername(ctx context.Context, req api.GenerateUsernameRequest) (*api.GenerateUsernameResponse, error)
	CompleteSetup(ctx context.Context, req api.CompleteSetupRequest) (*api.AuthPayload, error)
	ResendWelcomeEmail(ctx context.Context, employeeID int64) error
}

// SessionInstaller receives the permanent session issued by the final step.
type SessionInstaller interface {
	SetAuthData(ctx context.Context, payload *api.AuthPayload)
}

// Service drives the three-step onboarding wizard. Each step persists
// exactly one new scratch value on success; completing or restarting the
// flow clears all scratch state.
type Service struct {
	storage  storage.Store
	backend  Backend
	sessions SessionInstaller
	retry    api.RetryPolicy
	logger   *slog.Logger
}

func NewService(st storage.Store, backend Backend, sessions SessionInstaller, retry api.RetryPolicy, logger *slog.Logger) *Service {
	return &Service{
		storage:  st,
		backend:  backend,
		sessions: sessions,
		retry:    retry,
		logger:   logger,
	}
}

// VerifyIdentity is step 1: validates the email and phone shapes locally,
// then asks the backend to match them against employee records. On success
// the verification token and employee snapshot are stored for the next
// steps.
func (s *Service) VerifyIdentity(ctx context.Context, email, phone string) (*api.EmployeeSnapshot, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}

	var resp *api.VerifyPhoneResponse
	err := api.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.backend.VerifyPhone(ctx, api.VerifyPhoneRequest{
			Email:       email,
			PhoneNumber: phone,
		})
		return callErr
	})
	if err != nil {
		return nil, stepError(err)
	}

	snapshot, marshalErr := json.Marshal(resp.Employee)
	if marshalErr != nil {
		return nil, internal.NewInternalError("could not store employee snapshot", marshalErr)
	}

	if err := s.storage.Set(KeyVerificationToken, resp.VerificationToken); err != nil {
		return nil, internal.NewInternalError("could not store verification token", err)
	}
	if err := s.storage.Set(KeyEmployee, string(snapshot)); err != nil {
		return nil, internal.NewInternalError("could not store employee snapshot", err)
	}

	s.logger.Info("identity verified", "employee_id", resp.Employee.EmployeeID)
	return &resp.Employee, nil
}

// UsernameProposal is the canonical username derived by the backend,
// displayed read-only beside the employee's profile fields.
type UsernameProposal struct {
	Username string
	Employee api.EmployeeSnapshot
}

// ProposeUsername is step 2's entry: it requires the scratch state from
// step 1 and asks the backend to derive the canonical username from the
// stored snapshot.
func (s *Service) ProposeUsername(ctx context.Context) (*UsernameProposal, error) {
	token, employee, err := s.verifiedScratch()
	if err != nil {
		return nil, err
	}

	var resp *api.GenerateUsernameResponse
	err = api.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.backend.GenerateUsername(ctx, api.GenerateUsernameRequest{
			VerificationToken: token,
			FirstName:         employee.FirstName,
			LastName:          employee.LastName,
			EmployeeID:        employee.EmployeeID,
		})
		return callErr
	})
	if err != nil {
		return nil, stepError(err)
	}

	return &UsernameProposal{Username: resp.Username, Employee: *employee}, nil
}

// ConfirmUsername persists the chosen username locally, advancing the flow
// to the password step.
func (s *Service) ConfirmUsername(username string) error {
	if username == "" {
		return internal.NewValidationError("username is required", internal.ErrCodeValidationFailed)
	}
	if err := s.storage.Set(KeyUsername, username); err != nil {
		return internal.NewInternalError("could not store username", err)
	}
	return nil
}

// CompleteSetup is step 3: enforces the password policy, finalizes the
// account with the accumulated token and username, installs the permanent
// session and clears all scratch state.
func (s *Service) CompleteSetup(ctx context.Context, password, confirm string) error {
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}

	token, _, err := s.verifiedScratch()
	if err != nil {
		return err
	}
	username, ok, err := s.storage.Get(KeyUsername)
	if err != nil || !ok || username == "" {
		return internal.NewDomainError("username confirmation is incomplete", internal.ErrCodeStepIncomplete)
	}

	var payload *api.AuthPayload
	err = api.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var callErr error
		payload, callErr = s.backend.CompleteSetup(ctx, api.CompleteSetupRequest{
			VerificationToken: token,
			Username:          username,
			Password:          password,
		})
		return callErr
	})
	if err != nil {
		return stepError(err)
	}

	s.sessions.SetAuthData(ctx, payload)
	s.clearScratch()
	s.logger.Info("onboarding completed", "user_id", payload.User.ID)
	return nil
}

// Restart discards all scratch state so the flow begins again at step 1.
func (s *Service) Restart() {
	s.clearScratch()
}

// ResendWelcomeEmail triggers an administrative resend of the onboarding
// invite.
func (s *Service) ResendWelcomeEmail(ctx context.Context, employeeID int64) error {
	err := api.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.backend.ResendWelcomeEmail(ctx, employeeID)
	})
	if err != nil {
		return stepError(err)
	}
	return nil
}

func (s *Service) verifiedScratch() (string, *api.EmployeeSnapshot, error) {
	token, ok, err := s.storage.Get(KeyVerificationToken)
	if err != nil || !ok || token == "" {
		return "", nil, internal.NewDomainError("identity verification is incomplete", internal.ErrCodeStepIncomplete)
	}

	raw, ok, err := s.storage.Get(KeyEmployee)
	if err != nil || !ok {
		return "", nil, internal.NewDomainError("identity verification is incomplete", internal.ErrCodeStepIncomplete)
	}

	var employee api.EmployeeSnapshot
	if err := json.Unmarshal([]byte(raw), &employee); err != nil {
		return "", nil, internal.NewInternalError("stored employee snapshot is corrupt", err)
	}

	return token, &employee, nil
}

func (s *Service) clearScratch() {
	if err := s.storage.DeleteAll(ScratchKeys()...); err != nil {
		s.logger.Warn("onboarding scratch clear failed", "error", err)
	}
}

// stepError converts a backend failure into a StepError carrying the
// verbatim message and, when supplied, the remaining-attempts counter.
func stepError(err error) error {
	apiErr, ok := api.AsError(err)
	if !ok {
		return &StepError{Message: "could not reach the server, please try again"}
	}

	stepErr := &StepError{
		Message:           apiErr.Message,
		AttemptsRemaining: apiErr.AttemptsRemaining,
	}
	if apiErr.AttemptsRemaining != nil && *apiErr.AttemptsRemaining == 0 {
		stepErr.Locked = true
	}
	return stepErr
}
