package onboarding

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/campushr/hrms-portal/internal"
	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/storage"
	"github.com/campushr/hrms-portal/pkg/logger"
)

func TestOnboarding(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Onboarding Module Suite")
}

// Fake backend for testing
type fakeBackend struct {
	verifyResp   *api.VerifyPhoneResponse
	verifyErr    error
	usernameResp *api.GenerateUsernameResponse
	usernameErr  error
	setupResp    *api.AuthPayload
	setupErr     error
	resendErr    error

	verifyCalls   int
	usernameCalls int
	setupCalls    int
	lastSetup     api.CompleteSetupRequest
}

func (f *fakeBackend) VerifyPhone(ctx context.Context, req api.VerifyPhoneRequest) (*api.VerifyPhoneResponse, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResp, nil
}

func (f *fakeBackend) GenerateUsername(ctx context.Context, req api.GenerateUsernameRequest) (*api.GenerateUsernameResponse, error) {
	f.usernameCalls++
	if f.usernameErr != nil {
		return nil, f.usernameErr
	}
	return f.usernameResp, nil
}

func (f *fakeBackend) CompleteSetup(ctx context.Context, req api.CompleteSetupRequest) (*api.AuthPayload, error) {
	f.setupCalls++
	f.lastSetup = req
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	return f.setupResp, nil
}

func (f *fakeBackend) ResendWelcomeEmail(ctx context.Context, employeeID int64) error {
	return f.resendErr
}

type fakeInstaller struct {
	payload *api.AuthPayload
}

func (f *fakeInstaller) SetAuthData(ctx context.Context, payload *api.AuthPayload) {
	f.payload = payload
}

func intPtr(n int) *int { return &n }

var _ = ginkgo.Describe("OnboardingService", func() {
	var (
		backend   *fakeBackend
		installer *fakeInstaller
		mem       *storage.Memory
		service   *Service
		ctx       context.Context
	)

	employee := api.EmployeeSnapshot{
		EmployeeID: "E1207",
		FirstName:  "Pat",
		LastName:   "Lee",
		Email:      "pat.lee@university.edu",
		Department: "Finance",
	}

	ginkgo.BeforeEach(func() {
		backend = &fakeBackend{
			verifyResp: &api.VerifyPhoneResponse{
				VerificationToken: "vt-1207",
				Employee:          employee,
			},
			usernameResp: &api.GenerateUsernameResponse{Username: "plee"},
			setupResp: &api.AuthPayload{
				Token: "jwt-final",
				Roles: []string{"Employee"},
				User:  api.UserIdentity{ID: 1207, Email: employee.Email},
			},
		}
		installer = &fakeInstaller{}
		mem = storage.NewMemory()
		policy := api.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
		service = NewService(mem, backend, installer, policy, logger.LoggerWrapper())
		ctx = context.Background()
	})

	verified := func() {
		_, err := service.VerifyIdentity(ctx, employee.Email, "+61 4 1234 5678")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
	}

	ginkgo.Describe("VerifyIdentity", func() {
		ginkgo.It("should store the token and employee snapshot on success", func() {
			// When
			snapshot, err := service.VerifyIdentity(ctx, employee.Email, "+61 4 1234 5678")

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(snapshot.EmployeeID).To(gomega.Equal("E1207"))

			token, ok, _ := mem.Get(KeyVerificationToken)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(token).To(gomega.Equal("vt-1207"))
			_, ok, _ = mem.Get(KeyEmployee)
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a malformed email before any network call", func() {
			// When
			_, err := service.VerifyIdentity(ctx, "not-an-email", "+61 4 1234 5678")

			// Then
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidEmail))
			gomega.Expect(backend.verifyCalls).To(gomega.BeZero())
		})

		ginkgo.It("should reject a phone number without a country code", func() {
			// When
			_, err := service.VerifyIdentity(ctx, employee.Email, "0412345678")

			// Then
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidPhone))
			gomega.Expect(backend.verifyCalls).To(gomega.BeZero())
		})

		ginkgo.It("should surface the backend message and remaining attempts", func() {
			// Given
			backend.verifyErr = &api.Error{
				StatusCode:        http.StatusUnprocessableEntity,
				Message:           "phone number does not match our records",
				AttemptsRemaining: intPtr(2),
			}

			// When
			_, err := service.VerifyIdentity(ctx, employee.Email, "+61 4 9999 9999")

			// Then
			var stepErr *StepError
			gomega.Expect(errors.As(err, &stepErr)).To(gomega.BeTrue())
			gomega.Expect(stepErr.Message).To(gomega.Equal("phone number does not match our records"))
			gomega.Expect(stepErr.AttemptsRemaining).To(gomega.HaveValue(gomega.Equal(2)))
			gomega.Expect(stepErr.Locked).To(gomega.BeFalse())

			// And no scratch state was written
			_, ok, _ := mem.Get(KeyVerificationToken)
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should mark the flow locked when attempts hit zero", func() {
			// Given
			backend.verifyErr = &api.Error{
				StatusCode:        http.StatusUnprocessableEntity,
				Message:           "too many failed attempts",
				AttemptsRemaining: intPtr(0),
			}

			// When
			_, err := service.VerifyIdentity(ctx, employee.Email, "+61 4 9999 9999")

			// Then
			var stepErr *StepError
			gomega.Expect(errors.As(err, &stepErr)).To(gomega.BeTrue())
			gomega.Expect(stepErr.Locked).To(gomega.BeTrue())
			gomega.Expect(stepErr.Error()).To(gomega.ContainSubstring(SupportEmail))
		})

		ginkgo.It("should retry transient failures but not mismatches", func() {
			// Given
			backend.verifyErr = &api.Error{StatusCode: http.StatusServiceUnavailable, Message: "try later"}

			// When
			_, err := service.VerifyIdentity(ctx, employee.Email, "+61 4 1234 5678")

			// Then: initial attempt plus two retries
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(backend.verifyCalls).To(gomega.Equal(3))

			// Given a non-transient rejection instead
			backend.verifyCalls = 0
			backend.verifyErr = &api.Error{StatusCode: http.StatusUnprocessableEntity, Message: "no match"}

			// When
			_, err = service.VerifyIdentity(ctx, employee.Email, "+61 4 1234 5678")

			// Then
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(backend.verifyCalls).To(gomega.Equal(1))
		})
	})

	ginkgo.Describe("ProposeUsername", func() {
		ginkgo.It("should refuse when verification has not happened", func() {
			// When
			_, err := service.ProposeUsername(ctx)

			// Then
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeStepIncomplete))
			gomega.Expect(backend.usernameCalls).To(gomega.BeZero())
		})

		ginkgo.It("should derive the username from the stored snapshot", func() {
			// Given
			verified()

			// When
			proposal, err := service.ProposeUsername(ctx)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(proposal.Username).To(gomega.Equal("plee"))
			gomega.Expect(proposal.Employee.Department).To(gomega.Equal("Finance"))
		})
	})

	ginkgo.Describe("ConfirmUsername", func() {
		ginkgo.It("should persist the confirmed username", func() {
			// When
			gomega.Expect(service.ConfirmUsername("plee")).To(gomega.Succeed())

			// Then
			username, ok, _ := mem.Get(KeyUsername)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(username).To(gomega.Equal("plee"))
		})

		ginkgo.It("should reject an empty username", func() {
			gomega.Expect(service.ConfirmUsername("")).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("CompleteSetup", func() {
		ginkgo.BeforeEach(func() {
			verified()
			gomega.Expect(service.ConfirmUsername("plee")).To(gomega.Succeed())
		})

		ginkgo.It("should install the session and clear all scratch state", func() {
			// When
			err := service.CompleteSetup(ctx, "Summer2026ok", "Summer2026ok")

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(installer.payload).ToNot(gomega.BeNil())
			gomega.Expect(installer.payload.Token).To(gomega.Equal("jwt-final"))
			gomega.Expect(backend.lastSetup.VerificationToken).To(gomega.Equal("vt-1207"))
			gomega.Expect(backend.lastSetup.Username).To(gomega.Equal("plee"))

			for _, key := range ScratchKeys() {
				_, ok, _ := mem.Get(key)
				gomega.Expect(ok).To(gomega.BeFalse(), key)
			}
		})

		ginkgo.It("should enforce the password policy before calling out", func() {
			// When: too short, no digit, mismatch
			shortErr := service.CompleteSetup(ctx, "Ab1", "Ab1")
			noDigitErr := service.CompleteSetup(ctx, "passwordonly", "passwordonly")
			mismatchErr := service.CompleteSetup(ctx, "Summer2026ok", "Winter2026ok")

			// Then
			gomega.Expect(shortErr).To(gomega.HaveOccurred())
			gomega.Expect(noDigitErr).To(gomega.HaveOccurred())
			gomega.Expect(mismatchErr).To(gomega.HaveOccurred())
			gomega.Expect(backend.setupCalls).To(gomega.BeZero())
		})

		ginkgo.It("should keep scratch state when finalization fails", func() {
			// Given
			backend.setupErr = &api.Error{StatusCode: http.StatusConflict, Message: "username already taken"}

			// When
			err := service.CompleteSetup(ctx, "Summer2026ok", "Summer2026ok")

			// Then: the user can retry without re-verifying
			var stepErr *StepError
			gomega.Expect(errors.As(err, &stepErr)).To(gomega.BeTrue())
			gomega.Expect(installer.payload).To(gomega.BeNil())
			token, ok, _ := mem.Get(KeyVerificationToken)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(token).To(gomega.Equal("vt-1207"))
		})
	})

	ginkgo.Describe("Restart", func() {
		ginkgo.It("should discard all scratch state", func() {
			// Given
			verified()
			gomega.Expect(service.ConfirmUsername("plee")).To(gomega.Succeed())

			// When
			service.Restart()

			// Then
			gomega.Expect(mem.Len()).To(gomega.BeZero())
		})
	})
})
