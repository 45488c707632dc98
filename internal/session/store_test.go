package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/campushr/hrms-portal/internal/api"
	"github.com/campushr/hrms-portal/internal/core/events"
	"github.com/campushr/hrms-portal/internal/storage"
	"github.com/campushr/hrms-portal/pkg/logger"
)

func TestSession(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Session Module Suite")
}

// Fake backend for testing
type fakeBackend struct {
	loginResp *api.AuthPayload
	loginErr  error
	meResp    *api.AuthPayload
	meErr     error

	token      string
	loginCalls int
	meCalls    int
}

func (f *fakeBackend) Login(ctx context.Context, req api.LoginRequest) (*api.AuthPayload, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeBackend) Me(ctx context.Context) (*api.AuthPayload, error) {
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.meResp, nil
}

func (f *fakeBackend) SetAuthToken(token string) { f.token = token }
func (f *fakeBackend) ClearAuthToken()           { f.token = "" }

func signedToken(expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte("test-secret"))
	return signed
}

func employeePayload() *api.AuthPayload {
	return &api.AuthPayload{
		Token:       "session-token",
		Roles:       []string{RoleEmployee},
		Permissions: []string{"view_own_payslip", "request_leave"},
		Department:  "Library",
		User: api.UserIdentity{
			ID:        42,
			Email:     "jdoe@university.edu",
			FirstName: "Jordan",
			LastName:  "Doe",
		},
	}
}

var _ = ginkgo.Describe("SessionStore", func() {
	var (
		store   *Store
		backend *fakeBackend
		mem     *storage.Memory
		bus     *events.EventBus
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		backend = &fakeBackend{}
		mem = storage.NewMemory()
		bus = events.NewEventBus(logger.LoggerWrapper())
		ctx = context.Background()
	})

	newStore := func() *Store {
		return NewStore(mem, backend, bus, logger.LoggerWrapper())
	}

	ginkgo.Describe("construction", func() {
		ginkgo.Context("with no persisted token", func() {
			ginkgo.It("should start unauthenticated", func() {
				// When
				store = newStore()

				// Then
				gomega.Expect(store.State()).To(gomega.Equal(StateUnauthenticated))
				gomega.Expect(store.IsAuthenticated()).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("with a persisted session", func() {
			ginkgo.BeforeEach(func() {
				gomega.Expect(mem.Set(keyToken, "cached-token")).To(gomega.Succeed())
				gomega.Expect(mem.Set(keyRoles, `["Employee"]`)).To(gomega.Succeed())
				gomega.Expect(mem.Set(keyPermissions, `["view_own_payslip"]`)).To(gomega.Succeed())
				gomega.Expect(mem.Set(keyEmail, "jdoe@university.edu")).To(gomega.Succeed())
			})

			ginkgo.It("should restore a provisional authenticated session", func() {
				// When
				store = newStore()

				// Then
				gomega.Expect(store.State()).To(gomega.Equal(StateAuthenticated))
				gomega.Expect(store.Current().Roles).To(gomega.ConsistOf(RoleEmployee))
				gomega.Expect(store.Current().Email).To(gomega.Equal("jdoe@university.edu"))
			})

			ginkgo.It("should install the cached token on the backend client", func() {
				// When
				store = newStore()

				// Then
				gomega.Expect(backend.token).To(gomega.Equal("cached-token"))
			})
		})

		ginkgo.Context("with an expired persisted JWT", func() {
			ginkgo.It("should discard the session without calling the backend", func() {
				// Given
				expired := signedToken(time.Now().Add(-time.Hour))
				gomega.Expect(mem.Set(keyToken, expired)).To(gomega.Succeed())

				// When
				store = newStore()

				// Then
				gomega.Expect(store.State()).To(gomega.Equal(StateUnauthenticated))
				gomega.Expect(mem.Len()).To(gomega.BeZero())
				gomega.Expect(backend.meCalls).To(gomega.BeZero())
			})
		})

		ginkgo.Context("with an unexpired persisted JWT", func() {
			ginkgo.It("should keep the provisional session", func() {
				// Given
				valid := signedToken(time.Now().Add(time.Hour))
				gomega.Expect(mem.Set(keyToken, valid)).To(gomega.Succeed())

				// When
				store = newStore()

				// Then
				gomega.Expect(store.State()).To(gomega.Equal(StateAuthenticated))
			})
		})
	})

	ginkgo.Describe("HasRole and HasPermission", func() {
		ginkgo.Context("when unauthenticated", func() {
			ginkgo.BeforeEach(func() {
				store = newStore()
			})

			ginkgo.It("should be vacuously true for an empty requirement", func() {
				gomega.Expect(store.HasRole("")).To(gomega.BeTrue())
				gomega.Expect(store.HasPermission("")).To(gomega.BeTrue())
			})

			ginkgo.It("should be false for any named requirement", func() {
				gomega.Expect(store.HasRole(RoleEmployee)).To(gomega.BeFalse())
				gomega.Expect(store.HasPermission("view_own_payslip")).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("when authenticated", func() {
			ginkgo.BeforeEach(func() {
				store = newStore()
				store.SetAuthData(ctx, employeePayload())
			})

			ginkgo.It("should report held roles and permissions", func() {
				gomega.Expect(store.HasRole(RoleEmployee)).To(gomega.BeTrue())
				gomega.Expect(store.HasRole(RoleSuperAdmin)).To(gomega.BeFalse())
				gomega.Expect(store.HasPermission("request_leave")).To(gomega.BeTrue())
				gomega.Expect(store.HasPermission("approve_leave")).To(gomega.BeFalse())
			})
		})
	})

	ginkgo.Describe("SetAuthData", func() {
		ginkgo.It("should persist every session field", func() {
			// Given
			store = newStore()

			// When
			store.SetAuthData(ctx, employeePayload())

			// Then
			for _, key := range persistedKeys() {
				_, ok, err := mem.Get(key)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue(), "missing persisted key %s", key)
			}
			gomega.Expect(backend.token).To(gomega.Equal("session-token"))
		})

		ginkgo.It("should publish a session.authenticated event", func() {
			// Given
			store = newStore()
			var seen []events.Event
			bus.Subscribe(events.EventTypeSessionAuthenticated, func(_ context.Context, e events.Event) error {
				seen = append(seen, e)
				return nil
			})

			// When
			store.SetAuthData(ctx, employeePayload())

			// Then
			gomega.Expect(seen).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("ClearAuthData", func() {
		ginkgo.BeforeEach(func() {
			store = newStore()
			store.SetAuthData(ctx, employeePayload())
		})

		ginkgo.It("should reset state, delete all keys and drop the auth header", func() {
			// When
			store.ClearAuthData(ctx, "logout")

			// Then
			gomega.Expect(store.State()).To(gomega.Equal(StateUnauthenticated))
			gomega.Expect(store.Current()).To(gomega.Equal(Session{}))
			gomega.Expect(mem.Len()).To(gomega.BeZero())
			gomega.Expect(backend.token).To(gomega.BeEmpty())
		})

		ginkgo.It("should be idempotent", func() {
			// When
			store.ClearAuthData(ctx, "logout")
			store.ClearAuthData(ctx, "logout")

			// Then
			gomega.Expect(store.Current()).To(gomega.Equal(Session{}))
			gomega.Expect(mem.Len()).To(gomega.BeZero())
		})
	})

	ginkgo.Describe("RefreshPermissions", func() {
		ginkgo.Context("with no token held", func() {
			ginkgo.It("should settle to unauthenticated without a backend call", func() {
				// Given
				store = newStore()

				// When
				err := store.RefreshPermissions(ctx)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(store.State()).To(gomega.Equal(StateUnauthenticated))
				gomega.Expect(backend.meCalls).To(gomega.BeZero())
			})
		})

		ginkgo.Context("when the backend confirms the session", func() {
			ginkgo.It("should replace the session with the backend's view", func() {
				// Given
				store = newStore()
				store.SetAuthData(ctx, employeePayload())
				refreshed := employeePayload()
				refreshed.Roles = []string{RoleEmployee, RoleManager}
				backend.meResp = refreshed

				// When
				err := store.RefreshPermissions(ctx)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(store.Current().Roles).To(gomega.ConsistOf(RoleEmployee, RoleManager))
			})

			ginkgo.It("should keep the held token when the refresh omits it", func() {
				// Given
				store = newStore()
				store.SetAuthData(ctx, employeePayload())
				refreshed := employeePayload()
				refreshed.Token = ""
				backend.meResp = refreshed

				// When
				err := store.RefreshPermissions(ctx)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(store.Current().Token).To(gomega.Equal("session-token"))
			})
		})

		ginkgo.Context("when the backend returns 401", func() {
			ginkgo.It("should clear the session entirely", func() {
				// Given
				store = newStore()
				store.SetAuthData(ctx, employeePayload())
				backend.meErr = &api.Error{StatusCode: http.StatusUnauthorized, Message: "token expired"}

				// When
				err := store.RefreshPermissions(ctx)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(store.State()).To(gomega.Equal(StateUnauthenticated))
				gomega.Expect(mem.Len()).To(gomega.BeZero())
				gomega.Expect(backend.token).To(gomega.BeEmpty())
			})
		})

		ginkgo.Context("when the backend fails transiently", func() {
			ginkgo.It("should keep the cached session intact", func() {
				// Given
				store = newStore()
				store.SetAuthData(ctx, employeePayload())
				backend.meErr = errors.New("connection refused")

				// When
				err := store.RefreshPermissions(ctx)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(store.State()).To(gomega.Equal(StateAuthenticated))
				gomega.Expect(store.Current().Email).To(gomega.Equal("jdoe@university.edu"))
			})
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should install the session returned by the backend", func() {
			// Given
			store = newStore()
			payload := employeePayload()
			payload.RequiresPasswordChange = true
			backend.loginResp = payload

			// When
			sess, err := store.Login(ctx, "jdoe@university.edu", "secret1pass")

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(sess.RequiresPasswordChange).To(gomega.BeTrue())
			gomega.Expect(store.IsAuthenticated()).To(gomega.BeTrue())
		})

		ginkgo.It("should surface backend rejection without mutating state", func() {
			// Given
			store = newStore()
			backend.loginErr = &api.Error{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}

			// When
			sess, err := store.Login(ctx, "jdoe@university.edu", "wrong")

			// Then
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(sess).To(gomega.BeNil())
			gomega.Expect(store.IsAuthenticated()).To(gomega.BeFalse())
		})
	})
})
