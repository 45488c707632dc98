package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("WithRetry", func() {
	var (
		policy RetryPolicy
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		policy = RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
		ctx = context.Background()
	})

	ginkgo.It("should return immediately on success", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			return nil
		})

		// Then
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(1))
	})

	ginkgo.It("should retry rate limiting up to the attempt budget", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			return &Error{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
		})

		// Then: initial call plus two retries
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(3))
	})

	ginkgo.It("should succeed when a later attempt recovers", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &Error{StatusCode: http.StatusInternalServerError, Message: "flaky"}
			}
			return nil
		})

		// Then
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(3))
	})

	ginkgo.It("should not retry validation failures", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			return &Error{StatusCode: http.StatusBadRequest, Message: "bad phone"}
		})

		// Then
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(1))
	})

	ginkgo.It("should not retry a 401", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			return &Error{StatusCode: http.StatusUnauthorized, Message: "expired"}
		})

		// Then
		gomega.Expect(IsUnauthorized(err)).To(gomega.BeTrue())
		gomega.Expect(calls).To(gomega.Equal(1))
	})

	ginkgo.It("should retry transport-level failures", func() {
		// Given
		calls := 0

		// When
		err := WithRetry(ctx, policy, func(ctx context.Context) error {
			calls++
			return errors.New("connection refused")
		})

		// Then
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(3))
	})

	ginkgo.It("should stop when the context is cancelled", func() {
		// Given
		cancelled, cancel := context.WithCancel(ctx)
		calls := 0

		// When
		err := WithRetry(cancelled, policy, func(ctx context.Context) error {
			calls++
			cancel()
			return &Error{StatusCode: http.StatusServiceUnavailable, Message: "down"}
		})

		// Then
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(calls).To(gomega.Equal(1))
	})
})
