package preferences

import (
	"sync/atomic"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Debouncer", func() {
	ginkgo.It("should run the function once after the quiet period", func() {
		// Given
		var calls atomic.Int32
		d := NewDebouncer(20 * time.Millisecond)

		// When
		for i := 0; i < 5; i++ {
			d.Do(func() { calls.Add(1) })
		}

		// Then
		gomega.Eventually(func() int32 { return calls.Load() }).Should(gomega.Equal(int32(1)))
		gomega.Consistently(func() int32 { return calls.Load() }, "100ms").Should(gomega.Equal(int32(1)))
	})

	ginkgo.It("should only run the most recently scheduled function", func() {
		// Given
		var last atomic.Int32
		d := NewDebouncer(20 * time.Millisecond)

		// When
		d.Do(func() { last.Store(1) })
		d.Do(func() { last.Store(2) })

		// Then
		gomega.Eventually(func() int32 { return last.Load() }).Should(gomega.Equal(int32(2)))
	})

	ginkgo.It("should cancel a pending invocation on Stop", func() {
		// Given
		var calls atomic.Int32
		d := NewDebouncer(20 * time.Millisecond)

		// When
		d.Do(func() { calls.Add(1) })
		d.Stop()

		// Then
		gomega.Consistently(func() int32 { return calls.Load() }, "100ms").Should(gomega.BeZero())
	})
})
