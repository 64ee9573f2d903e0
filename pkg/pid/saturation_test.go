package pid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidctrl/pkg/pid"
)

var _ = Describe("Limit", func() {
	values := []float64{-1e9, -10, -1, -0.5, 0, 0.5, 1, 10, 1e9}
	bounds := [][2]float64{{-1, 1}, {0, 0}, {-10, -5}, {2, 3}}

	It("stays inside the interval", func() {
		for _, b := range bounds {
			for _, v := range values {
				got := pid.Limit(v, b[0], b[1])
				Expect(got).To(BeNumerically(">=", b[0]))
				Expect(got).To(BeNumerically("<=", b[1]))
			}
		}
	})

	It("is idempotent", func() {
		for _, b := range bounds {
			for _, v := range values {
				once := pid.Limit(v, b[0], b[1])
				Expect(pid.Limit(once, b[0], b[1])).To(Equal(once))
			}
		}
	})

	It("passes values inside the interval through", func() {
		Expect(pid.Limit(0.25, -1, 1)).To(Equal(0.25))
		Expect(pid.Limit(1, -1, 1)).To(Equal(1.0))
		Expect(pid.Limit(-1, -1, 1)).To(Equal(-1.0))
	})

	Context("when low is above high", func() {
		It("returns high for anything above high", func() {
			Expect(pid.Limit(3, 5, 2)).To(Equal(2.0))
			Expect(pid.Limit(10, 5, 2)).To(Equal(2.0))
		})

		It("returns low for anything at or below high but below low", func() {
			Expect(pid.Limit(1, 5, 2)).To(Equal(5.0))
		})
	})
})
