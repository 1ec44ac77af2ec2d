package names_test

import (
	"fmt"
	"strings"

	"github.com/suse/herd-controller/internal/names"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Name", func() {
	type test struct {
		arg    string
		result string
		n      int
	}

	Context("Limit", func() {
		tests := []test{
			{arg: "1234567", n: 5, result: "12345"},
			{arg: "1234567", n: 6, result: "123456"},
			{arg: "1234567", n: 7, result: "1234567"},
			{arg: "1234567", n: 8, result: "1234567"},
			{arg: "12345678", n: 8, result: "12345678"},
			{arg: "12345678", n: 7, result: "1-25d55"},
			{arg: "123456789", n: 8, result: "12-25f9e"},
			{arg: "1-3456789", n: 8, result: "1-9b657"}, // no double dash in the result
		}

		It("matches expected results", func() {
			for _, t := range tests {
				r := names.Limit(t.arg, t.n)
				Expect(r).To(Equal(t.result), fmt.Sprintf("%#v", t))
			}
		})
	})

	Context("BundleName", func() {
		It("joins kind, resource name and chart name", func() {
			Expect(names.BundleName("Stack", "rag-demo", "vector-db")).To(Equal("stack-rag-demo-vector-db"))
		})

		It("lower-cases the resource kind", func() {
			Expect(names.BundleName("Pipeline", "ingest", "loader")).To(Equal("pipeline-ingest-loader"))
		})

		It("truncates to 63 characters and strips a trailing dash", func() {
			longChart := strings.Repeat("x", 80)
			result := names.BundleName("Stack", "demo", longChart)
			Expect(len(result)).To(BeNumerically("<=", 63))
			Expect(strings.HasSuffix(result, "-")).To(BeFalse())
		})
	})
})
