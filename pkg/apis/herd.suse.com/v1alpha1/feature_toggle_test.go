package v1alpha1_test

import (
	"encoding/json"

	v1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FeatureToggle", func() {
	DescribeTable("unmarshals accepted spellings",
		func(raw string, want bool) {
			var f v1alpha1.FeatureToggle
			Expect(json.Unmarshal([]byte(raw), &f)).To(Succeed())
			Expect(f.Enabled()).To(Equal(want))
		},
		Entry("bare true", `true`, true),
		Entry("bare false", `false`, false),
		Entry(`"enabled"`, `"enabled"`, true),
		Entry(`"Enabled"`, `"Enabled"`, true),
		Entry(`"disabled"`, `"disabled"`, false),
		Entry(`"true"`, `"true"`, true),
		Entry(`"false"`, `"false"`, false),
		Entry(`""`, `""`, false),
		Entry("null", `null`, false),
	)

	It("rejects unrecognized strings", func() {
		var f v1alpha1.FeatureToggle
		Expect(json.Unmarshal([]byte(`"maybe"`), &f)).To(HaveOccurred())
	})

	It("always marshals as a bare boolean", func() {
		out, err := json.Marshal(v1alpha1.FeatureToggle(true))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("true"))
	})
})
