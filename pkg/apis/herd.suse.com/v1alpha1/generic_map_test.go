package v1alpha1_test

import (
	"encoding/json"

	v1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GenericMap", func() {
	It("round-trips nested values", func() {
		raw := []byte(`{"replicas":3,"nested":{"list":[1,"two",{"three":true}]}}`)
		var gm v1alpha1.GenericMap
		Expect(json.Unmarshal(raw, &gm)).To(Succeed())
		Expect(gm.Data["replicas"]).To(BeNumerically("==", 3))

		out, err := json.Marshal(gm)
		Expect(err).NotTo(HaveOccurred())

		var roundTripped map[string]interface{}
		Expect(json.Unmarshal(out, &roundTripped)).To(Succeed())
		Expect(roundTripped).To(Equal(gm.Data))
	})

	It("marshals a nil map as null", func() {
		var gm v1alpha1.GenericMap
		gm.Data = nil
		out, err := json.Marshal(gm)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("null"))
	})

	It("unmarshals null into an empty, non-nil map", func() {
		var gm v1alpha1.GenericMap
		Expect(json.Unmarshal([]byte("null"), &gm)).To(Succeed())
		Expect(gm.Data).NotTo(BeNil())
		Expect(gm.Data).To(BeEmpty())
	})

	It("deep-copies nested maps and slices independently", func() {
		gm := v1alpha1.GenericMap{Data: map[string]interface{}{
			"nested": map[string]interface{}{"a": 1},
			"list":   []interface{}{1, 2, 3},
		}}
		cp := gm.DeepCopy()

		nested := cp.Data["nested"].(map[string]interface{})
		nested["a"] = 99
		Expect(gm.Data["nested"].(map[string]interface{})["a"]).To(Equal(1))

		list := cp.Data["list"].([]interface{})
		list[0] = 100
		Expect(gm.Data["list"].([]interface{})[0]).To(Equal(1))
	})
})
