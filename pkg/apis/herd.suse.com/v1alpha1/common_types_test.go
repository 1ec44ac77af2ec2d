package v1alpha1_test

import (
	v1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Targets", func() {
	It("rejects neither clusterIds nor selector set", func() {
		Expect(v1alpha1.Targets{}.Validate()).To(MatchError(v1alpha1.ErrTargetsNoneSet))
	})

	It("rejects both clusterIds and selector set", func() {
		t := v1alpha1.Targets{
			ClusterIDs: []string{"c1"},
			Selector:   &metav1.LabelSelector{MatchLabels: map[string]string{"env": "prod"}},
		}
		Expect(t.Validate()).To(MatchError(v1alpha1.ErrTargetsBothSet))
	})

	It("accepts clusterIds alone", func() {
		t := v1alpha1.Targets{ClusterIDs: []string{"c1", "c2"}}
		Expect(t.Validate()).To(Succeed())
	})

	It("accepts a non-empty selector alone", func() {
		t := v1alpha1.Targets{Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"env": "prod"}}}
		Expect(t.Validate()).To(Succeed())
	})

	It("treats an empty selector as unset", func() {
		t := v1alpha1.Targets{Selector: &metav1.LabelSelector{}}
		Expect(t.Validate()).To(MatchError(v1alpha1.ErrTargetsNoneSet))
	})
})

var _ = Describe("StepType", func() {
	DescribeTable("Validate",
		func(st v1alpha1.StepType, wantErr bool) {
			err := st.Validate()
			if wantErr {
				Expect(err).To(HaveOccurred())
			} else {
				Expect(err).NotTo(HaveOccurred())
			}
		},
		Entry("ingestion", v1alpha1.StepTypeIngestion, false),
		Entry("vector-db", v1alpha1.StepTypeVectorDB, false),
		Entry("llm", v1alpha1.StepTypeLLM, false),
		Entry("service", v1alpha1.StepTypeService, false),
		Entry("unknown", v1alpha1.StepType("transform"), true),
	)
})

var _ = Describe("ChartSpec.TimeoutOrDefault", func() {
	It("returns the default when unset", func() {
		Expect(v1alpha1.ChartSpec{}.TimeoutOrDefault()).To(Equal(v1alpha1.DefaultChartTimeout))
	})

	It("returns the configured timeout when set", func() {
		d := metav1.Duration{Duration: 5 * v1alpha1.DefaultChartTimeout}
		cs := v1alpha1.ChartSpec{Timeout: &d}
		Expect(cs.TimeoutOrDefault()).To(Equal(d.Duration))
	})
})
