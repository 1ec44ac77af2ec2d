package v1alpha1_test

import (
	v1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newPipeline(steps ...v1alpha1.StepSpec) *v1alpha1.Pipeline {
	return &v1alpha1.Pipeline{
		ObjectMeta: metav1.ObjectMeta{Name: "ingest", Namespace: "default"},
		Spec: v1alpha1.PipelineSpec{
			Targets: v1alpha1.Targets{ClusterIDs: []string{"c1"}},
			Steps:   steps,
		},
	}
}

var _ = Describe("Pipeline.Validate", func() {
	It("rejects an empty step list", func() {
		p := newPipeline()
		Expect(p.Validate()).To(HaveOccurred())
	})

	It("rejects duplicate step names", func() {
		p := newPipeline(
			v1alpha1.StepSpec{Name: "load", Type: v1alpha1.StepTypeIngestion},
			v1alpha1.StepSpec{Name: "load", Type: v1alpha1.StepTypeIngestion},
		)
		Expect(p.Validate()).To(HaveOccurred())
	})

	It("rejects an unknown step type", func() {
		p := newPipeline(v1alpha1.StepSpec{Name: "load", Type: v1alpha1.StepType("transform")})
		Expect(p.Validate()).To(HaveOccurred())
	})

	It("accepts a well-formed spec", func() {
		p := newPipeline(
			v1alpha1.StepSpec{Name: "load", Type: v1alpha1.StepTypeIngestion},
			v1alpha1.StepSpec{Name: "embed", Type: v1alpha1.StepTypeVectorDB, DependsOn: []string{"load"}},
		)
		Expect(p.Validate()).To(Succeed())
	})
})
