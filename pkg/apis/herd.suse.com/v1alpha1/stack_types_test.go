package v1alpha1_test

import (
	v1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newStack(charts ...v1alpha1.ChartSpec) *v1alpha1.Stack {
	return &v1alpha1.Stack{
		ObjectMeta: metav1.ObjectMeta{Name: "rag-demo", Namespace: "default"},
		Spec: v1alpha1.StackSpec{
			Targets: v1alpha1.Targets{ClusterIDs: []string{"c1"}},
			Charts:  charts,
		},
	}
}

var _ = Describe("Stack.Validate", func() {
	It("rejects an empty chart list", func() {
		s := newStack()
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("rejects duplicate chart names", func() {
		s := newStack(
			v1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example/"},
			v1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example/"},
		)
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("rejects an invalid Targets union", func() {
		s := newStack(v1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example/"})
		s.Spec.Targets = v1alpha1.Targets{}
		Expect(s.Validate()).To(MatchError(v1alpha1.ErrTargetsNoneSet))
	})

	It("accepts a well-formed spec", func() {
		s := newStack(
			v1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example/"},
			v1alpha1.ChartSpec{Name: "api", Repo: "https://charts.example/", DependsOn: []string{"vector-db"}},
		)
		Expect(s.Validate()).To(Succeed())
	})
})

var _ = Describe("Stack deep copy", func() {
	It("produces an independent copy of Spec.Charts", func() {
		s := newStack(v1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example/", Labels: map[string]string{"a": "b"}})
		cp := s.DeepCopy()
		cp.Spec.Charts[0].Labels["a"] = "mutated"
		Expect(s.Spec.Charts[0].Labels["a"]).To(Equal("b"))
	})
})
