package v1alpha1

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// Stack is a declarative bundle of Helm charts deployed across a resolved
// set of clusters.
type Stack struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   StackSpec      `json:"spec"`
	Status WorkloadStatus `json:"status,omitempty"`
}

// StackSpec is the desired state of a Stack.
type StackSpec struct {
	Env           Environment   `json:"env,omitempty"`
	Security      FeatureToggle `json:"security,omitempty"`
	Observability FeatureToggle `json:"observability,omitempty"`
	Targets       Targets       `json:"targets"`
	Charts        []ChartSpec   `json:"charts"`
	// Paused stops the synthesizer from applying or updating Bundles while
	// still resolving targets and writing status.
	Paused bool `json:"paused,omitempty"`
}

// Validate performs the admission-time checks spec.md §6 requires:
// non-empty charts, unique chart names, and a well-formed Targets union.
func (s *Stack) Validate() error {
	if len(s.Spec.Charts) == 0 {
		return fmt.Errorf("herd: stack %s/%s: spec.charts must not be empty", s.Namespace, s.Name)
	}
	if err := s.Spec.Targets.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(s.Spec.Charts))
	for _, c := range s.Spec.Charts {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("herd: stack %s/%s: duplicate chart name %q", s.Namespace, s.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// SetWorkloadStatus overwrites the Stack's status subresource, satisfying
// statusagg.StatusWriter.
func (s *Stack) SetWorkloadStatus(status WorkloadStatus) {
	s.Status = status
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// StackList is a list of Stack resources.
type StackList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Stack `json:"items"`
}
