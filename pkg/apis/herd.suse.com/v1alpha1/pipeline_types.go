package v1alpha1

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// Pipeline is a declarative DAG of typed steps deployed across the same
// targeting model as Stack.
type Pipeline struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PipelineSpec   `json:"spec"`
	Status WorkloadStatus `json:"status,omitempty"`
}

// PipelineSpec is the desired state of a Pipeline.
type PipelineSpec struct {
	Env           Environment   `json:"env,omitempty"`
	Security      FeatureToggle `json:"security,omitempty"`
	Observability FeatureToggle `json:"observability,omitempty"`
	Targets       Targets       `json:"targets"`
	Steps         []StepSpec    `json:"steps"`
	Paused        bool          `json:"paused,omitempty"`
}

// Validate performs the admission-time checks spec.md §6 requires:
// non-empty steps, unique step names, known step types, and a well-formed
// Targets union.
func (p *Pipeline) Validate() error {
	if len(p.Spec.Steps) == 0 {
		return fmt.Errorf("herd: pipeline %s/%s: spec.steps must not be empty", p.Namespace, p.Name)
	}
	if err := p.Spec.Targets.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(p.Spec.Steps))
	for _, s := range p.Spec.Steps {
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("herd: pipeline %s/%s: duplicate step name %q", p.Namespace, p.Name, s.Name)
		}
		seen[s.Name] = struct{}{}
		if err := s.Type.Validate(); err != nil {
			return fmt.Errorf("herd: pipeline %s/%s: step %q: %w", p.Namespace, p.Name, s.Name, err)
		}
	}
	return nil
}

// SetWorkloadStatus overwrites the Pipeline's status subresource, satisfying
// statusagg.StatusWriter.
func (p *Pipeline) SetWorkloadStatus(status WorkloadStatus) {
	p.Status = status
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// PipelineList is a list of Pipeline resources.
type PipelineList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Pipeline `json:"items"`
}
