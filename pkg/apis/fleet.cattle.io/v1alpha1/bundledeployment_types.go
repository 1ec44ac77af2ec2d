package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// BundleDeployment is Fleet's per-cluster instantiation of a Bundle. The
// herd controller never writes these directly; it lists them (scoped by
// Fleet's BundleLabel/BundleNamespaceLabel) to check whether a Bundle's
// per-cluster rollouts are Ready.
type BundleDeployment struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BundleDeploymentSpec   `json:"spec,omitempty"`
	Status BundleDeploymentStatus `json:"status,omitempty"`
}

// BundleDeploymentSpec identifies which Bundle and cluster this deployment
// was created for.
type BundleDeploymentSpec struct {
	DeploymentID string `json:"deploymentID,omitempty"`
}

// BundleDeploymentStatus reports whether this cluster's release has reached
// the desired state.
type BundleDeploymentStatus struct {
	AppliedDeploymentID string             `json:"appliedDeploymentID,omitempty"`
	Ready               bool               `json:"ready,omitempty"`
	NonModified         bool               `json:"nonModified,omitempty"`
	Conditions          []metav1.Condition `json:"conditions,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// BundleDeploymentList is a list of BundleDeployment resources.
type BundleDeploymentList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []BundleDeployment `json:"items"`
}
