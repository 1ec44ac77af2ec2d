package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// BundleState mirrors the states Fleet itself reports for a Bundle. The
// synthesizer never sets these, and no code in this module reads them.
type BundleState string

const (
	BundleReady       BundleState = "Ready"
	BundleNotReady    BundleState = "NotReady"
	BundleWaitApplied BundleState = "WaitApplied"
	BundleErrApplied  BundleState = "ErrApplied"
	BundlePending     BundleState = "Pending"
)

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// Bundle is the trimmed subset of fleet.cattle.io's Bundle resource the
// synthesizer writes: one per (Stack|Pipeline, chart|step), targeting the
// clusters resolved for its owner.
type Bundle struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BundleSpec   `json:"spec"`
	Status BundleStatus `json:"status,omitempty"`
}

// BundleSpec describes what to deploy (Helm) and where (Targets).
type BundleSpec struct {
	// TargetNamespace, when set, assigns every resource in the release to
	// this namespace regardless of the chart's own namespace scoping.
	TargetNamespace string `json:"namespace,omitempty"`

	// Helm carries the chart coordinates and merged values. Herd Bundles
	// are always Helm-based; Kustomize/raw-YAML options are out of scope.
	Helm *HelmOptions `json:"helm,omitempty"`

	// Targets refer to the clusters this Bundle is deployed to, evaluated
	// in order with the first match winning, matching Fleet's own
	// semantics.
	Targets []BundleTarget `json:"targets,omitempty"`

	// DependsOn refers to the Bundles which must be ready before this one
	// is applied, carrying the dependency scheduler's edges through into
	// Fleet's own dependency-aware rollout.
	DependsOn []BundleRef `json:"dependsOn,omitempty"`

	// Paused stops Fleet from rolling out further changes to this Bundle's
	// BundleDeployments while still reporting drift in status.
	Paused bool `json:"paused,omitempty"`
}

// BundleRef names a Bundle this one depends on.
type BundleRef struct {
	Name string `json:"name,omitempty"`
}

// BundleTarget matches a set of downstream clusters by name or label and
// carries that cluster's own rendered Helm values, mirroring the teacher's
// BundleTarget embedding BundleDeploymentOptions: Fleet merges per-target
// overrides onto the Bundle-wide defaults, and the per-cluster values a
// chart's valuesmerge.Merger produces are exactly such an override.
type BundleTarget struct {
	Name            string                `json:"name,omitempty"`
	ClusterName     string                `json:"clusterName,omitempty"`
	ClusterSelector *metav1.LabelSelector `json:"clusterSelector,omitempty"`
	Values          *GenericMap           `json:"values,omitempty"`
	Labels          map[string]string     `json:"labels,omitempty"`
	Annotations     map[string]string     `json:"annotations,omitempty"`
}

// HelmOptions is the trimmed subset of Fleet's Helm deployment options the
// synthesizer needs: chart coordinates, release name, values and a
// deployment timeout. Kustomize/raw-YAML sibling options are dropped since
// herd Bundles are exclusively Helm releases.
type HelmOptions struct {
	Chart          string      `json:"chart,omitempty"`
	Repo           string      `json:"repo,omitempty"`
	ReleaseName    string      `json:"releaseName,omitempty"`
	Version        string      `json:"version,omitempty"`
	Values         *GenericMap `json:"values,omitempty"`
	TimeoutSeconds int         `json:"timeoutSeconds,omitempty"`
	WaitForJobs    bool        `json:"waitForJobs,omitempty"`
	Atomic         bool        `json:"atomic,omitempty"`
}

// BundleSummary tallies BundleDeployments by state, mirroring Fleet's own
// per-Bundle rollup used in status and display.
type BundleSummary struct {
	Ready        int `json:"ready"`
	NotReady     int `json:"notReady,omitempty"`
	WaitApplied  int `json:"waitApplied,omitempty"`
	ErrApplied   int `json:"errApplied,omitempty"`
	Pending      int `json:"pending,omitempty"`
	DesiredReady int `json:"desiredReady"`
}

// BundleStatus reports Fleet's view of the Bundle's rollout. Conditions use
// the standard metav1.Condition type rather than Fleet's legacy
// genericcondition wrapper: Bundles synthesized here are always created and
// read back through a controller-runtime client, which standardizes on
// metav1.Condition.
type BundleStatus struct {
	Conditions         []metav1.Condition `json:"conditions,omitempty"`
	Summary            BundleSummary      `json:"summary,omitempty"`
	ObservedGeneration int64              `json:"observedGeneration"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// BundleList is a list of Bundle resources.
type BundleList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Bundle `json:"items"`
}
