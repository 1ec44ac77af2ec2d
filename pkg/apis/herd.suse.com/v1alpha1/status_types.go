package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Phase is the coarse-grained lifecycle state of a Stack or Pipeline.
type Phase string

const (
	PhasePending   Phase = "Pending"
	PhaseDeploying Phase = "Deploying"
	PhaseDeployed  Phase = "Deployed"
	PhaseFailed    Phase = "Failed"
)

// DeploymentState is the per-(chart|step, cluster) deployment state.
type DeploymentState string

const (
	DeploymentPending   DeploymentState = "Pending"
	DeploymentDeploying DeploymentState = "Deploying"
	DeploymentDeployed  DeploymentState = "Deployed"
	DeploymentFailed    DeploymentState = "Failed"
	DeploymentBlocked   DeploymentState = "Blocked"
)

// Condition types written to status.conditions.
const (
	ConditionReady                   = "Ready"
	ConditionSecurityScanned         = "SecurityScanned"
	ConditionObservabilityConfigured = "ObservabilityConfigured"
)

// Condition/status reasons.
const (
	ReasonCycleDetected       = "CycleDetected"
	ReasonNoTargets           = "NoTargets"
	ReasonEmptySelector       = "EmptySelector"
	ReasonMissingValueSource  = "MissingValueSource"
	ReasonParseFailure        = "ParseFailure"
	ReasonTimeoutExpired      = "TimeoutExpired"
	ReasonBundleApplyConflict = "BundleApplyConflict"
	ReasonAllDeployed         = "AllDeployed"
	ReasonDeploying           = "Deploying"
	ReasonNotConfigured       = "NotConfigured"
	ReasonScanComplete        = "ScanComplete"
	ReasonConfigured          = "Configured"
	ReasonValidationFailed    = "ValidationFailed"
	ReasonReconcileError      = "ReconcileError"
)

// Finalizer is set on every Stack and Pipeline so the reconciler can reap
// their synthesized Bundles before the object is actually removed.
const Finalizer = "herd.suse.com/finalizer"

// DeploymentObservation is a single (chart|step, cluster) data point
// derived by the reconciler from the scheduler's node states and rolled up
// by the status aggregator.
type DeploymentObservation struct {
	ChartName   string          `json:"chartName"`
	ClusterID   string          `json:"clusterId"`
	Status      DeploymentState `json:"status"`
	LastUpdated metav1.Time     `json:"lastUpdated,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func (in *DeploymentObservation) DeepCopyInto(out *DeploymentObservation) {
	*out = *in
	in.LastUpdated.DeepCopyInto(&out.LastUpdated)
}

// SecurityStatus is populated only when StackSpec.Security is enabled.
type SecurityStatus struct {
	ScanStatus      string `json:"scanStatus,omitempty"`
	Vulnerabilities int    `json:"vulnerabilities,omitempty"`
	CriticalIssues  int    `json:"criticalIssues,omitempty"`
}

// ObservabilityStatus is populated only when StackSpec.Observability is enabled.
type ObservabilityStatus struct {
	MetricsCollected    bool `json:"metricsCollected,omitempty"`
	DashboardsAvailable bool `json:"dashboardsAvailable,omitempty"`
	AlertsConfigured    bool `json:"alertsConfigured,omitempty"`
}

// WorkloadStatus is the status subresource shape shared by Stack and
// Pipeline: both roll up to the same phase/condition/deployment model.
type WorkloadStatus struct {
	// ObservedGeneration is the generation last reconciled to completion.
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// Phase is the coarse lifecycle state computed by the status aggregator.
	Phase Phase `json:"phase,omitempty"`
	// Message carries the most recent human-readable summary.
	Message string `json:"message,omitempty"`
	// Deployments has one entry per (chartName, clusterId).
	Deployments []DeploymentObservation `json:"deployments,omitempty"`
	// Conditions carries the structured condition history.
	Conditions []metav1.Condition `json:"conditions,omitempty"`
	// TargetClusters is the sorted set of resolved cluster ids.
	TargetClusters []string `json:"targetClusters,omitempty"`
	// Security is set only when the security toggle is enabled.
	Security *SecurityStatus `json:"security,omitempty"`
	// Observability is set only when the observability toggle is enabled.
	Observability *ObservabilityStatus `json:"observability,omitempty"`
}

func (in *WorkloadStatus) DeepCopyInto(out *WorkloadStatus) {
	*out = *in
	if in.Deployments != nil {
		out.Deployments = make([]DeploymentObservation, len(in.Deployments))
		for i := range in.Deployments {
			in.Deployments[i].DeepCopyInto(&out.Deployments[i])
		}
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
	if in.TargetClusters != nil {
		out.TargetClusters = make([]string, len(in.TargetClusters))
		copy(out.TargetClusters, in.TargetClusters)
	}
	if in.Security != nil {
		sec := *in.Security
		out.Security = &sec
	}
	if in.Observability != nil {
		obs := *in.Observability
		out.Observability = &obs
	}
}
