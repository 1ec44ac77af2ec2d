package v1alpha1

import (
	"errors"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Environment selects the implicit env-overlay ConfigMap herd-env-{env}.
type Environment string

const (
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// EnvOverlayConfigMapName returns the name of the ConfigMap holding the
// environment overlay values for env, e.g. "herd-env-prod".
func EnvOverlayConfigMapName(env Environment) string {
	return "herd-env-" + string(env)
}

// Targets is a tagged union: exactly one of ClusterIDs or Selector must be
// set. Modeled as two optional fields rather than a discriminated wrapper
// because that's what the Kubernetes API convention for "one of" fields
// looks like (see e.g. corev1.VolumeSource).
type Targets struct {
	// ClusterIDs explicitly lists downstream cluster identifiers.
	ClusterIDs []string `json:"clusterIds,omitempty"`
	// Selector matches clusters whose labels are a superset of MatchLabels.
	Selector *metav1.LabelSelector `json:"selector,omitempty"`
}

// ErrTargetsBothSet is returned when both forms of Targets are populated.
var ErrTargetsBothSet = errors.New("herd: targets: exactly one of clusterIds or selector must be set, both are set")

// ErrTargetsNoneSet is returned when neither form of Targets is populated.
var ErrTargetsNoneSet = errors.New("herd: targets: exactly one of clusterIds or selector must be set, neither is set")

// Validate enforces the "exactly one of" invariant on Targets.
func (t Targets) Validate() error {
	hasIDs := len(t.ClusterIDs) > 0
	hasSelector := t.Selector != nil && len(t.Selector.MatchLabels) > 0
	switch {
	case hasIDs && hasSelector:
		return ErrTargetsBothSet
	case !hasIDs && !hasSelector:
		return ErrTargetsNoneSet
	default:
		return nil
	}
}

// ValueRef names a ConfigMap or Secret in the owning resource's namespace.
type ValueRef struct {
	Name string `json:"name"`
}

// ValuesSource is the union of value origins a chart or step may draw from.
// All fields may be set simultaneously; precedence among them is fixed by
// the values merger, not by this type.
type ValuesSource struct {
	// ConfigMapRefs are applied in declared order, lowest precedence.
	ConfigMapRefs []ValueRef `json:"configMapRefs,omitempty"`
	// PerClusterConfigMapRef keys its data by "{clusterId}.yaml".
	PerClusterConfigMapRef *ValueRef `json:"perClusterConfigMapRef,omitempty"`
	// SecretRefs are applied in declared order, after the per-cluster overlay.
	SecretRefs []ValueRef `json:"secretRefs,omitempty"`
	// Inline has the highest precedence of all value sources.
	Inline *GenericMap `json:"inline,omitempty"`
}

func (in *ValuesSource) DeepCopyInto(out *ValuesSource) {
	*out = *in
	if in.ConfigMapRefs != nil {
		out.ConfigMapRefs = make([]ValueRef, len(in.ConfigMapRefs))
		copy(out.ConfigMapRefs, in.ConfigMapRefs)
	}
	if in.SecretRefs != nil {
		out.SecretRefs = make([]ValueRef, len(in.SecretRefs))
		copy(out.SecretRefs, in.SecretRefs)
	}
	if in.PerClusterConfigMapRef != nil {
		ref := *in.PerClusterConfigMapRef
		out.PerClusterConfigMapRef = &ref
	}
	if in.Inline != nil {
		out.Inline = in.Inline.DeepCopy()
	}
}

// DefaultChartTimeout is applied to a ChartSpec/StepSpec with no Timeout set.
const DefaultChartTimeout = 10 * time.Minute

// ChartSpec describes one Helm chart within a Stack.
type ChartSpec struct {
	// Name must be unique within the Stack's charts list.
	Name string `json:"name"`
	// ReleaseName is the Helm release name used on each target cluster.
	ReleaseName string `json:"releaseName,omitempty"`
	// Namespace is the target namespace of the Helm release.
	Namespace string `json:"namespace,omitempty"`
	// Repo is the chart repository URL.
	Repo string `json:"repo"`
	// Version is the chart version constraint.
	Version string `json:"version,omitempty"`
	// Values selects and layers value sources for this chart.
	Values ValuesSource `json:"values,omitempty"`
	// DependsOn lists chart names that must reach Deployed before this
	// chart becomes ready to apply.
	DependsOn []string `json:"dependsOn,omitempty"`
	// Wait, if true, makes dependents wait for this chart's
	// BundleDeployments to reach Ready rather than merely Applied.
	Wait bool `json:"wait,omitempty"`
	// Timeout bounds how long the scheduler waits for this chart to
	// become Ready after first apply. Defaults to 10 minutes.
	Timeout *metav1.Duration `json:"timeout,omitempty"`
	// Labels are merged onto the rendered Bundle target for this chart.
	Labels map[string]string `json:"labels,omitempty"`
	// Annotations are merged onto the rendered Bundle target for this chart.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// TimeoutOrDefault returns Timeout if set, else DefaultChartTimeout.
func (c ChartSpec) TimeoutOrDefault() time.Duration {
	if c.Timeout == nil || c.Timeout.Duration <= 0 {
		return DefaultChartTimeout
	}
	return c.Timeout.Duration
}

func (in *ChartSpec) DeepCopyInto(out *ChartSpec) {
	*out = *in
	in.Values.DeepCopyInto(&out.Values)
	if in.DependsOn != nil {
		out.DependsOn = make([]string, len(in.DependsOn))
		copy(out.DependsOn, in.DependsOn)
	}
	if in.Timeout != nil {
		t := *in.Timeout
		out.Timeout = &t
	}
	out.Labels = copyStringMap(in.Labels)
	out.Annotations = copyStringMap(in.Annotations)
}

// StepType is a closed enumeration of pipeline step kinds.
type StepType string

const (
	StepTypeIngestion StepType = "ingestion"
	StepTypeVectorDB  StepType = "vector-db"
	StepTypeLLM       StepType = "llm"
	StepTypeService   StepType = "service"
)

// Validate rejects any StepType outside the closed enumeration.
func (s StepType) Validate() error {
	switch s {
	case StepTypeIngestion, StepTypeVectorDB, StepTypeLLM, StepTypeService:
		return nil
	default:
		return fmt.Errorf("herd: unknown step type %q", string(s))
	}
}

// StepSpec describes one node of a Pipeline's DAG. Config is opaque to the
// core reconciliation engine; its interpretation belongs to the step-type
// specific collaborator (ingestion loader, vector-db provisioner, ...).
type StepSpec struct {
	Name      string      `json:"name"`
	Type      StepType    `json:"type"`
	Config    *GenericMap `json:"config,omitempty"`
	DependsOn []string    `json:"dependsOn,omitempty"`
	Timeout   *metav1.Duration `json:"timeout,omitempty"`
	Retries   int         `json:"retries,omitempty"`
}

// TimeoutOrDefault returns Timeout if set, else DefaultChartTimeout.
func (s StepSpec) TimeoutOrDefault() time.Duration {
	if s.Timeout == nil || s.Timeout.Duration <= 0 {
		return DefaultChartTimeout
	}
	return s.Timeout.Duration
}

func (in *StepSpec) DeepCopyInto(out *StepSpec) {
	*out = *in
	if in.Config != nil {
		out.Config = in.Config.DeepCopy()
	}
	if in.DependsOn != nil {
		out.DependsOn = make([]string, len(in.DependsOn))
		copy(out.DependsOn, in.DependsOn)
	}
	if in.Timeout != nil {
		t := *in.Timeout
		out.Timeout = &t
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
