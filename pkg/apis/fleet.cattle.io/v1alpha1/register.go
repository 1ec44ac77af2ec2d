// Package v1alpha1 contains a trimmed subset of the Fleet
// (fleet.cattle.io/v1alpha1) wire types: only what the herd controller's
// Bundle synthesizer and status aggregator need to produce and observe
// Bundles and BundleDeployments. The full schema is owned by Fleet itself
// and is out of scope here (spec.md §1).
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const GroupName = "fleet.cattle.io"

var GroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1alpha1"}

var SchemeBuilder = runtime.NewSchemeBuilder(addKnownTypes)

var AddToScheme = SchemeBuilder.AddToScheme

func addKnownTypes(scheme *runtime.Scheme) error {
	scheme.AddKnownTypes(GroupVersion,
		&Bundle{},
		&BundleList{},
		&BundleDeployment{},
		&BundleDeploymentList{},
	)
	metav1.AddToGroupVersion(scheme, GroupVersion)
	return nil
}

// Fleet workspace namespaces.
const (
	WorkspaceLocal   = "fleet-local"
	WorkspaceDefault = "fleet-default"
)

// Owner labels applied to every Bundle/marker object the synthesizer writes,
// used for both garbage collection on deletion and reaping of charts removed
// from spec.charts (spec.md §4.4 "Reaping").
const (
	LabelOwnerKind      = "herd.suse.com/owner-kind"
	LabelOwnerName      = "herd.suse.com/owner-name"
	LabelOwnerNamespace = "herd.suse.com/owner-namespace"
	LabelChart          = "herd.suse.com/chart"

	// AnnotationContentHash stores the sha256 of the canonical Bundle spec
	// encoding, letting apply skip no-op updates (spec.md §4.4 "Idempotence").
	AnnotationContentHash = "herd.suse.com/content-hash"
)

// Labels Fleet itself sets on every BundleDeployment it creates for a
// Bundle, used by the reconciler's readiness check to list per-cluster
// rollout state.
const (
	BundleLabel          = "fleet.cattle.io/bundle-name"
	BundleNamespaceLabel = "fleet.cattle.io/bundle-namespace"
)
