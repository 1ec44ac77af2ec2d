package rancherclient

import (
	"context"
	"fmt"

	"github.com/suse/herd-controller/internal/herderrors"
	"github.com/suse/herd-controller/internal/metrics"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// FleetClient wraps a controller-runtime client.Client for Bundle CRUD/list
// and the two toggle-driven marker outputs. One instance is constructed at
// startup and injected into every collaborator that needs it, rather than
// reached through a global — the teacher's own internal/client.Client
// design note, carried over unchanged.
type FleetClient struct {
	c client.Client
}

// NewFleetClient wraps an already-constructed controller-runtime client.
func NewFleetClient(c client.Client) *FleetClient {
	return &FleetClient{c: c}
}

// GetBundle fetches a Bundle by namespace/name, returning
// apierrors.IsNotFound(err) == true when absent.
func (f *FleetClient) GetBundle(ctx context.Context, key types.NamespacedName) (*fleetv1alpha1.Bundle, error) {
	bundle := &fleetv1alpha1.Bundle{}
	if err := f.c.Get(ctx, key, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// ListBundlesByOwner returns every Bundle labeled for the given owner,
// across both Fleet workspaces if namespace is empty.
func (f *FleetClient) ListBundlesByOwner(ctx context.Context, ownerKind, ownerNamespace, ownerName, namespace string) ([]fleetv1alpha1.Bundle, error) {
	list := &fleetv1alpha1.BundleList{}
	opts := []client.ListOption{
		client.MatchingLabels{
			fleetv1alpha1.LabelOwnerKind:      ownerKind,
			fleetv1alpha1.LabelOwnerNamespace: ownerNamespace,
			fleetv1alpha1.LabelOwnerName:      ownerName,
		},
	}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}
	if err := f.c.List(ctx, list, opts...); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// UpsertBundle creates the Bundle if absent, or updates it if the desired
// spec's content hash (stored in the AnnotationContentHash annotation)
// differs from what's stored. Returns true if a write was performed.
func (f *FleetClient) UpsertBundle(ctx context.Context, desired *fleetv1alpha1.Bundle) (wrote bool, err error) {
	existing := &fleetv1alpha1.Bundle{}
	getErr := f.c.Get(ctx, types.NamespacedName{Namespace: desired.Namespace, Name: desired.Name}, existing)
	switch {
	case apierrors.IsNotFound(getErr):
		if err := f.c.Create(ctx, desired); err != nil {
			return false, err
		}
		metrics.BundleWrites.WithLabelValues("create").Inc()
		return true, nil
	case getErr != nil:
		return false, getErr
	}

	if existing.Annotations[fleetv1alpha1.AnnotationContentHash] == desired.Annotations[fleetv1alpha1.AnnotationContentHash] {
		metrics.BundleWrites.WithLabelValues("noop").Inc()
		return false, nil
	}

	existing.Labels = desired.Labels
	existing.Annotations = desired.Annotations
	existing.Spec = desired.Spec
	if err := f.c.Update(ctx, existing); err != nil {
		if !apierrors.IsConflict(err) {
			return false, err
		}
		// Lost a resourceVersion race: refetch and retry the update once.
		if err := f.c.Get(ctx, client.ObjectKeyFromObject(desired), existing); err != nil {
			return false, err
		}
		existing.Labels = desired.Labels
		existing.Annotations = desired.Annotations
		existing.Spec = desired.Spec
		if err := f.c.Update(ctx, existing); err != nil {
			if apierrors.IsConflict(err) {
				return false, fmt.Errorf("%w: %v", herderrors.ErrBundleApplyConflict, err)
			}
			return false, err
		}
	}
	metrics.BundleWrites.WithLabelValues("update").Inc()
	return true, nil
}

// DeleteBundle removes a Bundle, tolerating it already being gone.
func (f *FleetClient) DeleteBundle(ctx context.Context, bundle *fleetv1alpha1.Bundle) error {
	if err := f.c.Delete(ctx, bundle); err != nil {
		return client.IgnoreNotFound(err)
	}
	return nil
}

// ListBundleDeployments returns the BundleDeployments for a given Bundle,
// the per-cluster rollout records the reconciler's readiness check reads.
func (f *FleetClient) ListBundleDeployments(ctx context.Context, bundleNamespace, bundleName string) ([]fleetv1alpha1.BundleDeployment, error) {
	list := &fleetv1alpha1.BundleDeploymentList{}
	err := f.c.List(ctx, list, client.MatchingLabels{
		fleetv1alpha1.BundleLabel:          bundleName,
		fleetv1alpha1.BundleNamespaceLabel: bundleNamespace,
	})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Marker kinds for the two toggle-driven auxiliary outputs (spec.md §6).
// Both are opaque to this controller: the payload is a single kind
// annotation, since no consumer of these markers exists in-repo.
const (
	MarkerKindNeuVectorScan       = "NeuVectorScan"
	MarkerKindObservabilityConfig = "ObservabilityConfig"

	annotationMarkerKind = "herd.suse.com/marker-kind"
)

// EmitMarker creates-or-updates an opaque marker ConfigMap keyed on owner,
// used for the NeuVectorScan and ObservabilityConfig toggle outputs. The
// ConfigMap is empty beyond its owner labels and marker-kind annotation:
// the real scan/config payload is produced by the out-of-scope collaborator
// this marker signals to run.
func (f *FleetClient) EmitMarker(ctx context.Context, kind, namespace, name, ownerKind, ownerNamespace, ownerName string) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			Labels: map[string]string{
				fleetv1alpha1.LabelOwnerKind:      ownerKind,
				fleetv1alpha1.LabelOwnerNamespace: ownerNamespace,
				fleetv1alpha1.LabelOwnerName:      ownerName,
			},
			Annotations: map[string]string{
				annotationMarkerKind: kind,
			},
		},
	}

	existing := &corev1.ConfigMap{}
	err := f.c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, existing)
	switch {
	case apierrors.IsNotFound(err):
		return f.c.Create(ctx, cm)
	case err != nil:
		return err
	default:
		existing.Labels = cm.Labels
		existing.Annotations = cm.Annotations
		return f.c.Update(ctx, existing)
	}
}
