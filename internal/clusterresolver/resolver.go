// Package clusterresolver turns a Targets union into the concrete set of
// clusters a Stack or Pipeline deploys to, classifying each into its Fleet
// workspace. Grounded on the teacher's cluster matching
// (internal/cmd/controller/target/matcher/clustermatcher.go), which builds
// a label selector from metav1.LabelSelectorAsSelector and matches against
// labels.Set — the same superset-matching semantics this resolver needs
// for targets.selector.
package clusterresolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/suse/herd-controller/internal/herderrors"
	"github.com/suse/herd-controller/internal/rancherclient"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// ResolvedCluster is one cluster a Bundle will target, plus the Fleet
// workspace it belongs to.
type ResolvedCluster struct {
	ID        string
	Labels    map[string]string
	Workspace string
}

// Warning is a non-fatal condition surfaced during resolution, such as an
// unknown cluster id in targets.clusterIds.
type Warning struct {
	Code    string
	Message string
}

// ClusterLister is the subset of rancherclient.ManagementClient the
// resolver needs; declared as an interface so tests can substitute a
// fixed inventory without standing up an HTTP server.
type ClusterLister interface {
	ListClusters(ctx context.Context) ([]rancherclient.ManagementCluster, error)
}

// Resolver resolves a Targets union against the live Rancher cluster
// inventory.
type Resolver struct {
	Clusters ClusterLister
}

// New builds a Resolver backed by the given cluster lister.
func New(clusters ClusterLister) *Resolver {
	return &Resolver{Clusters: clusters}
}

func workspaceFor(c rancherclient.ManagementCluster) string {
	if c.IsLocal() {
		return fleetv1alpha1.WorkspaceLocal
	}
	return fleetv1alpha1.WorkspaceDefault
}

// Resolve implements the contract from spec.md §4.1: exactly one of
// targets.clusterIds or targets.selector is expected to be set (the caller
// validates this via Targets.Validate before calling Resolve). The
// returned slice is sorted by ID for determinism (invariant 1, spec.md §8).
func (r *Resolver) Resolve(ctx context.Context, targets herdv1alpha1.Targets) ([]ResolvedCluster, []Warning, error) {
	all, err := r.Clusters.ListClusters(ctx)
	if err != nil {
		return nil, nil, err
	}

	active := make([]rancherclient.ManagementCluster, 0, len(all))
	for _, c := range all {
		if c.IsActive() {
			active = append(active, c)
		}
	}

	var (
		resolved []ResolvedCluster
		warnings []Warning
	)

	switch {
	case len(targets.ClusterIDs) > 0:
		resolved, warnings, err = resolveByIDs(active, targets.ClusterIDs)
	case targets.Selector != nil && len(targets.Selector.MatchLabels) > 0:
		resolved, err = resolveBySelector(active, targets.Selector)
	default:
		return nil, nil, herderrors.ErrEmptySelector
	}
	if err != nil {
		return nil, nil, err
	}

	if len(resolved) == 0 {
		return nil, warnings, herderrors.ErrNoTargets
	}

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].ID < resolved[j].ID })
	return resolved, warnings, nil
}

func resolveByIDs(active []rancherclient.ManagementCluster, ids []string) ([]ResolvedCluster, []Warning, error) {
	byID := make(map[string]rancherclient.ManagementCluster, len(active))
	for _, c := range active {
		byID[c.ID] = c
	}

	var (
		resolved []ResolvedCluster
		warnings []Warning
	)
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			warnings = append(warnings, Warning{
				Code:    "UnknownClusterID",
				Message: fmt.Sprintf("herd: cluster id %q not found or not active", id),
			})
			continue
		}
		resolved = append(resolved, ResolvedCluster{ID: c.ID, Labels: c.Labels, Workspace: workspaceFor(c)})
	}
	return resolved, warnings, nil
}

func resolveBySelector(active []rancherclient.ManagementCluster, sel *metav1.LabelSelector) ([]ResolvedCluster, error) {
	selector, err := metav1.LabelSelectorAsSelector(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", herderrors.ErrValidation, err)
	}

	var resolved []ResolvedCluster
	for _, c := range active {
		if selector.Matches(labels.Set(c.Labels)) {
			resolved = append(resolved, ResolvedCluster{ID: c.ID, Labels: c.Labels, Workspace: workspaceFor(c)})
		}
	}
	return resolved, nil
}
