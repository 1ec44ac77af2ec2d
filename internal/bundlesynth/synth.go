// Package bundlesynth turns one resolved chart (or pipeline step) into
// Fleet Bundles: one per Fleet workspace its resolved clusters span,
// applied idempotently and reaped once its owner no longer declares it.
// Grounded on internal/cmd/controller/target/target.go's Bundle-
// construction path and internal/cmd/controller/options/calculate.go's
// DeploymentID content-hash idiom.
package bundlesynth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/names"
	"github.com/suse/herd-controller/internal/rancherclient"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Owner identifies the Stack or Pipeline a Bundle belongs to, carried into
// the owner labels every synthesized Bundle and marker ConfigMap uses for
// lookup and reaping.
type Owner struct {
	Kind      string
	Namespace string
	Name      string
}

// BundleKey names one synthesized Bundle.
type BundleKey struct {
	Namespace string
	Name      string
}

// Synthesizer applies the Fleet Bundle(s) for one chart and reaps stale
// ones for charts no longer declared by the owner.
type Synthesizer struct {
	Fleet *rancherclient.FleetClient
}

// New builds a Synthesizer backed by the given Fleet client façade.
func New(fleet *rancherclient.FleetClient) *Synthesizer {
	return &Synthesizer{Fleet: fleet}
}

// Apply synthesizes and upserts one Bundle per Fleet workspace the chart's
// resolved clusters span (spec.md §4.4: a Stack/Pipeline whose clusters
// span both fleet-default and fleet-local produces two Bundles). valuesByCluster
// holds one rendered values map per cluster ID, as produced by
// internal/valuesmerge. Returns the keys of every Bundle written or
// confirmed unchanged, newest-first undefined — callers that need
// determinism should sort.
func (s *Synthesizer) Apply(ctx context.Context, owner Owner, chart herdv1alpha1.ChartSpec, clusters []clusterresolver.ResolvedCluster, valuesByCluster map[string]map[string]interface{}, dependsOn []string) ([]BundleKey, error) {
	byWorkspace := partitionByWorkspace(clusters)

	var keys []BundleKey
	for workspace, workspaceClusters := range byWorkspace {
		bundle := buildBundle(owner, chart, workspace, workspaceClusters, valuesByCluster, dependsOn)
		if _, err := s.Fleet.UpsertBundle(ctx, bundle); err != nil {
			return nil, fmt.Errorf("herd: synthesizing bundle %s/%s: %w", bundle.Namespace, bundle.Name, err)
		}
		keys = append(keys, BundleKey{Namespace: bundle.Namespace, Name: bundle.Name})
	}
	return keys, nil
}

// Reap deletes every Bundle labeled for owner whose chart name is not in
// liveChartNames, following the teacher's finalize.PurgeBundles shape:
// list by owner labels, diff against what's still declared, delete
// stragglers.
func (s *Synthesizer) Reap(ctx context.Context, owner Owner, liveChartNames []string) error {
	live := make(map[string]struct{}, len(liveChartNames))
	for _, name := range liveChartNames {
		live[name] = struct{}{}
	}

	bundles, err := s.Fleet.ListBundlesByOwner(ctx, owner.Kind, owner.Namespace, owner.Name, "")
	if err != nil {
		return err
	}

	for i := range bundles {
		bundle := bundles[i]
		chart := bundle.Labels[fleetv1alpha1.LabelChart]
		if _, ok := live[chart]; ok {
			continue
		}
		if err := s.Fleet.DeleteBundle(ctx, &bundle); err != nil {
			return fmt.Errorf("herd: reaping bundle %s/%s: %w", bundle.Namespace, bundle.Name, err)
		}
	}
	return nil
}

func partitionByWorkspace(clusters []clusterresolver.ResolvedCluster) map[string][]clusterresolver.ResolvedCluster {
	out := map[string][]clusterresolver.ResolvedCluster{}
	for _, c := range clusters {
		out[c.Workspace] = append(out[c.Workspace], c)
	}
	return out
}

func buildBundle(owner Owner, chart herdv1alpha1.ChartSpec, workspace string, clusters []clusterresolver.ResolvedCluster, valuesByCluster map[string]map[string]interface{}, dependsOn []string) *fleetv1alpha1.Bundle {
	name := names.BundleName(owner.Kind, owner.Name, chart.Name)

	targets := make([]fleetv1alpha1.BundleTarget, 0, len(clusters))
	for _, c := range clusters {
		targets = append(targets, fleetv1alpha1.BundleTarget{
			Name:        c.ID,
			ClusterName: c.ID,
			Values:      &fleetv1alpha1.GenericMap{Data: valuesByCluster[c.ID]},
			Labels:      chart.Labels,
			Annotations: chart.Annotations,
		})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })

	deps := make([]fleetv1alpha1.BundleRef, 0, len(dependsOn))
	for _, d := range dependsOn {
		deps = append(deps, fleetv1alpha1.BundleRef{Name: names.BundleName(owner.Kind, owner.Name, d)})
	}

	spec := fleetv1alpha1.BundleSpec{
		TargetNamespace: chart.Namespace,
		Helm: &fleetv1alpha1.HelmOptions{
			Chart:          chart.Name,
			Repo:           chart.Repo,
			ReleaseName:    releaseName(chart),
			Version:        chart.Version,
			Values:         &fleetv1alpha1.GenericMap{Data: commonClusterValues(clusters, valuesByCluster)},
			TimeoutSeconds: int(chart.TimeoutOrDefault().Seconds()),
		},
		Targets:   targets,
		DependsOn: deps,
	}

	bundle := &fleetv1alpha1.Bundle{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: workspace,
			Name:      name,
			Labels: map[string]string{
				fleetv1alpha1.LabelOwnerKind:      owner.Kind,
				fleetv1alpha1.LabelOwnerNamespace: owner.Namespace,
				fleetv1alpha1.LabelOwnerName:      owner.Name,
				fleetv1alpha1.LabelChart:          chart.Name,
			},
		},
		Spec: spec,
	}
	bundle.Annotations = map[string]string{
		fleetv1alpha1.AnnotationContentHash: contentHash(spec),
	}
	return bundle
}

func releaseName(chart herdv1alpha1.ChartSpec) string {
	if chart.ReleaseName != "" {
		return chart.ReleaseName
	}
	return chart.Name
}

// commonClusterValues picks the first resolved cluster's rendered values as
// the Bundle-wide Helm default, mirroring Fleet's own semantics: values on
// BundleSpec.Helm are the baseline Fleet applies before layering each
// BundleTarget's own Values on top. Per-cluster divergence itself is
// carried on each target entry in buildBundle, not here — this is only the
// fallback a cluster would see if it somehow matched no target.
func commonClusterValues(clusters []clusterresolver.ResolvedCluster, valuesByCluster map[string]map[string]interface{}) map[string]interface{} {
	for _, c := range clusters {
		if v, ok := valuesByCluster[c.ID]; ok {
			return v
		}
	}
	return map[string]interface{}{}
}

// contentHash hashes a canonical JSON encoding of the Bundle spec, the
// same technique the teacher's DeploymentID uses to decide whether an
// apply is actually needed.
func contentHash(spec fleetv1alpha1.BundleSpec) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(spec)
	return hex.EncodeToString(h.Sum(nil))
}
