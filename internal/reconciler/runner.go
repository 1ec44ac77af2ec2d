package reconciler

import (
	"context"
	"fmt"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/herderrors"
	"github.com/suse/herd-controller/internal/names"
	"github.com/suse/herd-controller/internal/rancherclient"
	"github.com/suse/herd-controller/internal/scheduler"
	"github.com/suse/herd-controller/internal/valuesmerge"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"
)

// bundleRunner implements scheduler.Runner: Apply merges values per
// resolved cluster and synthesizes the chart's Bundle(s); Ready reads back
// the BundleDeployments across every Fleet workspace the resolved
// clusters span. One bundleRunner serves a single reconciliation of a
// single Stack or Pipeline.
type bundleRunner struct {
	Merger *valuesmerge.Merger
	Synth  *bundlesynth.Synthesizer
	Fleet  *rancherclient.FleetClient

	Namespace     string
	Owner         bundlesynth.Owner
	Env           herdv1alpha1.Environment
	Security      herdv1alpha1.FeatureToggle
	Observability herdv1alpha1.FeatureToggle
	Clusters      []clusterresolver.ResolvedCluster

	// stepValuesByName supplies a node's values directly for Pipeline
	// steps, bypassing the values merger (see stepValues).
	stepValuesByName map[string]map[string]interface{}
}

func chartFor(n scheduler.Node) (herdv1alpha1.ChartSpec, error) {
	switch t := n.(type) {
	case chartNode:
		return t.chart, nil
	case stepNode:
		return t.chart, nil
	default:
		return herdv1alpha1.ChartSpec{}, fmt.Errorf("herd: unsupported scheduler node type %T", n)
	}
}

// Apply merges rendered values for every resolved cluster, applies the
// toggle keys, and hands the result to the Bundle synthesizer. Retries a
// bounded number of times on a non-permanent error when n carries a
// retries budget (the Pipeline step "retries" field, spec.md §3); a
// permanent error (missing value source, parse failure, ...) is never
// retried since a repeated attempt cannot change the outcome.
func (r *bundleRunner) Apply(ctx context.Context, n scheduler.Node) error {
	chart, err := chartFor(n)
	if err != nil {
		return err
	}

	attempts := 1
	if rt, ok := n.(retrier); ok && rt.Retries() > 0 {
		attempts = rt.Retries() + 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = r.apply(ctx, chart)
		if lastErr == nil || herderrors.IsPermanent(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (r *bundleRunner) apply(ctx context.Context, chart herdv1alpha1.ChartSpec) error {
	valuesByCluster, err := r.renderedValues(ctx, chart)
	if err != nil {
		return err
	}
	for id, v := range valuesByCluster {
		valuesmerge.ApplyToggles(v, r.Security, r.Observability)
		valuesByCluster[id] = v
	}

	_, err = r.Synth.Apply(ctx, r.Owner, chart, r.Clusters, valuesByCluster, chart.DependsOn)
	return err
}

func (r *bundleRunner) renderedValues(ctx context.Context, chart herdv1alpha1.ChartSpec) (map[string]map[string]interface{}, error) {
	valuesByCluster := make(map[string]map[string]interface{}, len(r.Clusters))

	if sv, ok := r.stepValuesByName[chart.Name]; ok {
		for _, c := range r.Clusters {
			valuesByCluster[c.ID] = sv
		}
		return valuesByCluster, nil
	}

	for _, c := range r.Clusters {
		v, err := r.Merger.Merge(ctx, r.Namespace, r.Env, c, chart.Values)
		if err != nil {
			return nil, fmt.Errorf("herd: merging values for chart %q cluster %q: %w", chart.Name, c.ID, err)
		}
		valuesByCluster[c.ID] = v
	}
	return valuesByCluster, nil
}

// Ready reports whether every BundleDeployment for chart, across every
// Fleet workspace the resolved clusters span, has reached Ready.
func (r *bundleRunner) Ready(ctx context.Context, n scheduler.Node) (bool, error) {
	chart, err := chartFor(n)
	if err != nil {
		return false, err
	}

	bundleName := names.BundleName(r.Owner.Kind, r.Owner.Name, chart.Name)

	workspaces := map[string]struct{}{}
	for _, c := range r.Clusters {
		workspaces[c.Workspace] = struct{}{}
	}

	for workspace := range workspaces {
		bds, err := r.Fleet.ListBundleDeployments(ctx, workspace, bundleName)
		if err != nil {
			return false, err
		}
		if len(bds) == 0 {
			return false, nil
		}
		for _, bd := range bds {
			if !bd.Status.Ready {
				return false, nil
			}
		}
	}
	return true, nil
}
