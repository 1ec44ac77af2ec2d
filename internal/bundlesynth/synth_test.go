package bundlesynth_test

import (
	"context"
	"testing"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/rancherclient"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func newFleetClient(t *testing.T) (client.Client, *rancherclient.FleetClient) {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, fleetv1alpha1.AddToScheme(scheme))
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	return c, rancherclient.NewFleetClient(c)
}

func TestApplyIsIdempotentOnUnchangedContent(t *testing.T) {
	_, fc := newFleetClient(t)
	synth := bundlesynth.New(fc)

	owner := bundlesynth.Owner{Kind: "Stack", Namespace: "default", Name: "rag-demo"}
	chart := herdv1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example.com"}
	clusters := []clusterresolver.ResolvedCluster{{ID: "c-1", Workspace: fleetv1alpha1.WorkspaceDefault}}

	keys1, err := synth.Apply(context.Background(), owner, chart, clusters, nil, nil)
	require.NoError(t, err)
	require.Len(t, keys1, 1)
	assert.Equal(t, fleetv1alpha1.WorkspaceDefault, keys1[0].Namespace)

	keys2, err := synth.Apply(context.Background(), owner, chart, clusters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, keys1, keys2)
}

func TestApplyPartitionsAcrossWorkspaces(t *testing.T) {
	_, fc := newFleetClient(t)
	synth := bundlesynth.New(fc)

	owner := bundlesynth.Owner{Kind: "Stack", Namespace: "default", Name: "rag-demo"}
	chart := herdv1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example.com"}
	clusters := []clusterresolver.ResolvedCluster{
		{ID: "local", Workspace: fleetv1alpha1.WorkspaceLocal},
		{ID: "c-1", Workspace: fleetv1alpha1.WorkspaceDefault},
	}

	keys, err := synth.Apply(context.Background(), owner, chart, clusters, nil, nil)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	namespaces := map[string]bool{}
	for _, k := range keys {
		namespaces[k.Namespace] = true
	}
	assert.True(t, namespaces[fleetv1alpha1.WorkspaceLocal])
	assert.True(t, namespaces[fleetv1alpha1.WorkspaceDefault])
}

func TestApplyGivesEachTargetItsOwnClusterValues(t *testing.T) {
	c, fc := newFleetClient(t)
	synth := bundlesynth.New(fc)

	owner := bundlesynth.Owner{Kind: "Stack", Namespace: "default", Name: "rag-demo"}
	chart := herdv1alpha1.ChartSpec{
		Name:        "vector-db",
		Repo:        "https://charts.example.com",
		Labels:      map[string]string{"tier": "data"},
		Annotations: map[string]string{"team": "platform"},
	}
	clusters := []clusterresolver.ResolvedCluster{
		{ID: "c-a", Workspace: fleetv1alpha1.WorkspaceDefault},
		{ID: "c-b", Workspace: fleetv1alpha1.WorkspaceDefault},
	}
	valuesByCluster := map[string]map[string]interface{}{
		"c-a": {"replicas": float64(1)},
		"c-b": {"replicas": float64(3)},
	}

	keys, err := synth.Apply(context.Background(), owner, chart, clusters, valuesByCluster, nil)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	bundle := &fleetv1alpha1.Bundle{}
	require.NoError(t, c.Get(context.Background(), client.ObjectKey{Namespace: keys[0].Namespace, Name: keys[0].Name}, bundle))
	require.Len(t, bundle.Spec.Targets, 2)

	byName := map[string]fleetv1alpha1.BundleTarget{}
	for _, target := range bundle.Spec.Targets {
		byName[target.Name] = target
	}

	require.NotNil(t, byName["c-a"].Values)
	assert.Equal(t, float64(1), byName["c-a"].Values.Data["replicas"])
	require.NotNil(t, byName["c-b"].Values)
	assert.Equal(t, float64(3), byName["c-b"].Values.Data["replicas"])
	assert.Equal(t, "data", byName["c-a"].Labels["tier"])
	assert.Equal(t, "platform", byName["c-b"].Annotations["team"])
}

func TestReapDeletesBundlesForRemovedCharts(t *testing.T) {
	c, fc := newFleetClient(t)
	synth := bundlesynth.New(fc)

	owner := bundlesynth.Owner{Kind: "Stack", Namespace: "default", Name: "rag-demo"}
	clusters := []clusterresolver.ResolvedCluster{{ID: "c-1", Workspace: fleetv1alpha1.WorkspaceDefault}}

	_, err := synth.Apply(context.Background(), owner, herdv1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example.com"}, clusters, nil, nil)
	require.NoError(t, err)
	_, err = synth.Apply(context.Background(), owner, herdv1alpha1.ChartSpec{Name: "ingestion", Repo: "https://charts.example.com"}, clusters, nil, nil)
	require.NoError(t, err)

	require.NoError(t, synth.Reap(context.Background(), owner, []string{"vector-db"}))

	list := &fleetv1alpha1.BundleList{}
	require.NoError(t, c.List(context.Background(), list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "vector-db", list.Items[0].Labels[fleetv1alpha1.LabelChart])
}
