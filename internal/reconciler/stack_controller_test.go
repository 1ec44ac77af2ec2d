package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/suse/herd-controller/internal/rancherclient"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

func TestStackReconcilerReconcileNotFoundIsIgnored(t *testing.T) {
	scheme := newEngineScheme(t)
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	r := &StackReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	result, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: "missing"}})
	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)
}

func TestStackReconcilerBuildsPlanFromSpec(t *testing.T) {
	scheme := newEngineScheme(t)
	stack := testStack(herdv1alpha1.ChartSpec{Name: "vector-db", Repo: "https://charts.example.com"})
	stack.Spec.Security = true
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(stack).WithStatusSubresource(stack).Build()
	r := &StackReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKeyFromObject(stack)})
	require.NoError(t, err)

	got := &herdv1alpha1.Stack{}
	require.NoError(t, c.Get(context.Background(), client.ObjectKeyFromObject(stack), got))
	assert.Equal(t, herdv1alpha1.PhaseDeployed, got.Status.Phase)
	// SecurityScanned condition is set on the toggle alone; the Security
	// payload itself stays nil because newTestEngine wires no SecurityScanner.
	assert.Nil(t, got.Status.Security)
}

func TestStackReconcilerValidationFailureIsTerminal(t *testing.T) {
	scheme := newEngineScheme(t)
	stack := testStack() // no charts: fails Stack.Validate()
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(stack).WithStatusSubresource(stack).Build()
	r := &StackReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKeyFromObject(stack)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.TerminalError(nil)), "a validation failure must not be retried")
}

func TestOwnerMapFuncMatchesOnlyDeclaredKind(t *testing.T) {
	mapFn := ownerMapFunc("Stack")

	bundle := &fleetv1alpha1.Bundle{}
	bundle.Labels = map[string]string{
		fleetv1alpha1.LabelOwnerKind:      "Stack",
		fleetv1alpha1.LabelOwnerNamespace: "default",
		fleetv1alpha1.LabelOwnerName:      "rag-demo",
	}
	requests := mapFn(context.Background(), bundle)
	require.Len(t, requests, 1)
	assert.Equal(t, "rag-demo", requests[0].Name)
	assert.Equal(t, "default", requests[0].Namespace)

	pipelineBundle := bundle.DeepCopy()
	pipelineBundle.Labels[fleetv1alpha1.LabelOwnerKind] = "Pipeline"
	assert.Empty(t, mapFn(context.Background(), pipelineBundle))

	unlabeled := &fleetv1alpha1.Bundle{}
	assert.Empty(t, mapFn(context.Background(), unlabeled))
}

func TestBundleStatusChangedPredicateIgnoresUnchangedSummary(t *testing.T) {
	pred := bundleStatusChangedPredicate()

	older := &fleetv1alpha1.Bundle{}
	older.Status.Summary = fleetv1alpha1.BundleSummary{Ready: 1, DesiredReady: 1}
	newer := older.DeepCopy()

	assert.False(t, pred.Update(event.UpdateEvent{ObjectOld: older, ObjectNew: newer}))

	newer.Status.Summary.Ready = 0
	assert.True(t, pred.Update(event.UpdateEvent{ObjectOld: older, ObjectNew: newer}))
}
