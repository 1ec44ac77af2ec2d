package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/suse/herd-controller/internal/names"
	"github.com/suse/herd-controller/internal/rancherclient"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// readyBundleDeployment pre-seeds the BundleDeployment a step's chart would
// read back as Ready, since every Pipeline step sets Wait: true
// (stepToChart) and would otherwise poll scheduler.readyPollInterval until
// its timeout.
func readyBundleDeployment(pipelineName, stepName string) *fleetv1alpha1.BundleDeployment {
	bundleName := names.BundleName("Pipeline", pipelineName, stepName)
	bd := &fleetv1alpha1.BundleDeployment{
		ObjectMeta: metaObject(fleetv1alpha1.WorkspaceDefault, bundleName),
		Status:     fleetv1alpha1.BundleDeploymentStatus{Ready: true},
	}
	bd.Labels = map[string]string{
		fleetv1alpha1.BundleLabel:          bundleName,
		fleetv1alpha1.BundleNamespaceLabel: fleetv1alpha1.WorkspaceDefault,
	}
	return bd
}

func testPipeline(steps ...herdv1alpha1.StepSpec) *herdv1alpha1.Pipeline {
	return &herdv1alpha1.Pipeline{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "rag-pipeline"},
		Spec: herdv1alpha1.PipelineSpec{
			Targets: herdv1alpha1.Targets{ClusterIDs: []string{"c-1"}},
			Steps:   steps,
		},
	}
}

func TestPipelineReconcilerReconcileNotFoundIsIgnored(t *testing.T) {
	scheme := newEngineScheme(t)
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	r := &PipelineReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	result, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: "missing"}})
	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)
}

func TestPipelineReconcilerBuildsPlanFromSteps(t *testing.T) {
	scheme := newEngineScheme(t)
	pipeline := testPipeline(
		herdv1alpha1.StepSpec{Name: "ingest", Type: herdv1alpha1.StepTypeIngestion},
		herdv1alpha1.StepSpec{Name: "serve", Type: herdv1alpha1.StepTypeLLM, DependsOn: []string{"ingest"}},
	)
	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(pipeline, readyBundleDeployment("rag-pipeline", "ingest"), readyBundleDeployment("rag-pipeline", "serve")).
		WithStatusSubresource(pipeline).
		Build()
	r := &PipelineReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKeyFromObject(pipeline)})
	require.NoError(t, err)

	got := &herdv1alpha1.Pipeline{}
	require.NoError(t, c.Get(context.Background(), client.ObjectKeyFromObject(pipeline), got))
	assert.Equal(t, herdv1alpha1.PhaseDeployed, got.Status.Phase)
	assert.Len(t, got.Status.Deployments, 2)
}

func TestPipelineReconcilerValidationFailureIsTerminal(t *testing.T) {
	scheme := newEngineScheme(t)
	pipeline := testPipeline(herdv1alpha1.StepSpec{Name: "bad", Type: "not-a-real-type"})
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(pipeline).WithStatusSubresource(pipeline).Build()
	r := &PipelineReconciler{Client: c, Engine: newTestEngine(t, c, stubClusterLister{clusters: []rancherclient.ManagementCluster{activeCluster}})}

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: client.ObjectKeyFromObject(pipeline)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.TerminalError(nil)), "a validation failure must not be retried")
}

func TestStepValuesByNameCollectsEveryStep(t *testing.T) {
	pipeline := testPipeline(
		herdv1alpha1.StepSpec{Name: "ingest", Type: herdv1alpha1.StepTypeIngestion, Config: &herdv1alpha1.GenericMap{Data: map[string]interface{}{"batchSize": float64(5)}}},
		herdv1alpha1.StepSpec{Name: "serve", Type: herdv1alpha1.StepTypeLLM},
	)
	values := stepValuesByName(pipeline.Spec.Steps)
	assert.Equal(t, map[string]interface{}{"batchSize": float64(5)}, values["ingest"])
	assert.Equal(t, map[string]interface{}{}, values["serve"])
}
