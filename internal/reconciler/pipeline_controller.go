package reconciler

import (
	"context"

	"github.com/suse/herd-controller/internal/bundlesynth"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// PipelineReconciler reconciles a Pipeline. Structurally identical to
// StackReconciler — both are thin adapters from their own Spec shape into
// the shared Engine's Plan, grounded the same way on the teacher's
// BundleReconciler.
type PipelineReconciler struct {
	client.Client
	Engine  *Engine
	Workers int
}

// SetupWithManager registers the reconciler and its Bundle watch.
func (r *PipelineReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&herdv1alpha1.Pipeline{},
			builder.WithPredicates(
				predicate.Or(
					predicate.GenerationChangedPredicate{},
					predicate.AnnotationChangedPredicate{},
					predicate.LabelChangedPredicate{},
				),
			),
		).
		Watches(
			&fleetv1alpha1.Bundle{},
			handler.EnqueueRequestsFromMapFunc(ownerMapFunc("Pipeline")),
			builder.WithPredicates(bundleStatusChangedPredicate()),
		).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.Workers}).
		Complete(r)
}

//+kubebuilder:rbac:groups=herd.suse.com,resources=pipelines,verbs=get;list;watch;update;patch
//+kubebuilder:rbac:groups=herd.suse.com,resources=pipelines/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=herd.suse.com,resources=pipelines/finalizers,verbs=update

// Reconcile drives a Pipeline through the shared Engine.
func (r *PipelineReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	pipeline := &herdv1alpha1.Pipeline{}
	if err := r.Get(ctx, req.NamespacedName, pipeline); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	plan := Plan{
		Owner:         bundlesynth.Owner{Kind: "Pipeline", Namespace: pipeline.Namespace, Name: pipeline.Name},
		Env:           pipeline.Spec.Env,
		Security:      pipeline.Spec.Security,
		Observability: pipeline.Spec.Observability,
		Targets:       pipeline.Spec.Targets,
		Paused:        pipeline.Spec.Paused,
		Nodes:         stepNodes(pipeline.Spec.Steps),
		StepValues:    stepValuesByName(pipeline.Spec.Steps),
		ChartNames:    stepNames(pipeline.Spec.Steps),
	}

	var validationErr error
	if pipeline.DeletionTimestamp.IsZero() {
		validationErr = pipeline.Validate()
	}

	return r.Engine.Reconcile(ctx, pipeline, plan, validationErr)
}

func stepValuesByName(steps []herdv1alpha1.StepSpec) map[string]map[string]interface{} {
	values := make(map[string]map[string]interface{}, len(steps))
	for _, s := range steps {
		values[s.Name] = stepValues(s)
	}
	return values
}

func stepNames(steps []herdv1alpha1.StepSpec) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
