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
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// StackReconciler reconciles a Stack, directly grounded on the teacher's
// BundleReconciler: an embedded client.Client, an Engine carrying every
// domain collaborator, and a worker count fed into
// controller.Options.MaxConcurrentReconciles.
type StackReconciler struct {
	client.Client
	Engine  *Engine
	Workers int
}

// SetupWithManager registers the reconciler, watching Bundles owned by a
// Stack so a Bundle status change re-triggers its parent — the same
// fan-out shape as the teacher's Watches(&fleet.BundleDeployment{}, ...).
func (r *StackReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&herdv1alpha1.Stack{},
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
			handler.EnqueueRequestsFromMapFunc(ownerMapFunc("Stack")),
			builder.WithPredicates(bundleStatusChangedPredicate()),
		).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.Workers}).
		Complete(r)
}

//+kubebuilder:rbac:groups=herd.suse.com,resources=stacks,verbs=get;list;watch;update;patch
//+kubebuilder:rbac:groups=herd.suse.com,resources=stacks/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=herd.suse.com,resources=stacks/finalizers,verbs=update

// Reconcile drives a Stack through the shared Engine.
func (r *StackReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	stack := &herdv1alpha1.Stack{}
	if err := r.Get(ctx, req.NamespacedName, stack); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	plan := Plan{
		Owner:         bundlesynth.Owner{Kind: "Stack", Namespace: stack.Namespace, Name: stack.Name},
		Env:           stack.Spec.Env,
		Security:      stack.Spec.Security,
		Observability: stack.Spec.Observability,
		Targets:       stack.Spec.Targets,
		Paused:        stack.Spec.Paused,
		Nodes:         chartNodes(stack.Spec.Charts),
		ChartNames:    chartNames(stack.Spec.Charts),
	}

	var validationErr error
	if stack.DeletionTimestamp.IsZero() {
		validationErr = stack.Validate()
	}

	return r.Engine.Reconcile(ctx, stack, plan, validationErr)
}

func chartNames(charts []herdv1alpha1.ChartSpec) []string {
	names := make([]string, 0, len(charts))
	for _, c := range charts {
		names = append(names, c.Name)
	}
	return names
}

// ownerMapFunc maps a Bundle back to the Stack or Pipeline that owns it,
// read from the owner labels the synthesizer sets on every Bundle it
// writes. Grounded on the teacher's BundleDeploymentMapFunc, which
// performs the same label-driven reverse lookup from a child object to
// its parent's reconcile.Request.
func ownerMapFunc(ownerKind string) func(ctx context.Context, obj client.Object) []reconcile.Request {
	return func(_ context.Context, obj client.Object) []reconcile.Request {
		labels := obj.GetLabels()
		if labels == nil || labels[fleetv1alpha1.LabelOwnerKind] != ownerKind {
			return nil
		}
		namespace := labels[fleetv1alpha1.LabelOwnerNamespace]
		name := labels[fleetv1alpha1.LabelOwnerName]
		if namespace == "" || name == "" {
			return nil
		}
		return []reconcile.Request{{NamespacedName: client.ObjectKey{Namespace: namespace, Name: name}}}
	}
}

// bundleStatusChangedPredicate fires only when a Bundle's status actually
// changed, avoiding a reconcile storm on every resync of an unchanged
// Bundle — the same intent as the teacher's
// bundleDeploymentStatusChangedPredicate.
func bundleStatusChangedPredicate() predicate.Funcs {
	return predicate.Funcs{
		CreateFunc: func(event.TypedCreateEvent[client.Object]) bool { return true },
		DeleteFunc: func(event.TypedDeleteEvent[client.Object]) bool { return true },
		UpdateFunc: func(e event.TypedUpdateEvent[client.Object]) bool {
			old, ok := e.ObjectOld.(*fleetv1alpha1.Bundle)
			if !ok {
				return true
			}
			updated, ok := e.ObjectNew.(*fleetv1alpha1.Bundle)
			if !ok {
				return true
			}
			return old.Status.Summary != updated.Status.Summary
		},
	}
}
