package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/healthz"
	"github.com/suse/herd-controller/internal/herderrors"
	"github.com/suse/herd-controller/internal/metrics"
	"github.com/suse/herd-controller/internal/rancherclient"
	"github.com/suse/herd-controller/internal/scheduler"
	"github.com/suse/herd-controller/internal/statusagg"
	"github.com/suse/herd-controller/internal/valuesmerge"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// defaultSchedulerConcurrency is the per-parent apply concurrency limit,
// spec.md §5's default of 8.
const defaultSchedulerConcurrency = 8

// requeueAfterBundleCleanup mirrors the teacher's
// requeueAfterBundleDeploymentCleanup: give the owned Bundles' own
// deletion time to complete before checking again whether the finalizer
// can be removed.
const requeueAfterBundleCleanup = 2 * time.Second

// workloadObject is satisfied by *herdv1alpha1.Stack and
// *herdv1alpha1.Pipeline: both are client.Object and both know how to
// overwrite their own status subresource.
type workloadObject interface {
	client.Object
	statusagg.StatusWriter
}

// Plan is what each concrete reconciler extracts from its own Spec before
// handing control to the shared Engine: the parts that differ between a
// Stack's charts and a Pipeline's steps are resolved into chart-shaped
// terms here, once, so Engine.Reconcile never needs to know which kind of
// resource it's driving.
type Plan struct {
	Owner         bundlesynth.Owner
	Env           herdv1alpha1.Environment
	Security      herdv1alpha1.FeatureToggle
	Observability herdv1alpha1.FeatureToggle
	Targets       herdv1alpha1.Targets
	Paused        bool
	Nodes         []scheduler.Node
	// StepValues supplies per-chart values directly for Pipeline steps,
	// bypassing the values merger; nil for a Stack's charts.
	StepValues map[string]map[string]interface{}
	// ChartNames lists every chart/step name currently declared, used to
	// reap Bundles for ones that have been removed.
	ChartNames []string
}

// Engine holds every collaborator the reconciliation flow needs, shared
// between StackReconciler and PipelineReconciler. Grounded on the
// teacher's BundleReconciler struct, which likewise bundles a
// client.Client, Scheme, Recorder and its domain collaborators
// (Builder, Store, Query) rather than reaching for package-level state.
type Engine struct {
	Client    client.Client
	Recorder  record.EventRecorder
	Resolver  *clusterresolver.Resolver
	Merger    *valuesmerge.Merger
	Synth     *bundlesynth.Synthesizer
	StatusAgg *statusagg.Aggregator
	Fleet     *rancherclient.FleetClient

	// Tracker, if set, is touched after every completed reconciliation
	// (success or failure) so the manager's /healthz endpoint can detect a
	// stalled workqueue.
	Tracker *healthz.ReconcileTracker

	// Concurrency bounds how many nodes the scheduler applies in
	// parallel within one reconciliation. Zero means
	// defaultSchedulerConcurrency.
	Concurrency int
}

func (e *Engine) concurrency() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return defaultSchedulerConcurrency
}

// Reconcile drives obj through finalizer handling, target resolution, DAG
// scheduling and status aggregation. validationErr, if non-nil, is the
// result of obj.Validate() and short-circuits straight to a Failed status.
// It wraps the actual work with the reconcile_total/reconcile_duration_seconds
// metrics and touches the shared ReconcileTracker on the way out, success or
// failure, so a reconcile loop that keeps failing still proves itself alive
// to the manager's healthz check.
func (e *Engine) Reconcile(ctx context.Context, obj workloadObject, plan Plan, validationErr error) (ctrl.Result, error) {
	start := time.Now()
	result, err := e.reconcile(ctx, obj, plan, validationErr)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ObserveReconcile(plan.Owner.Kind, outcome, time.Since(start))
	if e.Tracker != nil {
		e.Tracker.Touch(time.Now())
	}
	return result, err
}

func (e *Engine) reconcile(ctx context.Context, obj workloadObject, plan Plan, validationErr error) (ctrl.Result, error) {
	if !obj.GetDeletionTimestamp().IsZero() {
		return e.reconcileDelete(ctx, obj, plan.Owner)
	}

	if err := e.ensureFinalizer(ctx, obj); err != nil {
		return ctrl.Result{}, fmt.Errorf("%w: adding finalizer: %v", herderrors.ErrRetryable, err)
	}

	if validationErr != nil {
		return e.writeFailure(ctx, obj, plan.Owner, fmt.Errorf("%w: %v", herderrors.ErrValidation, validationErr))
	}

	clusters, warnings, err := e.Resolver.Resolve(ctx, plan.Targets)
	if errors.Is(err, herderrors.ErrTransientAPI) {
		// Transient API failures requeue with backoff and leave status as is.
		return ctrl.Result{}, fmt.Errorf("%w: resolving targets: %v", herderrors.ErrRetryable, err)
	}
	if err != nil {
		return e.writeFailure(ctx, obj, plan.Owner, err)
	}
	for _, w := range warnings {
		e.Recorder.Event(obj, corev1.EventTypeWarning, w.Code, w.Message)
	}

	var result scheduler.Result
	if plan.Paused {
		result = scheduler.Result{Phase: scheduler.PhaseDeploying, NodeStates: map[string]scheduler.State{}}
	} else {
		runner := &bundleRunner{
			Merger:           e.Merger,
			Synth:            e.Synth,
			Fleet:            e.Fleet,
			Namespace:        obj.GetNamespace(),
			Owner:            plan.Owner,
			Env:              plan.Env,
			Security:         plan.Security,
			Observability:    plan.Observability,
			Clusters:         clusters,
			stepValuesByName: plan.StepValues,
		}

		result, err = scheduler.Run(ctx, plan.Nodes, runner, e.concurrency())
		if err != nil {
			return e.writeFailure(ctx, obj, plan.Owner, err)
		}

		if err := e.Synth.Reap(ctx, plan.Owner, plan.ChartNames); err != nil {
			return ctrl.Result{}, fmt.Errorf("%w: reaping stale bundles: %v", herderrors.ErrRetryable, err)
		}
	}

	status := e.StatusAgg.Build(ctx, statusagg.Input{
		Observations:    observationsFor(plan.Nodes, result, clusters),
		SchedulerResult: result,
		Clusters:        clusters,
		Security:        plan.Security,
		Observability:   plan.Observability,
		Owner:           plan.Owner,
		Generation:      obj.GetGeneration(),
	})

	if err := e.StatusAgg.Write(ctx, obj, status); err != nil {
		return ctrl.Result{}, fmt.Errorf("%w: writing status: %v", herderrors.ErrRetryable, err)
	}

	setPhaseGauge(plan.Owner, status.Phase)

	return ctrl.Result{}, nil
}

// setPhaseGauge one-hots the workload_phase gauge for owner: the observed
// phase reads 1, every other known phase reads 0, so a Grafana panel can
// graph phase transitions without a separate "current phase" label lookup.
func setPhaseGauge(owner bundlesynth.Owner, current herdv1alpha1.Phase) {
	for _, phase := range []herdv1alpha1.Phase{
		herdv1alpha1.PhasePending,
		herdv1alpha1.PhaseDeploying,
		herdv1alpha1.PhaseDeployed,
		herdv1alpha1.PhaseFailed,
	} {
		value := 0.0
		if phase == current {
			value = 1.0
		}
		metrics.PhaseGauge.WithLabelValues(owner.Kind, owner.Namespace, owner.Name, string(phase)).Set(value)
	}
}

func (e *Engine) ensureFinalizer(ctx context.Context, obj client.Object) error {
	if controllerutil.ContainsFinalizer(obj, herdv1alpha1.Finalizer) {
		return nil
	}
	controllerutil.AddFinalizer(obj, herdv1alpha1.Finalizer)
	return e.Client.Update(ctx, obj)
}

// reconcileDelete reaps every Bundle owned by obj, waits for them to
// actually disappear, then removes the finalizer — the same
// reap-then-requeue-then-unfinalize shape as the teacher's handleDelete.
func (e *Engine) reconcileDelete(ctx context.Context, obj client.Object, owner bundlesynth.Owner) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(obj, herdv1alpha1.Finalizer) {
		return ctrl.Result{}, nil
	}

	if err := e.Synth.Reap(ctx, owner, nil); err != nil {
		return ctrl.Result{}, fmt.Errorf("%w: reaping bundles on delete: %v", herderrors.ErrRetryable, err)
	}

	remaining, err := e.Fleet.ListBundlesByOwner(ctx, owner.Kind, owner.Namespace, owner.Name, "")
	if err != nil {
		return ctrl.Result{}, err
	}
	if len(remaining) > 0 {
		return ctrl.Result{RequeueAfter: requeueAfterBundleCleanup}, nil
	}

	controllerutil.RemoveFinalizer(obj, herdv1alpha1.Finalizer)
	return ctrl.Result{}, e.Client.Update(ctx, obj)
}

// writeFailure records a Failed phase and Ready=False condition, then
// classifies err: a permanent failure (validation, cycle, no targets) is
// a reconcile.TerminalError so the workqueue does not keep retrying it;
// anything else requeues under herderrors.ErrRetryable.
func (e *Engine) writeFailure(ctx context.Context, obj workloadObject, owner bundlesynth.Owner, err error) (ctrl.Result, error) {
	reason := reasonFor(err)

	status := herdv1alpha1.WorkloadStatus{
		ObservedGeneration: obj.GetGeneration(),
		Phase:              herdv1alpha1.PhaseFailed,
		Message:            err.Error(),
	}
	meta.SetStatusCondition(&status.Conditions, metav1.Condition{
		Type:               herdv1alpha1.ConditionReady,
		Status:             metav1.ConditionFalse,
		Reason:             reason,
		Message:            err.Error(),
		ObservedGeneration: obj.GetGeneration(),
	})

	if werr := e.StatusAgg.Write(ctx, obj, status); werr != nil {
		return ctrl.Result{}, fmt.Errorf("%w: writing failure status: %v", herderrors.ErrRetryable, werr)
	}
	e.Recorder.Event(obj, corev1.EventTypeWarning, reason, err.Error())
	setPhaseGauge(owner, herdv1alpha1.PhaseFailed)

	if herderrors.IsPermanent(err) {
		return ctrl.Result{}, reconcile.TerminalError(err)
	}
	return ctrl.Result{}, fmt.Errorf("%w: %v", herderrors.ErrRetryable, err)
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, herderrors.ErrCycleDetected):
		return herdv1alpha1.ReasonCycleDetected
	case errors.Is(err, herderrors.ErrNoTargets):
		return herdv1alpha1.ReasonNoTargets
	case errors.Is(err, herderrors.ErrEmptySelector):
		return herdv1alpha1.ReasonEmptySelector
	case errors.Is(err, herderrors.ErrMissingValueSource):
		return herdv1alpha1.ReasonMissingValueSource
	case errors.Is(err, herderrors.ErrParseFailure):
		return herdv1alpha1.ReasonParseFailure
	case errors.Is(err, herderrors.ErrTimeoutExpired):
		return herdv1alpha1.ReasonTimeoutExpired
	case errors.Is(err, herderrors.ErrBundleApplyConflict):
		return herdv1alpha1.ReasonBundleApplyConflict
	case errors.Is(err, herderrors.ErrValidation):
		return herdv1alpha1.ReasonValidationFailed
	default:
		return herdv1alpha1.ReasonReconcileError
	}
}

// observationsFor expands the scheduler's per-node result into one
// DeploymentObservation per (chartName, clusterId), spec.md §4.6.
func observationsFor(nodes []scheduler.Node, result scheduler.Result, clusters []clusterresolver.ResolvedCluster) []herdv1alpha1.DeploymentObservation {
	observations := make([]herdv1alpha1.DeploymentObservation, 0, len(nodes)*len(clusters))
	for _, n := range nodes {
		state := result.NodeStates[n.Name()]
		for _, c := range clusters {
			observations = append(observations, herdv1alpha1.DeploymentObservation{
				ChartName: n.Name(),
				ClusterID: c.ID,
				Status:    herdv1alpha1.DeploymentState(state),
			})
		}
	}
	return observations
}
