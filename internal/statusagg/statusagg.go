// Package statusagg rolls up per-(chart, cluster) deployment observations,
// the scheduler's node states, and the toggle-driven security/observability
// subtrees into the WorkloadStatus a Stack or Pipeline reports, and writes
// it back conflict-safely. Grounded on
// internal/cmd/controller/reconciler/bundle_controller.go's status-patch
// loop, adapted to meta.SetStatusCondition and
// k8s.io/client-go/util/retry.OnError with a conflict-only predicate.
package statusagg

import (
	"context"
	"sort"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/scheduler"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// maxConflictRetries caps Status().Update conflict retries, per spec.md §4.6.
const maxConflictRetries = 5

// SecurityScanner is the out-of-scope collaborator that performs the real
// NeuVector-style scan. Its only in-repo implementation is NoopSecurityScanner,
// which emits the NeuVectorScan marker and reports "Pending".
type SecurityScanner interface {
	Scan(ctx context.Context, owner bundlesynth.Owner) (herdv1alpha1.SecurityStatus, error)
}

// ObservabilityProvisioner is the out-of-scope collaborator that wires up
// real dashboards/alerts. Its only in-repo implementation is
// NoopObservabilityProvisioner.
type ObservabilityProvisioner interface {
	Provision(ctx context.Context, owner bundlesynth.Owner) (herdv1alpha1.ObservabilityStatus, error)
}

// Aggregator builds and writes WorkloadStatus.
type Aggregator struct {
	Client        client.Client
	Security      SecurityScanner
	Observability ObservabilityProvisioner
}

// New builds an Aggregator. security/observability may be nil, in which
// case the corresponding status subtree is never populated even if the
// toggle is enabled (used in tests that don't care about markers).
func New(c client.Client, security SecurityScanner, observability ObservabilityProvisioner) *Aggregator {
	return &Aggregator{Client: c, Security: security, Observability: observability}
}

// Input carries everything one status computation needs.
type Input struct {
	Observations    []herdv1alpha1.DeploymentObservation
	SchedulerResult scheduler.Result
	Clusters        []clusterresolver.ResolvedCluster
	Security        herdv1alpha1.FeatureToggle
	Observability   herdv1alpha1.FeatureToggle
	Owner           bundlesynth.Owner
	Generation      int64
}

func schedulerPhaseToWorkload(p scheduler.Phase) herdv1alpha1.Phase {
	switch p {
	case scheduler.PhaseDeployed:
		return herdv1alpha1.PhaseDeployed
	case scheduler.PhaseFailed:
		return herdv1alpha1.PhaseFailed
	default:
		return herdv1alpha1.PhaseDeploying
	}
}

// Build computes the whole WorkloadStatus (deployments, phase, conditions,
// targetClusters) and, for each enabled toggle whose collaborator is set,
// the status.Security/Observability subtree; Write persists it as is.
func (a *Aggregator) Build(ctx context.Context, in Input) herdv1alpha1.WorkloadStatus {
	status := herdv1alpha1.WorkloadStatus{
		ObservedGeneration: in.Generation,
		Phase:              schedulerPhaseToWorkload(in.SchedulerResult.Phase),
		Deployments:        in.Observations,
		TargetClusters:     sortedClusterIDs(in.Clusters),
	}

	setReadyCondition(&status, in.SchedulerResult.Phase)

	if in.Security.Enabled() {
		setFeatureCondition(&status, herdv1alpha1.ConditionSecurityScanned, in.SchedulerResult.Phase)
		if a.Security != nil {
			if sec, err := a.Security.Scan(ctx, in.Owner); err == nil {
				status.Security = &sec
			}
		}
	}

	if in.Observability.Enabled() {
		setFeatureCondition(&status, herdv1alpha1.ConditionObservabilityConfigured, in.SchedulerResult.Phase)
		if a.Observability != nil {
			if obs, err := a.Observability.Provision(ctx, in.Owner); err == nil {
				status.Observability = &obs
			}
		}
	}

	return status
}

func setReadyCondition(status *herdv1alpha1.WorkloadStatus, phase scheduler.Phase) {
	cond := metav1.Condition{
		Type:    herdv1alpha1.ConditionReady,
		Message: "resolved and scheduled",
	}
	switch phase {
	case scheduler.PhaseDeployed:
		cond.Status = metav1.ConditionTrue
		cond.Reason = herdv1alpha1.ReasonAllDeployed
	case scheduler.PhaseFailed:
		cond.Status = metav1.ConditionFalse
		cond.Reason = herdv1alpha1.ReasonReconcileError
	default:
		cond.Status = metav1.ConditionFalse
		cond.Reason = herdv1alpha1.ReasonDeploying
	}
	meta.SetStatusCondition(&status.Conditions, cond)
}

func setFeatureCondition(status *herdv1alpha1.WorkloadStatus, conditionType string, phase scheduler.Phase) {
	cond := metav1.Condition{Type: conditionType}
	if phase == scheduler.PhaseDeployed {
		cond.Status = metav1.ConditionTrue
		cond.Reason = herdv1alpha1.ReasonScanComplete
	} else {
		cond.Status = metav1.ConditionFalse
		cond.Reason = herdv1alpha1.ReasonNotConfigured
	}
	meta.SetStatusCondition(&status.Conditions, cond)
}

func sortedClusterIDs(clusters []clusterresolver.ResolvedCluster) []string {
	ids := make([]string, 0, len(clusters))
	for _, c := range clusters {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

// StatusWriter is the subset of a typed Stack/Pipeline client the
// aggregator needs to persist a freshly computed status: re-fetch the
// latest object, apply mutate, and attempt the subresource update.
type StatusWriter interface {
	client.Object
	SetWorkloadStatus(herdv1alpha1.WorkloadStatus)
}

// Write persists status onto obj via Status().Update, retrying up to
// maxConflictRetries times on a conflict by re-fetching obj first — the
// teacher's own reconcile-then-status-patch loop, generalized with
// client-go's retry helper instead of a hand-rolled loop.
func (a *Aggregator) Write(ctx context.Context, obj StatusWriter, status herdv1alpha1.WorkloadStatus) error {
	key := client.ObjectKeyFromObject(obj)
	attempts := 0
	// One initial attempt plus up to maxConflictRetries retries.
	backoff := retry.DefaultRetry
	backoff.Steps = maxConflictRetries + 1
	return retry.OnError(backoff, func(err error) bool {
		if !apierrors.IsConflict(err) {
			return false
		}
		attempts++
		return attempts <= maxConflictRetries
	}, func() error {
		if attempts > 0 {
			if err := a.Client.Get(ctx, key, obj); err != nil {
				return err
			}
		}
		obj.SetWorkloadStatus(status)
		return a.Client.Status().Update(ctx, obj)
	})
}
