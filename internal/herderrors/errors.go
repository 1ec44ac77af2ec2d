// Package herderrors defines the sentinel error kinds the reconciler uses
// to decide between silent retry, a status write, or both. Modeled on the
// teacher's errorutil package, extended with the additional kinds this
// controller's component contract requires.
package herderrors

import (
	"errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ErrRetryable marks an error that should requeue without a status write,
// e.g. a transient conflict already retried internally.
var ErrRetryable = errors.New("herd: requeue event")

// ErrTransientAPI wraps a network or 5xx failure from the Rancher
// management API or the Kubernetes API server. Disposition: retry with
// backoff, no status change; no failure-count threshold turns it into a
// status write.
var ErrTransientAPI = errors.New("herd: transient API failure")

// ErrValidation covers cycle detection, malformed Targets, and unknown
// step types. Disposition: permanent, phase Failed, no Bundle writes.
var ErrValidation = errors.New("herd: validation failure")

// ErrMissingValueSource is returned when a named ConfigMap or Secret
// referenced by values.* does not exist. Disposition: permanent for the
// affected chart/step; its deployment is marked Failed, dependents Blocked.
var ErrMissingValueSource = errors.New("herd: missing value source")

// ErrParseFailure is returned when a value source exists but its payload
// cannot be parsed. Same disposition as ErrMissingValueSource.
var ErrParseFailure = errors.New("herd: value source parse failure")

// ErrBundleApplyConflict is returned when a Bundle upsert loses a
// resourceVersion race. Disposition: retry once after refetch, then
// surface as Failed.
var ErrBundleApplyConflict = errors.New("herd: bundle apply conflict")

// ErrTimeoutExpired names a chart's wait timeout elapsing before its
// BundleDeployments reach Ready. The scheduler does not return it: it
// records such a chart as Failed and its dependents as Blocked.
var ErrTimeoutExpired = errors.New("herd: wait timeout expired")

// ErrNoTargets is returned by the cluster resolver when the surviving set
// of resolved clusters is empty.
var ErrNoTargets = errors.New("herd: no targets resolved")

// ErrEmptySelector is returned by the cluster resolver when targets.selector
// is set but matches no label keys (treated as equivalent to unset).
var ErrEmptySelector = errors.New("herd: empty selector")

// ErrCycleDetected is returned by the dependency scheduler when dependsOn
// edges form a cycle.
var ErrCycleDetected = errors.New("herd: dependency cycle detected")

// IgnoreConflict swallows a Kubernetes API "conflict" error, used when a
// caller has already arranged to retry the write on the next event.
func IgnoreConflict(err error) error {
	if apierrors.IsConflict(err) {
		return nil
	}
	return err
}

// IsPermanent reports whether err belongs to one of the permanent-failure
// kinds that should produce a status write and no further automatic retry
// of the same node.
func IsPermanent(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrMissingValueSource),
		errors.Is(err, ErrParseFailure),
		errors.Is(err, ErrTimeoutExpired),
		errors.Is(err, ErrNoTargets),
		errors.Is(err, ErrEmptySelector),
		errors.Is(err, ErrCycleDetected):
		return true
	default:
		return false
	}
}
