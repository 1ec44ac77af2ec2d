// Package healthz implements the controller's /healthz checker: healthy
// iff the last reconcile loop completed within 2x the configured resync
// interval. Whether the manager's caches are synced is not checked.
package healthz

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ReconcileTracker records the wall-clock time of the most recent
// completed reconciliation across all controllers sharing one manager.
// Reconcilers call Touch after every reconcile, success or failure, since
// a failed-but-completed reconcile still proves the loop is alive.
type ReconcileTracker struct {
	mu             sync.Mutex
	last           time.Time
	staleThreshold time.Duration
}

// NewReconcileTracker builds a tracker considering the loop stale once
// resyncInterval*2 has elapsed since the last Touch.
func NewReconcileTracker(resyncInterval time.Duration) *ReconcileTracker {
	return &ReconcileTracker{
		last:           time.Now(),
		staleThreshold: 2 * resyncInterval,
	}
}

// Touch records that a reconcile loop just completed.
func (t *ReconcileTracker) Touch(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = now
}

// Checker implements controller-runtime's healthz.Checker signature: it
// returns nil when healthy, an error describing the problem otherwise.
func (t *ReconcileTracker) Checker(_ *http.Request) error {
	t.mu.Lock()
	last := t.last
	threshold := t.staleThreshold
	t.mu.Unlock()

	if age := time.Since(last); age > threshold {
		return fmt.Errorf("herd: no reconcile observed in %s, exceeds staleness threshold %s", age, threshold)
	}
	return nil
}
