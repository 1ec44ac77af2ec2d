// Package reconciler implements the two controller-runtime Reconcilers
// (Stack, Pipeline) that drive a custom resource's charts or steps through
// the cluster resolver, values merger, dependency scheduler and Bundle
// synthesizer, then write the resulting status back. Grounded on the
// teacher's BundleReconciler
// (internal/cmd/controller/reconciler/bundle_controller.go): Get, handle
// deletion, ensure finalizer, do the work, compute a result from whatever
// error came back.
package reconciler

import (
	"time"

	"github.com/suse/herd-controller/internal/scheduler"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"
)

// chartNode adapts a ChartSpec to scheduler.Node. Pipeline steps are
// adapted to the same type via stepToChart, so the scheduler and bundle
// synthesizer never need to know which kind of parent resource they're
// serving.
type chartNode struct {
	chart herdv1alpha1.ChartSpec
}

func (n chartNode) Name() string           { return n.chart.Name }
func (n chartNode) DependsOn() []string    { return n.chart.DependsOn }
func (n chartNode) Wait() bool             { return n.chart.Wait }
func (n chartNode) Timeout() time.Duration { return n.chart.TimeoutOrDefault() }

// retrier is implemented by nodes that carry a bounded retry budget for
// transient apply failures — the Pipeline step "retries" field from
// spec.md §3, which has no equivalent on ChartSpec.
type retrier interface {
	Retries() int
}

// stepNode is a chartNode plus the step's retry budget.
type stepNode struct {
	chartNode
	retries int
}

func (n stepNode) Retries() int { return n.retries }

func chartNodes(charts []herdv1alpha1.ChartSpec) []scheduler.Node {
	nodes := make([]scheduler.Node, 0, len(charts))
	for _, c := range charts {
		nodes = append(nodes, chartNode{chart: c})
	}
	return nodes
}

func stepNodes(steps []herdv1alpha1.StepSpec) []scheduler.Node {
	nodes := make([]scheduler.Node, 0, len(steps))
	for _, s := range steps {
		nodes = append(nodes, stepNode{chartNode: chartNode{chart: stepToChart(s)}, retries: s.Retries})
	}
	return nodes
}
