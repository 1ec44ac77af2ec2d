// Package main is the entry point for the herd controller binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/config"
	herdhealthz "github.com/suse/herd-controller/internal/healthz"
	"github.com/suse/herd-controller/internal/rancherclient"
	"github.com/suse/herd-controller/internal/reconciler"
	"github.com/suse/herd-controller/internal/statusagg"
	"github.com/suse/herd-controller/internal/valuesmerge"
	fleetv1alpha1 "github.com/suse/herd-controller/pkg/apis/fleet.cattle.io/v1alpha1"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(fleetv1alpha1.AddToScheme(scheme))
	utilruntime.Must(herdv1alpha1.AddToScheme(scheme))
}

func main() {
	cmd := &cobra.Command{
		Use:           "herd-controller",
		Short:         "Reconciles Stacks and Pipelines into Rancher Fleet Bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	ctrl.SetLogger(zap.New(zap.UseDevMode(true)))

	cfg, err := config.Load()
	if err != nil {
		setupLog.Error(err, "failed to load configuration")
		return err
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsBindAddress},
		HealthProbeBindAddress: cfg.HealthProbeBindAddress,
		Cache: cache.Options{
			SyncPeriod: &cfg.ResyncInterval,
		},
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		return err
	}

	management := rancherclient.NewManagementClient(cfg.RancherURL, cfg.RancherToken, cfg.RancherVerifySSL, cfg.RancherTimeout)
	fleet := rancherclient.NewFleetClient(mgr.GetClient())

	resolver := clusterresolver.New(management)
	merger := valuesmerge.New(mgr.GetClient())
	synth := bundlesynth.New(fleet)
	statusAgg := statusagg.New(
		mgr.GetClient(),
		statusagg.NoopSecurityScanner{Fleet: fleet},
		statusagg.NoopObservabilityProvisioner{Fleet: fleet},
	)
	tracker := herdhealthz.NewReconcileTracker(cfg.ResyncInterval)

	baseEngine := reconciler.Engine{
		Client:    mgr.GetClient(),
		Resolver:  resolver,
		Merger:    merger,
		Synth:     synth,
		StatusAgg: statusAgg,
		Fleet:     fleet,
		Tracker:   tracker,
	}

	stackEngine := baseEngine
	stackEngine.Recorder = mgr.GetEventRecorderFor("herd-stack-controller")
	if err := (&reconciler.StackReconciler{
		Client:  mgr.GetClient(),
		Engine:  &stackEngine,
		Workers: cfg.WorkerCount,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Stack")
		return err
	}

	pipelineEngine := baseEngine
	pipelineEngine.Recorder = mgr.GetEventRecorderFor("herd-pipeline-controller")
	if err := (&reconciler.PipelineReconciler{
		Client:  mgr.GetClient(),
		Engine:  &pipelineEngine,
		Workers: cfg.WorkerCount,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Pipeline")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", tracker.Checker); err != nil {
		setupLog.Error(err, "unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		return err
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(cmd.Context()); err != nil {
		setupLog.Error(err, "problem running manager")
		return err
	}

	return nil
}
