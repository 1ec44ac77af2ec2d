package statusagg

import (
	"context"
	"fmt"

	"github.com/suse/herd-controller/internal/bundlesynth"
	"github.com/suse/herd-controller/internal/rancherclient"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"
)

// NoopSecurityScanner is the only in-repo SecurityScanner implementation:
// it emits the NeuVectorScan marker ConfigMap and reports a Pending scan
// status, leaving the real scan integration as the documented seam spec.md
// §6 describes.
type NoopSecurityScanner struct {
	Fleet *rancherclient.FleetClient
}

func (s NoopSecurityScanner) Scan(ctx context.Context, owner bundlesynth.Owner) (herdv1alpha1.SecurityStatus, error) {
	name := fmt.Sprintf("%s-security", owner.Name)
	if err := s.Fleet.EmitMarker(ctx, rancherclient.MarkerKindNeuVectorScan, owner.Namespace, name, owner.Kind, owner.Namespace, owner.Name); err != nil {
		return herdv1alpha1.SecurityStatus{}, err
	}
	return herdv1alpha1.SecurityStatus{ScanStatus: "Pending"}, nil
}

// NoopObservabilityProvisioner is the only in-repo ObservabilityProvisioner
// implementation: it emits the ObservabilityConfig marker ConfigMap and
// reports nothing collected yet.
type NoopObservabilityProvisioner struct {
	Fleet *rancherclient.FleetClient
}

func (o NoopObservabilityProvisioner) Provision(ctx context.Context, owner bundlesynth.Owner) (herdv1alpha1.ObservabilityStatus, error) {
	name := fmt.Sprintf("%s-observability", owner.Name)
	if err := o.Fleet.EmitMarker(ctx, rancherclient.MarkerKindObservabilityConfig, owner.Namespace, name, owner.Kind, owner.Namespace, owner.Name); err != nil {
		return herdv1alpha1.ObservabilityStatus{}, err
	}
	return herdv1alpha1.ObservabilityStatus{}, nil
}
