// Package valuesmerge implements the values-merge pipeline: layering a
// chart or step's declared value sources into one rendered map per target
// cluster, in the fixed precedence order spec.md §4.2 defines. Grounded on
// the teacher's internal/cmd/controller/options/calculate.go Merge, which
// layers BundleDeploymentOptions.Helm.Values the same way (lowest-to-
// highest overlay via dario.cat/mergo), generalized here to the
// ConfigMap/env-overlay/per-cluster/Secret/inline lattice this spec
// defines.
package valuesmerge

import (
	"context"
	"fmt"
	"reflect"

	"dario.cat/mergo"

	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/herderrors"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"
)

// ValuesKey is the well-known data key a ConfigMap or Secret carrying
// rendered values is expected to hold its YAML payload under.
const ValuesKey = "values.yaml"

// sequenceReplace makes mergo replace slices wholesale instead of its
// default element-wise merge, so sequences overwrite rather than
// concatenate, per spec.md's explicit design note.
type sequenceReplace struct{}

func (sequenceReplace) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t.Kind() != reflect.Slice {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && src.IsValid() && !src.IsZero() {
			dst.Set(src)
		}
		return nil
	}
}

// Merger layers value sources for one chart/step against one resolved
// cluster into a single rendered map.
type Merger struct {
	Client client.Client
}

// New builds a Merger backed by the given controller-runtime client.
func New(c client.Client) *Merger {
	return &Merger{Client: c}
}

// Merge implements the precedence lattice from spec.md §4.2: configMapRefs,
// then the env overlay, then the per-cluster overlay, then secretRefs, then
// inline — each layer overriding the last via a deep merge where maps merge
// key-by-key and sequences replace outright.
func (m *Merger) Merge(ctx context.Context, namespace string, env herdv1alpha1.Environment, cluster clusterresolver.ResolvedCluster, src herdv1alpha1.ValuesSource) (map[string]interface{}, error) {
	result := map[string]interface{}{}

	for _, ref := range src.ConfigMapRefs {
		payload, err := m.fetchConfigMapValues(ctx, namespace, ref.Name)
		if err != nil {
			return nil, err
		}
		if err := overlay(&result, payload); err != nil {
			return nil, err
		}
	}

	if env != "" {
		payload, err := m.fetchOptionalConfigMapValues(ctx, namespace, herdv1alpha1.EnvOverlayConfigMapName(env))
		if err != nil {
			return nil, err
		}
		if payload != nil {
			if err := overlay(&result, payload); err != nil {
				return nil, err
			}
		}
	}

	if src.PerClusterConfigMapRef != nil {
		payload, err := m.fetchConfigMapKey(ctx, namespace, src.PerClusterConfigMapRef.Name, cluster.ID+".yaml")
		if err != nil {
			return nil, err
		}
		if payload != nil {
			if err := overlay(&result, payload); err != nil {
				return nil, err
			}
		}
	}

	for _, ref := range src.SecretRefs {
		payload, err := m.fetchSecretValues(ctx, namespace, ref.Name)
		if err != nil {
			return nil, err
		}
		if err := overlay(&result, payload); err != nil {
			return nil, err
		}
	}

	if src.Inline != nil && src.Inline.Data != nil {
		if err := overlay(&result, src.Inline.Data); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ApplyToggles injects the reserved herd.security.enabled and
// herd.observability.enabled keys after the merge, so user-supplied values
// can never suppress them.
func ApplyToggles(values map[string]interface{}, security, observability herdv1alpha1.FeatureToggle) {
	values["herd.security.enabled"] = security.Enabled()
	values["herd.observability.enabled"] = observability.Enabled()
}

func overlay(dst *map[string]interface{}, src map[string]interface{}) error {
	if err := mergo.Merge(dst, src, mergo.WithOverride, mergo.WithTransformers(sequenceReplace{})); err != nil {
		return fmt.Errorf("%w: %v", herderrors.ErrParseFailure, err)
	}
	return nil
}

func (m *Merger) fetchConfigMapValues(ctx context.Context, namespace, name string) (map[string]interface{}, error) {
	cm := &corev1.ConfigMap{}
	if err := m.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: configmap %s/%s", herderrors.ErrMissingValueSource, namespace, name)
		}
		return nil, err
	}
	return parseValues(cm.Data[ValuesKey])
}

func (m *Merger) fetchOptionalConfigMapValues(ctx context.Context, namespace, name string) (map[string]interface{}, error) {
	cm := &corev1.ConfigMap{}
	if err := m.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	values, err := parseValues(cm.Data[ValuesKey])
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (m *Merger) fetchConfigMapKey(ctx context.Context, namespace, name, key string) (map[string]interface{}, error) {
	cm := &corev1.ConfigMap{}
	if err := m.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: configmap %s/%s", herderrors.ErrMissingValueSource, namespace, name)
		}
		return nil, err
	}
	raw, ok := cm.Data[key]
	if !ok {
		return nil, nil
	}
	return parseValues(raw)
}

func (m *Merger) fetchSecretValues(ctx context.Context, namespace, name string) (map[string]interface{}, error) {
	secret := &corev1.Secret{}
	if err := m.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: secret %s/%s", herderrors.ErrMissingValueSource, namespace, name)
		}
		return nil, err
	}
	return parseValues(string(secret.Data[ValuesKey]))
}

func parseValues(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", herderrors.ErrParseFailure, err)
	}
	return values, nil
}
