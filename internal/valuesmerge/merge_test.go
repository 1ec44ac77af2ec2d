package valuesmerge_test

import (
	"context"
	"testing"

	"github.com/suse/herd-controller/internal/clusterresolver"
	"github.com/suse/herd-controller/internal/herderrors"
	"github.com/suse/herd-controller/internal/valuesmerge"
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func TestMergePrecedenceLowestToHighest(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))

	base := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "base-values"},
		Data:       map[string]string{valuesmerge.ValuesKey: "replicas: 1\nimage:\n  tag: v1\n"},
	}
	envOverlay := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "herd-env-prod"},
		Data:       map[string]string{valuesmerge.ValuesKey: "image:\n  tag: v2\n"},
	}
	perCluster := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "per-cluster"},
		Data:       map[string]string{"c-1.yaml": "replicas: 3\n"},
	}
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "creds"},
		Data:       map[string][]byte{valuesmerge.ValuesKey: []byte("apiKey: from-secret\n")},
	}

	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(base, envOverlay, perCluster, secret).Build()
	merger := valuesmerge.New(c)

	src := herdv1alpha1.ValuesSource{
		ConfigMapRefs:          []herdv1alpha1.ValueRef{{Name: "base-values"}},
		PerClusterConfigMapRef: &herdv1alpha1.ValueRef{Name: "per-cluster"},
		SecretRefs:             []herdv1alpha1.ValueRef{{Name: "creds"}},
		Inline: &herdv1alpha1.GenericMap{Data: map[string]interface{}{
			"image": map[string]interface{}{"tag": "inline-wins"},
		}},
	}

	values, err := merger.Merge(context.Background(), "default", herdv1alpha1.EnvProd, clusterresolver.ResolvedCluster{ID: "c-1"}, src)
	require.NoError(t, err)

	assert.EqualValues(t, 3, values["replicas"])
	assert.Equal(t, "from-secret", values["apiKey"])
	image, ok := values["image"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "inline-wins", image["tag"])
}

func TestMergeSkipsAbsentEnvOverlay(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	merger := valuesmerge.New(c)

	values, err := merger.Merge(context.Background(), "default", herdv1alpha1.EnvDev, clusterresolver.ResolvedCluster{ID: "c-1"}, herdv1alpha1.ValuesSource{})
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestMergeFailsOnMissingConfigMapRef(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	merger := valuesmerge.New(c)

	_, err := merger.Merge(context.Background(), "default", "", clusterresolver.ResolvedCluster{ID: "c-1"}, herdv1alpha1.ValuesSource{
		ConfigMapRefs: []herdv1alpha1.ValueRef{{Name: "missing"}},
	})
	assert.ErrorIs(t, err, herderrors.ErrMissingValueSource)
}

func TestMergeFailsOnInvalidYAML(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	bad := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "bad"},
		Data:       map[string]string{valuesmerge.ValuesKey: "not: [valid: yaml"},
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(bad).Build()
	merger := valuesmerge.New(c)

	_, err := merger.Merge(context.Background(), "default", "", clusterresolver.ResolvedCluster{ID: "c-1"}, herdv1alpha1.ValuesSource{
		ConfigMapRefs: []herdv1alpha1.ValueRef{{Name: "bad"}},
	})
	assert.ErrorIs(t, err, herderrors.ErrParseFailure)
}

func TestApplyTogglesInjectsReservedKeysAfterMerge(t *testing.T) {
	values := map[string]interface{}{"herd.security.enabled": false}
	valuesmerge.ApplyToggles(values, herdv1alpha1.FeatureToggle(true), herdv1alpha1.FeatureToggle(false))
	assert.Equal(t, true, values["herd.security.enabled"])
	assert.Equal(t, false, values["herd.observability.enabled"])
}
