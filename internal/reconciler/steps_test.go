package reconciler

import (
	"testing"

	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"

	"github.com/stretchr/testify/assert"
)

func TestStepToChartAlwaysWaits(t *testing.T) {
	step := herdv1alpha1.StepSpec{Name: "load", Type: herdv1alpha1.StepTypeIngestion, DependsOn: []string{"upstream"}}
	chart := stepToChart(step)

	assert.Equal(t, "load", chart.Name)
	assert.True(t, chart.Wait)
	assert.Equal(t, []string{"upstream"}, chart.DependsOn)
	assert.Equal(t, stepChartRepos[herdv1alpha1.StepTypeIngestion], chart.Repo)
}

func TestStepToChartRepoByType(t *testing.T) {
	for stepType, repo := range stepChartRepos {
		chart := stepToChart(herdv1alpha1.StepSpec{Name: "n", Type: stepType})
		assert.Equal(t, repo, chart.Repo)
	}
}

func TestStepValuesEmptyWhenConfigNil(t *testing.T) {
	values := stepValues(herdv1alpha1.StepSpec{Name: "load", Type: herdv1alpha1.StepTypeIngestion})
	assert.Equal(t, map[string]interface{}{}, values)
}

func TestStepValuesEmptyWhenDataNil(t *testing.T) {
	values := stepValues(herdv1alpha1.StepSpec{Name: "load", Config: &herdv1alpha1.GenericMap{}})
	assert.Equal(t, map[string]interface{}{}, values)
}

func TestStepValuesReturnsConfigData(t *testing.T) {
	data := map[string]interface{}{"batchSize": float64(32)}
	values := stepValues(herdv1alpha1.StepSpec{Name: "load", Config: &herdv1alpha1.GenericMap{Data: data}})
	assert.Equal(t, data, values)
}
