package reconciler

import (
	herdv1alpha1 "github.com/suse/herd-controller/pkg/apis/herd.suse.com/v1alpha1"
)

// stepChartRepos maps each closed StepType to the chart repository that
// hosts its reference Helm chart. A StepSpec carries no repo/version of
// its own — spec.md §3 describes config as "type-specific, opaque to the
// core" — so the reconciler supplies the one chart per type that the
// downstream Fleet agent actually installs; step.Config becomes that
// chart's values wholesale. This mapping is the Open Question decision
// recorded in DESIGN.md for how Pipeline steps reach the Bundle
// synthesizer, which only knows how to render Helm charts.
var stepChartRepos = map[herdv1alpha1.StepType]string{
	herdv1alpha1.StepTypeIngestion: "https://charts.herd.suse.com/ingestion",
	herdv1alpha1.StepTypeVectorDB:  "https://charts.herd.suse.com/vector-db",
	herdv1alpha1.StepTypeLLM:       "https://charts.herd.suse.com/llm-serving",
	herdv1alpha1.StepTypeService:   "https://charts.herd.suse.com/service",
}

// stepToChart synthesizes the ChartSpec a StepSpec renders as. Wait is
// always true: Pipeline steps model a data/serving pipeline where a
// downstream step reading from an upstream one needs it actually Ready,
// not merely applied, which is the more conservative of the two
// spec.md §4.3 wait semantics and the one Stack charts must opt into
// explicitly.
func stepToChart(step herdv1alpha1.StepSpec) herdv1alpha1.ChartSpec {
	return herdv1alpha1.ChartSpec{
		Name:      step.Name,
		Repo:      stepChartRepos[step.Type],
		DependsOn: step.DependsOn,
		Wait:      true,
		Timeout:   step.Timeout,
	}
}

// stepValues returns a step's Config as the values map applied to its
// synthesized chart. Steps have no ValuesSource union to run through the
// values merger — Config is already the fully-resolved payload the
// type-specific collaborator expects.
func stepValues(step herdv1alpha1.StepSpec) map[string]interface{} {
	if step.Config == nil || step.Config.Data == nil {
		return map[string]interface{}{}
	}
	return step.Config.Data
}
