// Package v1alpha1 contains the herd.suse.com/v1alpha1 API: the Stack and
// Pipeline custom resources reconciled by the herd controller.
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the API group this package's types belong to.
const GroupName = "herd.suse.com"

// GroupVersion is the API group/version this package's types belong to.
var GroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1alpha1"}

// SchemeBuilder collects functions that add types to a scheme.
var SchemeBuilder = runtime.NewSchemeBuilder(addKnownTypes)

// AddToScheme applies all the stored functions to the scheme.
var AddToScheme = SchemeBuilder.AddToScheme

func addKnownTypes(scheme *runtime.Scheme) error {
	scheme.AddKnownTypes(GroupVersion,
		&Stack{},
		&StackList{},
		&Pipeline{},
		&PipelineList{},
	)
	metav1.AddToGroupVersion(scheme, GroupVersion)
	return nil
}
