package v1alpha1

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FeatureToggle normalizes the security/observability flags to a boolean at
// the API boundary. The source system accepted both a native boolean and
// the strings "enabled"/"disabled"; rather than carry that ambiguity
// through the reconciler, FeatureToggle accepts either spelling on the way
// in and always marshals back out as a bare boolean.
type FeatureToggle bool

func (f FeatureToggle) Enabled() bool {
	return bool(f)
}

func (f FeatureToggle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

func (f *FeatureToggle) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		*f = FeatureToggle(v)
	case string:
		switch strings.ToLower(v) {
		case "enabled", "true":
			*f = true
		case "disabled", "false", "":
			*f = false
		default:
			return fmt.Errorf("herd: invalid feature toggle value %q, want bool or enabled/disabled", v)
		}
	case nil:
		*f = false
	default:
		return fmt.Errorf("herd: invalid feature toggle value %v", raw)
	}
	return nil
}
