package v1alpha1

import "encoding/json"

// GenericMap carries an opaque nested mapping (Helm values, pipeline step
// config) through the API without the apiserver trying to validate its
// shape. Ported from the teacher's BundleDeploymentOptions values wrapper:
// marshals as the bare map, not as a wrapper object.
type GenericMap struct {
	Data map[string]interface{} `json:"-"`
}

func (in GenericMap) MarshalJSON() ([]byte, error) {
	if in.Data == nil {
		return []byte("null"), nil
	}
	return json.Marshal(in.Data)
}

func (in *GenericMap) UnmarshalJSON(data []byte) error {
	in.Data = map[string]interface{}{}
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, &in.Data)
}

// DeepCopyInto performs a deep copy of the nested mapping into out.
func (in *GenericMap) DeepCopyInto(out *GenericMap) {
	out.Data = make(map[string]interface{}, len(in.Data))
	deepCopyMapValue(in.Data, out.Data)
}

// DeepCopy returns a deep copy of the generic map.
func (in *GenericMap) DeepCopy() *GenericMap {
	if in == nil {
		return nil
	}
	out := new(GenericMap)
	in.DeepCopyInto(out)
	return out
}

func deepCopyMapValue(src, dest map[string]interface{}) {
	for key, value := range src {
		dest[key] = deepCopyAny(value)
	}
}

func deepCopyAny(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		cp := make(map[string]interface{}, len(v))
		deepCopyMapValue(v, cp)
		return cp
	case []interface{}:
		cp := make([]interface{}, len(v))
		for i, item := range v {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
