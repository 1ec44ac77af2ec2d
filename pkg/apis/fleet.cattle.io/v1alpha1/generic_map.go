package v1alpha1

import "encoding/json"

// GenericMap carries Helm values through a Bundle without the apiserver
// validating their shape, the same wire convention the herd.suse.com types
// use for chart and step values.
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

func (in *GenericMap) DeepCopyInto(out *GenericMap) {
	out.Data = make(map[string]interface{}, len(in.Data))
	deepCopyMap(in.Data, out.Data)
}

func (in *GenericMap) DeepCopy() *GenericMap {
	if in == nil {
		return nil
	}
	out := new(GenericMap)
	in.DeepCopyInto(out)
	return out
}

func deepCopyMap(src, dest map[string]interface{}) {
	for key, value := range src {
		switch v := value.(type) {
		case map[string]interface{}:
			cp := make(map[string]interface{}, len(v))
			deepCopyMap(v, cp)
			dest[key] = cp
		case []interface{}:
			cp := make([]interface{}, len(v))
			for i, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					inner := make(map[string]interface{}, len(m))
					deepCopyMap(m, inner)
					cp[i] = inner
					continue
				}
				cp[i] = item
			}
			dest[key] = cp
		default:
			dest[key] = v
		}
	}
}
