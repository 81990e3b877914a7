package utils

import "encoding/json"

// MustMarshalJSON marshals v, panicking on failure. Reserved for values the
// caller fully controls, like test fixtures and generated metadata blobs.
func MustMarshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("marshal: " + err.Error())
	}
	return data
}
