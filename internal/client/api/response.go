package api

import "encoding/json"

// Response is a decoded identity API body. Its shape is owned by the API.
type Response map[string]any

// Message returns the first non-empty of "message" and "error".
func (r Response) Message() string {
	for _, k := range []string{"message", "error"} {
		if s, ok := r[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Success reports the "success" field and whether it was present.
func (r Response) Success() (ok bool, present bool) {
	v, present := r["success"]
	if !present {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// Decode copies the response into v. When key is non-empty and holds an
// object, only that object is decoded.
func (r Response) Decode(key string, v any) error {
	var src any = map[string]any(r)
	if key != "" {
		if inner, ok := r[key].(map[string]any); ok {
			src = inner
		}
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
