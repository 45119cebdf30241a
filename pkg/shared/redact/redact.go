package redact

import (
	"encoding/json"
	"strings"
)

var sensitiveKeys = []string{"authorization", "cookie", "access_token", "id_token", "refresh_token", "session", "apikey", "password"}

// JSON masks sensitive fields in a JSON body best-effort before it leaves
// the device. Non-JSON input is returned unchanged.
func JSON(b []byte) []byte {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return b
	}
	redactNode(&v)
	out, err := json.Marshal(v)
	if err != nil {
		return b
	}
	return out
}

// SensitiveKey reports whether a header or JSON key should be masked.
func SensitiveKey(k string) bool { return isSensitiveKey(k) }

func redactNode(n *any) {
	switch t := (*n).(type) {
	case map[string]any:
		for k, v := range t {
			if isSensitiveKey(k) {
				t[k] = "***"
				continue
			}
			vv := any(v)
			redactNode(&vv)
			t[k] = vv
		}
	case []any:
		for i := range t {
			vv := any(t[i])
			redactNode(&vv)
			t[i] = vv
		}
	}
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	return false
}
