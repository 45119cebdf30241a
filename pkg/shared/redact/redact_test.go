package redact

import (
	"strings"
	"testing"
)

func TestJSONMasksNestedSensitiveKeys(t *testing.T) {
	in := []byte(`{"user":{"password":"hunter2","name":"bob"},"items":[{"apikey":"k"}]}`)
	out := string(JSON(in))
	if strings.Contains(out, "hunter2") || strings.Contains(out, `"k"`) {
		t.Fatalf("sensitive values survived: %s", out)
	}
	if !strings.Contains(out, "bob") {
		t.Fatalf("non-sensitive value lost: %s", out)
	}
}

func TestJSONLeavesNonJSONAlone(t *testing.T) {
	in := []byte("password=hunter2&x=1")
	if got := string(JSON(in)); got != string(in) {
		t.Fatalf("non-JSON input modified: %s", got)
	}
}

func TestSensitiveKeyIsCaseInsensitive(t *testing.T) {
	if !SensitiveKey("Authorization") || SensitiveKey("Accept") {
		t.Fatalf("key classification wrong")
	}
}
