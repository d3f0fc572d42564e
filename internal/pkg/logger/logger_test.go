package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSecretsAndHashesUsers(t *testing.T) {
	r := &redactor{enabled: true, salt: "pepper"}
	out := r.apply([]interface{}{"access_token", "abc", "user_id", "u-1", "content_type", "quiz"})
	if len(out) != 6 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "quiz" {
		t.Fatalf("plain value changed: %v", out[5])
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := &redactor{enabled: false}
	in := []interface{}{"password", "hunter2"}
	out := r.apply(in)
	if out[1] != "hunter2" {
		t.Fatalf("expected passthrough, got %v", out[1])
	}
}

func TestRedactorOddKeyValues(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.apply([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}
