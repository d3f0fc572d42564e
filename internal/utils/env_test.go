package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CS_TEST_STR", "value")
	t.Setenv("CS_TEST_INT", "42")
	t.Setenv("CS_TEST_BAD_INT", "forty")
	t.Setenv("CS_TEST_BOOL", "off")
	t.Setenv("CS_TEST_SECS", "3")
	t.Setenv("CS_TEST_LIST", " quiz, joke ,,pun ")

	if got := GetEnv("CS_TEST_STR", "x", nil); got != "value" {
		t.Fatalf("GetEnv: %q", got)
	}
	if got := GetEnv("CS_TEST_MISSING", "x", nil); got != "x" {
		t.Fatalf("GetEnv default: %q", got)
	}
	if got := GetEnvAsInt("CS_TEST_INT", 1, nil); got != 42 {
		t.Fatalf("GetEnvAsInt: %d", got)
	}
	if got := GetEnvAsInt("CS_TEST_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("GetEnvAsInt fallback: %d", got)
	}
	if got := GetEnvAsBool("CS_TEST_BOOL", true, nil); got {
		t.Fatalf("GetEnvAsBool: %v", got)
	}
	if got := GetEnvAsSeconds("CS_TEST_SECS", time.Minute, nil); got != 3*time.Second {
		t.Fatalf("GetEnvAsSeconds: %v", got)
	}
	if got := GetEnvAsList("CS_TEST_LIST", nil, nil); !reflect.DeepEqual(got, []string{"quiz", "joke", "pun"}) {
		t.Fatalf("GetEnvAsList: %v", got)
	}
}
