package config

import (
	"testing"
)

func TestSubstituteEnvVars_Simple(t *testing.T) {
	t.Setenv("TEST_VAR_SIMPLE", "hello")

	content, missing := substituteEnvVars("value = ${TEST_VAR_SIMPLE}")
	if content != "value = hello" {
		t.Errorf("expected 'value = hello', got %q", content)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing vars, got %v", missing)
	}
}

func TestSubstituteEnvVars_Missing(t *testing.T) {
	// Use a unique var name that definitely doesn't exist
	content, missing := substituteEnvVars("value = ${ANIARR_TEST_NONEXISTENT_VAR_12345}")
	if content != "value = ${ANIARR_TEST_NONEXISTENT_VAR_12345}" {
		t.Errorf("expected unchanged, got %q", content)
	}
	if len(missing) != 1 || missing[0] != "ANIARR_TEST_NONEXISTENT_VAR_12345" {
		t.Errorf("expected [ANIARR_TEST_NONEXISTENT_VAR_12345], got %v", missing)
	}
}

func TestSubstituteEnvVars_Default(t *testing.T) {
	// Empty string should trigger default (same as unset for :- syntax)
	t.Setenv("UNSET_VAR_DEFAULT", "")

	content, missing := substituteEnvVars("value = ${UNSET_VAR_DEFAULT:-default_value}")
	if content != "value = default_value" {
		t.Errorf("expected 'value = default_value', got %q", content)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing vars with default, got %v", missing)
	}
}

func TestSubstituteEnvVars_SetOverridesDefault(t *testing.T) {
	t.Setenv("SET_VAR_DEFAULT", "actual")

	content, missing := substituteEnvVars("value = ${SET_VAR_DEFAULT:-fallback}")
	if content != "value = actual" {
		t.Errorf("expected 'value = actual', got %q", content)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing vars, got %v", missing)
	}
}

func TestSubstituteEnvVars_Multiple(t *testing.T) {
	t.Setenv("TEST_VAR_A", "one")
	t.Setenv("TEST_VAR_B", "two")

	content, missing := substituteEnvVars("a = ${TEST_VAR_A}\nb = ${TEST_VAR_B}\nc = ${ANIARR_TEST_MISSING_C}")
	if content != "a = one\nb = two\nc = ${ANIARR_TEST_MISSING_C}" {
		t.Errorf("unexpected result: %q", content)
	}
	if len(missing) != 1 || missing[0] != "ANIARR_TEST_MISSING_C" {
		t.Errorf("expected [ANIARR_TEST_MISSING_C], got %v", missing)
	}
}

func TestSubstituteEnvVars_NoReferences(t *testing.T) {
	content, missing := substituteEnvVars("plain = \"text\"")
	if content != "plain = \"text\"" {
		t.Errorf("expected unchanged, got %q", content)
	}
	if missing != nil {
		t.Errorf("expected nil missing, got %v", missing)
	}
}
