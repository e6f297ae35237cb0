package main

import (
	"os"
	"testing"
)

func TestSetEnvIfSet(t *testing.T) {
	const key = "DRIFTWATCH_TEST_KEY"
	t.Setenv(key, "before")

	setEnvIfSet(key, "")
	if got := os.Getenv(key); got != "before" {
		t.Errorf("empty value must leave %s alone, got %q", key, got)
	}

	setEnvIfSet(key, "after")
	if got := os.Getenv(key); got != "after" {
		t.Errorf("env = %q, want after", got)
	}
}

func TestEnvOr(t *testing.T) {
	const key = "DRIFTWATCH_TEST_FALLBACK"
	t.Setenv(key, "")
	if got := envOr(key, "fallback"); got != "fallback" {
		t.Errorf("empty env must fall back, got %q", got)
	}

	t.Setenv(key, "explicit")
	if got := envOr(key, "fallback"); got != "explicit" {
		t.Errorf("set env must win, got %q", got)
	}
}
