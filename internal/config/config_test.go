package config

import (
	"path/filepath"
	"testing"
)

func TestResolve_ExplicitPathWins(t *testing.T) {
	t.Setenv(EnvConfigPath, "/from/env.yaml")

	got, err := Resolve("/explicit/config.yaml")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "/explicit/config.yaml" {
		t.Fatalf("Resolve = %q, want explicit path", got)
	}
}

func TestResolve_EnvBeforeDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "  /from/env.yaml  ")

	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "/from/env.yaml" {
		t.Fatalf("Resolve = %q, want env path", got)
	}
}

func TestResolve_DefaultUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigPath, "")

	got, err := Resolve("   ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := filepath.Join(home, ".config", "atlasapi", "config.yaml")
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
	if expanded, err := ExpandPath(DefaultPath()); err != nil || expanded != got {
		t.Fatalf("ExpandPath(DefaultPath()) = %q, %v; want %q", expanded, err, got)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/x.toml")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x.toml") {
		t.Fatalf("ExpandPath = %q", got)
	}

	if _, err := ExpandPath(" "); err == nil {
		t.Fatalf("ExpandPath(blank) returned nil error")
	}

	rel, err := ExpandPath("rel/config.yaml")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if !filepath.IsAbs(rel) {
		t.Fatalf("ExpandPath(rel) = %q, want absolute", rel)
	}
}
