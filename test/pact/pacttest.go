//go:build pact
// +build pact

// Package pacttest holds the names and fixtures shared by the shelter portal
// consumer tests and the pets API provider verification.
package pacttest

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	ProviderName = "pets-adoption-api"
	ConsumerName = "shelter-portal"
)

// Provider states, keyed by the exact strings written into the pact file.
const (
	StatePetsBaseline = "shelter is empty"
	StatePetExists    = "pet p-101 is in the shelter"
	StatePetMissing   = "no pet with id ghost"
)

const (
	ExistingPetID   = "p-101"
	MissingPetID    = "ghost"
	ExampleGenus    = "Canis"
	ExampleQuantity = 30
)

// ExamplePetPayload is the body the portal posts when taking a pet in.
func ExamplePetPayload() map[string]any {
	return map[string]any{"genus": ExampleGenus, "quantity": ExampleQuantity}
}

// PactDir is $PACT_DIR, or pacts/ at the module root.
func PactDir(t testing.TB) string {
	t.Helper()
	return ensureDir(t, "PACT_DIR", "pacts")
}

// LogDir is $PACT_LOG_DIR, or bin/pact-logs/ at the module root.
func LogDir(t testing.TB) string {
	t.Helper()
	return ensureDir(t, "PACT_LOG_DIR", filepath.Join("bin", "pact-logs"))
}

// PactFile is where the consumer run leaves the shelter portal contract.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

func ensureDir(t testing.TB, envKey, fallback string) string {
	t.Helper()
	dir := os.Getenv(envKey)
	if dir == "" {
		dir = filepath.Join(moduleRoot(t), fallback)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	return dir
}

// moduleRoot walks up from the test's working directory to the nearest go.mod.
func moduleRoot(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above the test directory")
		}
		dir = parent
	}
}
