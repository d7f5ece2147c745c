package main

import (
	"testing"

	"github.com/gennitdev/storykeep/internal/config"
)

func TestNewBackendClient_RequiresBaseURL(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = &config.Config{}
	if _, err := newBackendClient(); err == nil {
		t.Error("newBackendClient() succeeded without a backend base URL")
	}

	cfg = &config.Config{BackendBaseURL: "http://localhost:8080", BackendToken: "tok"}
	client, err := newBackendClient()
	if err != nil {
		t.Fatalf("newBackendClient() failed: %v", err)
	}
	if client == nil {
		t.Fatal("newBackendClient() returned nil client")
	}
}
