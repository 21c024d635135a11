// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

//go:build integration

package testinfra

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates container, dumping its output first when the
// test failed.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	if container == nil {
		return
	}
	if t.Failed() {
		LogContainerOutput(t, ctx, container)
	}
	if err := container.Terminate(ctx); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}

// maxLoggedOutput bounds how much container output lands in test logs.
const maxLoggedOutput = 16 << 10

// LogContainerOutput writes the tail of the container's stdout and stderr
// to the test log.
func LogContainerOutput(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	rc, err := container.Logs(ctx)
	if err != nil {
		t.Logf("container logs unavailable: %v", err)
		return
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		t.Logf("read container logs: %v", err)
	}
	if len(out) > maxLoggedOutput {
		out = out[len(out)-maxLoggedOutput:]
	}
	t.Logf("container %s output:\n%s", container.GetContainerID(), out)
}
