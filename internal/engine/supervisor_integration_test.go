package engine

import (
	"context"
	"os"
	"path/filepath"
	stdruntime "runtime"
	"testing"
	"time"

	"github.com/Warwolt/hotrun/internal/runtime"
	"github.com/Warwolt/hotrun/internal/runtime/process"
)

func skipStubTests(t *testing.T) {
	t.Helper()
	if stdruntime.GOOS == "windows" {
		t.Skip("shell stub tests skipped on windows")
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return
		} else if !os.IsNotExist(err) {
			t.Fatalf("stat %s: %v", path, err)
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", path)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// trapStub returns a shell script that installs a TERM trap writing ack,
// then signals readiness via started and sleeps until signalled.
func trapStub(started, ack string) string {
	return "trap 'touch " + ack + "; exit 0' TERM; touch " + started + "; sleep 30 & wait $!"
}

func TestSuperviseStubsPropagateSharedExitCode(t *testing.T) {
	skipStubTests(t)

	plan := Plan{Children: []runtime.CommandSpec{
		{Name: "first", Argv: []string{"/bin/sh", "-c", "exit 3"}},
		{Name: "second", Argv: []string{"/bin/sh", "-c", "exit 3"}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := NewSupervisor(plan, process.New(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code: got %d, want 3", code)
	}
}

func TestSuperviseStubsTerminateSleeper(t *testing.T) {
	skipStubTests(t)

	tempDir := t.TempDir()
	started := filepath.Join(tempDir, "sleeper-started")
	ack := filepath.Join(tempDir, "sleeper-ack")

	plan := Plan{Children: []runtime.CommandSpec{
		{Name: "sleeper", Argv: []string{"/bin/sh", "-c", trapStub(started, ack)}},
		// The quitter waits for the sleeper's trap before exiting so the
		// termination request always lands on an armed handler.
		{Name: "quitter", Argv: []string{"/bin/sh", "-c", "while [ ! -f " + started + " ]; do sleep 0.01; done; exit 0"}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := NewSupervisor(plan, process.New(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}

	waitForFile(t, ack)
}

func TestSuperviseStubsInterruptTerminatesBoth(t *testing.T) {
	skipStubTests(t)

	tempDir := t.TempDir()
	firstStarted := filepath.Join(tempDir, "first-started")
	firstAck := filepath.Join(tempDir, "first-ack")
	secondStarted := filepath.Join(tempDir, "second-started")
	secondAck := filepath.Join(tempDir, "second-ack")

	plan := Plan{Children: []runtime.CommandSpec{
		{Name: "first", Argv: []string{"/bin/sh", "-c", trapStub(firstStarted, firstAck)}},
		{Name: "second", Argv: []string{"/bin/sh", "-c", trapStub(secondStarted, secondAck)}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := NewSupervisor(plan, process.New(), nil).Run(ctx)
		done <- result{code: code, err: err}
	}()

	waitForFile(t, firstStarted)
	waitForFile(t, secondStarted)
	cancel()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("run after interrupt: %v", res.err)
		}
		if res.code != 0 {
			t.Fatalf("exit code after interrupt: got %d, want 0", res.code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for run to return")
	}

	waitForFile(t, firstAck)
	waitForFile(t, secondAck)
}

func TestSuperviseStubsBuildFailureIgnored(t *testing.T) {
	skipStubTests(t)

	plan := Plan{
		Build: &runtime.CommandSpec{Name: "build", Argv: []string{"/bin/sh", "-c", "exit 1"}},
		Children: []runtime.CommandSpec{
			{Name: "quitter", Argv: []string{"/bin/sh", "-c", "exit 0"}},
			{Name: "sleeper", Argv: []string{"/bin/sh", "-c", "sleep 30"}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events := make(chan Event, 64)
	code, err := NewSupervisor(plan, process.New(), events).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}

	foundBuild := false
	for len(events) > 0 {
		evt := <-events
		if evt.Type == EventTypeBuildFinished {
			foundBuild = true
			if evt.ExitCode != 1 {
				t.Fatalf("build exit code: got %d, want 1", evt.ExitCode)
			}
		}
	}
	if !foundBuild {
		t.Fatalf("expected build-finished event")
	}
}
