package runtime

import "context"

// CommandSpec describes a single command the supervisor launches.
type CommandSpec struct {
	// Name identifies the command in events, logs and metrics.
	Name string

	// Argv is the program followed by its arguments. Must be non-empty.
	Argv []string

	// Dir is the working directory. Empty inherits the supervisor's.
	Dir string
}

// Handle is an opaque reference to a launched child process.
type Handle interface {
	// Pid reports the operating system process id of the child, or 0 if
	// the child never started.
	Pid() int

	// Wait blocks until the child exits and returns its exit code. It is
	// safe to call from multiple goroutines; every caller observes the
	// same result. The error reports a failure to determine the exit
	// status or context cancellation, never a non-zero exit.
	Wait(ctx context.Context) (int, error)

	// Terminate requests that the child stop. The request is best effort:
	// it does not wait for the child to exit and never escalates to a
	// forced kill. Idempotent and safe to call after the child exited.
	Terminate()
}

// Runtime describes a backend capable of launching commands.
type Runtime interface {
	// Start launches the command described by spec and returns a handle to
	// the running process. Implementations should respect context
	// cancellation and surface start failures via returned errors.
	Start(ctx context.Context, spec CommandSpec) (Handle, error)
}
