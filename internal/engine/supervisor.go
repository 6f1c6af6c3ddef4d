package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Warwolt/hotrun/internal/runtime"
)

// Plan describes a supervised session: an optional one-shot build step
// followed by a fixed set of children run concurrently.
type Plan struct {
	// Build, when non-nil, runs to completion before the children start.
	// Its exit code never influences the supervisor's own.
	Build *runtime.CommandSpec

	// Children are started together in order. The first one to exit ends
	// the session; the remaining children receive a termination request.
	Children []runtime.CommandSpec
}

// DefaultPlan returns the fixed dev-loop plan: build the workspace once,
// then run the rebuild-on-change watcher next to the game itself.
func DefaultPlan() Plan {
	return Plan{
		Build: &runtime.CommandSpec{
			Name: "cargo-build",
			Argv: []string{"cargo", "build"},
		},
		Children: []runtime.CommandSpec{
			{
				Name: "cargo-watch",
				Argv: []string{"cargo", "watch", "-w", "game", "-x", "build -p game"},
			},
			{
				Name: "cargo-run",
				Argv: []string{"cargo", "run"},
			},
		},
	}
}

// Supervisor runs a plan's children until the first of them exits and
// reports that child's exit code as the session result.
type Supervisor struct {
	plan    Plan
	runtime runtime.Runtime
	events  chan<- Event
}

// NewSupervisor constructs a supervisor executing plan on rt. Lifecycle
// notifications are delivered on events, which may be nil.
func NewSupervisor(plan Plan, rt runtime.Runtime, events chan<- Event) *Supervisor {
	return &Supervisor{plan: plan, runtime: rt, events: events}
}

// Run executes the plan. The returned code is the exit code the calling
// process should adopt: the first-exiting child's code, or 0 when ctx is
// cancelled before any child exits. A non-nil error means a child could not
// be launched; any children already running have been asked to terminate.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.plan.Build != nil {
		s.runBuild(ctx)
		if ctx.Err() != nil {
			return 0, nil
		}
	}

	handles, err := s.launchChildren(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil
		}
		return 0, err
	}

	return s.superviseLoop(ctx, handles)
}

// runBuild runs the one-shot build to completion. The outcome is reported
// as an event and otherwise discarded: supervision proceeds whether the
// build succeeded, failed or could not start at all. Cancellation stops
// the wait and asks the build to terminate.
func (s *Supervisor) runBuild(ctx context.Context) {
	spec := *s.plan.Build
	sendEvent(s.events, Event{Child: spec.Name, Type: EventTypeBuildStarted, Message: "running initial build"})
	started := time.Now()

	handle, err := s.runtime.Start(ctx, spec)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		sendEvent(s.events, Event{Child: spec.Name, Type: EventTypeError, Message: "initial build could not start", Err: err})
		return
	}

	code, waitErr := handle.Wait(ctx)
	if ctx.Err() != nil {
		handle.Terminate()
		return
	}
	if waitErr != nil {
		sendEvent(s.events, Event{Child: spec.Name, Type: EventTypeError, Message: "initial build wait failed", Err: waitErr})
		return
	}
	sendEvent(s.events, Event{
		Child:    spec.Name,
		Type:     EventTypeBuildFinished,
		Message:  "initial build finished",
		ExitCode: code,
		Duration: time.Since(started),
	})
}

// launchChildren starts every child in plan order without waiting on any of
// them. If a launch fails, children already running are asked to terminate
// before the error is surfaced.
func (s *Supervisor) launchChildren(ctx context.Context) ([]runtime.Handle, error) {
	handles := make([]runtime.Handle, 0, len(s.plan.Children))
	for _, spec := range s.plan.Children {
		sendEvent(s.events, Event{Child: spec.Name, Type: EventTypeStarting, Message: "starting child"})
		handle, err := s.runtime.Start(ctx, spec)
		if err != nil {
			s.terminateAll(handles, -1)
			return nil, fmt.Errorf("start %s: %w", spec.Name, err)
		}
		handles = append(handles, handle)
		sendEvent(s.events, Event{Child: spec.Name, Type: EventTypeStarted, Message: "child started", Pid: handle.Pid()})
	}
	return handles, nil
}

type childExit struct {
	index int
	code  int
	err   error
}

// superviseLoop blocks until any child exits or ctx is cancelled, asks the
// remaining children to terminate and derives the session's exit code.
func (s *Supervisor) superviseLoop(ctx context.Context, handles []runtime.Handle) (int, error) {
	exits := make(chan childExit, len(handles))
	waitCtx, waitCancel := context.WithCancel(context.Background())
	defer waitCancel()

	for i, handle := range handles {
		go func(idx int, h runtime.Handle) {
			code, err := h.Wait(waitCtx)
			exits <- childExit{index: idx, code: code, err: err}
		}(i, handle)
	}

	select {
	case exit := <-exits:
		name := s.plan.Children[exit.index].Name
		if exit.err != nil {
			sendEvent(s.events, Event{Child: name, Type: EventTypeError, Message: "exit status unavailable", Err: exit.err})
			exit.code = 1
		}
		sendEvent(s.events, Event{Child: name, Type: EventTypeExited, Message: "child exited", ExitCode: exit.code})
		s.terminateAll(handles, exit.index)
		return exit.code, nil
	case <-ctx.Done():
		s.terminateAll(handles, -1)
		return 0, nil
	}
}

// terminateAll requests termination of every handle except the one at
// index skip, in plan order. Requests are fire and forget.
func (s *Supervisor) terminateAll(handles []runtime.Handle, skip int) {
	for i, handle := range handles {
		if i == skip {
			continue
		}
		sendEvent(s.events, Event{Child: s.plan.Children[i].Name, Type: EventTypeTerminating, Message: "requesting termination"})
		handle.Terminate()
	}
}
