package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Warwolt/hotrun/internal/engine"
	"github.com/Warwolt/hotrun/internal/logging"
	"github.com/Warwolt/hotrun/internal/metrics"
	"github.com/Warwolt/hotrun/internal/runtime/process"
)

// NewRootCmd returns the hotrun command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hotrun",
		Short: "Build, watch and run the cargo game workspace",
		Long: `hotrun drives the game dev loop: it runs the one-shot workspace build,
then supervises cargo watch and cargo run side by side until either exits,
mirroring that child's exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupervise(cmd.Context())
		},
	}

	root.AddCommand(newWatchCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root
}

// Execute runs the CLI entrypoint. The process exit code mirrors the first
// supervised child to exit; interruption yields 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCodeError carries a supervised child's exit code through cobra to
// Execute without printing anything.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func runSupervise(ctx context.Context) error {
	logger := logging.New(logging.FromEnv())
	defer func() { _ = logger.Sync() }()

	if srv := metricsServerFromEnv(); srv != nil {
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := srv.Run(serveCtx); err != nil {
				logger.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
		logger.Info("metrics endpoint enabled", zap.String("addr", srv.Addr()))
	}

	events := make(chan engine.Event, 64)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		logEvents(logger, events)
	}()

	sup := engine.NewSupervisor(engine.DefaultPlan(), process.New(), events)
	code, err := sup.Run(ctx)
	close(events)
	<-consumed

	if err != nil {
		return err
	}
	if code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}

// metricsServerFromEnv returns a metrics endpoint when HOTRUN_METRICS_ADDR
// is set.
func metricsServerFromEnv() *metrics.Server {
	addr := os.Getenv("HOTRUN_METRICS_ADDR")
	if addr == "" {
		return nil
	}
	return metrics.NewServer(metrics.ServerConfig{Addr: addr})
}

// logEvents renders supervisor lifecycle events and keeps session metrics
// current. Child process output never passes through here; children write
// to the terminal directly.
func logEvents(logger *zap.Logger, events <-chan engine.Event) {
	for evt := range events {
		child := zap.String("child", evt.Child)
		switch evt.Type {
		case engine.EventTypeBuildStarted:
			logger.Info("running initial build", child)
		case engine.EventTypeBuildFinished:
			metrics.ObserveInitialBuild(evt.Duration)
			if evt.ExitCode != 0 {
				logger.Warn("initial build failed",
					child,
					zap.Int("exit_code", evt.ExitCode),
					zap.Duration("duration", evt.Duration))
			} else {
				logger.Info("initial build finished",
					child,
					zap.Duration("duration", evt.Duration))
			}
		case engine.EventTypeStarting:
			logger.Debug("starting child", child)
		case engine.EventTypeStarted:
			logger.Info("child started", child, zap.Int("pid", evt.Pid))
		case engine.EventTypeExited:
			metrics.IncrementChildExit(evt.Child)
			logger.Info("child exited", child, zap.Int("exit_code", evt.ExitCode))
		case engine.EventTypeTerminating:
			logger.Info("requesting termination", child)
		case engine.EventTypeError:
			logger.Error(evt.Message, child, zap.Error(evt.Err))
		default:
			logger.Info(evt.Message, child)
		}
	}
}
