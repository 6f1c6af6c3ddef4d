// Package watch rebuilds the game crate when source files change.
//
// Change events are coalesced: a rebuild starts only after a quiet period,
// and changes arriving while a rebuild runs queue exactly one follow-up
// rebuild. Builds never overlap.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Warwolt/hotrun/internal/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// Config controls what the watcher observes and what it runs.
type Config struct {
	// Dirs are watched recursively. Directories created later are picked
	// up automatically; hidden directories, target and node_modules are
	// skipped.
	Dirs []string

	// Exec is the cargo argument list run after a quiet period, for
	// example ["build", "-p", "game"].
	Exec []string

	// Debounce is the quiet period after the last change before a rebuild
	// starts.
	Debounce time.Duration
}

// Watcher coalesces filesystem change bursts into sequential rebuilds.
type Watcher struct {
	cfg    Config
	logger *zap.Logger

	// runBuild executes one rebuild and reports its exit code. Swapped
	// out by tests.
	runBuild func(ctx context.Context, args []string) (int, error)
}

// New constructs a Watcher logging through logger, which may be nil.
func New(cfg Config, logger *zap.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{cfg: cfg, logger: logger, runBuild: runCargo}
}

// Run watches until ctx is cancelled. Rebuild failures are logged and do not
// stop the watcher; only setup problems surface as errors.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.cfg.Exec) == 0 {
		return errors.New("watch: no cargo arguments to run")
	}
	if len(w.cfg.Dirs) == 0 {
		return errors.New("watch: no directories to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.cfg.Dirs {
		if err := w.addDirectoryRecursive(fsw, dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.logger.Info("watching for changes",
		zap.Strings("dirs", w.cfg.Dirs),
		zap.String("exec", strings.Join(w.cfg.Exec, " ")),
		zap.Duration("debounce", w.cfg.Debounce))

	var (
		debounce *time.Timer
		building bool
		dirty    bool
	)
	buildDone := make(chan buildResult, 1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			if building {
				// The in-flight rebuild is bound to ctx and returns
				// promptly once cancelled.
				<-buildDone
			}
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Permission-only changes never affect build inputs.
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoryRecursive(fsw, event.Name); err != nil {
						w.logger.Debug("failed to watch new directory", zap.Error(err))
					}
				}
			}
			w.logger.Debug("change detected",
				zap.String("path", event.Name),
				zap.String("op", opString(event.Op)))
			if building {
				dirty = true
				continue
			}
			// Start or reset the quiet-period timer.
			if debounce == nil {
				debounce = time.NewTimer(w.cfg.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.cfg.Debounce)
			}
		case <-timerC(debounce):
			debounce = nil
			building = true
			go w.build(ctx, buildDone)
		case res := <-buildDone:
			building = false
			w.reportBuild(res)
			if dirty {
				dirty = false
				building = true
				go w.build(ctx, buildDone)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

type buildResult struct {
	code     int
	duration time.Duration
	err      error
}

func (w *Watcher) build(ctx context.Context, done chan<- buildResult) {
	w.logger.Info("rebuilding", zap.String("exec", strings.Join(w.cfg.Exec, " ")))
	started := time.Now()
	code, err := w.runBuild(ctx, w.cfg.Exec)
	done <- buildResult{code: code, duration: time.Since(started), err: err}
}

func (w *Watcher) reportBuild(res buildResult) {
	switch {
	case res.err != nil:
		metrics.IncrementWatchRebuild(metrics.RebuildResultFailed)
		w.logger.Error("rebuild could not run", zap.Error(res.err))
	case res.code != 0:
		metrics.IncrementWatchRebuild(metrics.RebuildResultFailed)
		w.logger.Warn("rebuild failed",
			zap.Int("exit_code", res.code),
			zap.Duration("duration", res.duration))
	default:
		metrics.IncrementWatchRebuild(metrics.RebuildResultDone)
		w.logger.Info("rebuild finished", zap.Duration("duration", res.duration))
	}
}

func runCargo(ctx context.Context, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, "cargo", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}

// addDirectoryRecursive adds dir and its subdirectories to the watcher.
func (w *Watcher) addDirectoryRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Debug("failed to watch directory",
				zap.String("path", path),
				zap.Error(err))
		}
		return nil
	})
}

// skipDir reports directories whose contents never feed the build: VCS
// metadata, cargo output and vendored packages.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "target" || name == "node_modules"
}

func opString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "change"
	}
}
