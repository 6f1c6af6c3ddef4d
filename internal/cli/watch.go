package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Warwolt/hotrun/internal/logging"
	"github.com/Warwolt/hotrun/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		dirs     []string
		execArgs string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the game crate when source files change",
		Long: `watch observes the given directories and runs the configured cargo
command once changes settle. It is the built-in equivalent of the cargo
watch child the supervisor launches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.FromEnv())
			defer func() { _ = logger.Sync() }()

			cfg := watch.Config{
				Dirs:     dirs,
				Exec:     strings.Fields(execArgs),
				Debounce: debounce,
			}
			return watch.New(cfg, logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringArrayVarP(&dirs, "watch", "w", []string{"game"}, "directory to watch for changes (repeatable)")
	cmd.Flags().StringVarP(&execArgs, "exec", "x", "build -p game", "cargo arguments to run after changes settle")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period after the last change before rebuilding")

	return cmd
}
