package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fluent/internal/logging"
)

var version = "0.1.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		logCfg = logging.DefaultConfig()
		closer io.Closer
	)

	root := &cobra.Command{
		Use:     "fluent",
		Short:   "Compose and send HTTP requests one segment at a time",
		Version: version,
		Long: `fluent builds HTTP requests by chaining path segments, verbs, headers
and query parameters onto a base URL, then sends them, repeats them
under load, and checks the responses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, c, err := logging.New(logCfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			closer = c
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closer != nil {
				return closer.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&logCfg.Level, "log-level", logCfg.Level, "Log level: trace, debug, info, warn, error")
	flags.StringVar(&logCfg.Format, "log-format", logCfg.Format, "Log format: text or json")
	flags.StringVar(&logCfg.File, "log-file", "", "Also write logs to this file, rotated by size")

	root.AddCommand(newCallCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newEndpointCmd())
	root.AddCommand(newEndpointsCmd())
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
