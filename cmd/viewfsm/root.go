package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/librescoot/viewfsm/internal/logging"
	"github.com/librescoot/viewfsm/loader"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "viewfsm",
		Short: "Inspect and drive UI transition state machines",
		Long: `viewfsm loads a state machine definition (YAML or TOML), checks it,
renders it as a Mermaid diagram, or drives it with element events read from stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		newValidateCmd(opts),
		newGraphCmd(opts),
		newRunCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(o.logFormat, o.logLevel, cmd.ErrOrStderr())
}

func loadFile(path string) (*loader.File, error) {
	return loader.Load(path)
}
