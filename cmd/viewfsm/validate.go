package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a definition for consistency",
		Long:  `Reports undefined states, conflicting transitions and bindings to unknown events.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd)

			f, err := loadFile(args[0])
			if err != nil {
				return err
			}
			def, err := f.Definition()
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			if _, err := f.EventBindings(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			logger.Debug("definition loaded", "name", f.Name, "states", len(def.States()), "transitions", len(def.Transitions()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid ✅ (%d states, %d transitions)\n",
				f.Name, len(def.States()), len(def.Transitions()))
			return nil
		},
	}
}
