package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/librescoot/viewfsm"
	"github.com/librescoot/viewfsm/internal/graph"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Render a definition as a Mermaid state diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFile(args[0])
			if err != nil {
				return err
			}
			def, err := f.Definition()
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if current != "" {
				if !def.HasState(viewfsm.StateID(current)) {
					return fmt.Errorf("%w: %q", viewfsm.ErrUndefinedState, current)
				}
				overlay = &graph.Overlay{CurrentState: viewfsm.StateID(current)}
			}

			opts.logger(cmd).Debug("rendering graph", "name", f.Name)
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Highlight this state")
	return cmd
}
