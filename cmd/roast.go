package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRoastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roast <title>",
		Short: "Heckle a conversation title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			roast, ok := a.engine.RoastTitle(cmd.Context(), strings.Join(args, " "))
			if !ok {
				return errors.New("the critic had nothing to say (see log for details)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), roast)
			return nil
		},
	}
}
