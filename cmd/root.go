package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	noColor    bool
)

// NewRootCmd builds the gallery command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gallery",
		Short: "A peanut gallery that heckles your chat conversations",
		Long: `gallery watches the conversation open in the desktop chat app and has a
small cast of hecklers comment on it as replies finish streaming.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureOutput(noColor)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/grove-gallery/gallery.yml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newWatchCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newRoastCmd())
	root.AddCommand(newCharactersCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(NewVersionCmd())
	return root
}
