package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/settings"
)

func newCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"chars"},
		Short:   "Manage the gallery roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the current roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			current, err := store.Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRoster(current.ActiveCharacters))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "Show the built-in characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := characters.Presets()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRoster(presets))
			return nil
		},
	})

	cmd.AddCommand(newToggleCmd("enable", true))
	cmd.AddCommand(newToggleCmd("disable", false))
	return cmd
}

func newToggleCmd(verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>...",
		Short: fmt.Sprintf("%s characters by id", verb),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := store.SetEnabled(id, enabled); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "%sd %s", verb, id)
			}
			return nil
		},
	}
}

func openSettings() (*settings.Store, error) {
	cfg, err := loadGalleryConfig(configPath)
	if err != nil {
		return nil, err
	}
	path, err := cfg.settingsPath()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(path), nil
}

func renderRoster(roster []characters.Character) string {
	rows := make([][]string, 0, len(roster))
	for _, c := range roster {
		status := "off"
		if c.Enabled {
			status = "on"
		}
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.DisplayAvatar() + " " + c.Name)
		rows = append(rows, []string{c.ID, name, status, c.Summary})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "ENABLED", "SUMMARY").
		Rows(rows...).
		String()
}
