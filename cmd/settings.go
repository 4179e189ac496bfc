package cmd

import (
	"context"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View or change display preferences",
	Long: `Shows the display preferences, or changes them with key=value pairs.

Keys:
  seconds        show seconds (on/off)
  24h            24-hour clock (on/off)
  abbreviation   show zone abbreviations (on/off)
  theme          light, dark or system

Examples:
  tzcompare settings
  tzcompare settings set seconds=on theme=dark`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ context.Context, st *locations.Store) error {
			writeSettingsTable(os.Stdout, st.Settings())
			return nil
		})
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show display preferences",
	Args:  cobra.NoArgs,
	RunE:  settingsCmd.RunE,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change display preferences",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseAssignments(args)
		if err != nil {
			return err
		}
		return withStore(func(_ context.Context, st *locations.Store) error {
			s, err := st.UpdateSettings(p)
			if err != nil {
				return err
			}
			writeSettingsTable(os.Stdout, s)
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func parseAssignments(args []string) (settings.Patch, error) {
	patches := make([]settings.Patch, 0, len(args))
	for _, arg := range args {
		p, err := settings.ParseAssignment(arg)
		if err != nil {
			return settings.Patch{}, err
		}
		patches = append(patches, p)
	}
	return settings.Merge(patches...), nil
}

func writeSettingsTable(w io.Writer, s settings.Settings) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"seconds", onOff(s.ShowSeconds)})
	table.Append([]string{"24h", onOff(s.Use24HourFormat)})
	table.Append([]string{"abbreviation", onOff(s.ShowTimezoneAbbreviation)})
	table.Append([]string{"theme", string(s.Theme)})
	table.Render()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
