package cmd

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the zone names and abbreviations accepted as labels",
	Long: `Lists the display names and abbreviations that map to an IANA zone.
Any IANA zone ("Europe/Berlin") and city name ("berlin") is accepted too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Label", "Zone"})
		table.SetBorder(false)
		table.SetColumnSeparator("  ")
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, z := range tz.Zones() {
			table.Append([]string{z.Name, z.ID})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}
