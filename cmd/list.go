package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/display"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the locations once",
	Long: `Prints every location with its current time, ordered by UTC offset.
The # column is the row number accepted wherever a REF is expected.

Examples:
  tzcompare list                 # Table
  tzcompare list --format json   # Rows as JSON`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ context.Context, st *locations.Store) error {
			now := time.Now()
			st.SetCurrentTime(now)
			rows := display.Rows(st.Locations(), st.Resolver(), now, st.Settings())
			switch listFormat {
			case "json":
				return writeRowsJSON(os.Stdout, rows)
			case "table", "":
				writeRowsTable(os.Stdout, rows)
				return nil
			default:
				return fmt.Errorf("unknown format %q (expected table or json)", listFormat)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format: table, json")
}

func writeRowsJSON(w io.Writer, rows []display.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeRowsTable(w io.Writer, rows []display.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Zone", "Time", "Offset", "Relative", "Notes"})
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, row := range rows {
		name := row.Name
		if row.IsHome {
			name += " (home)"
		}
		when := row.Time
		if row.Abbreviation != "" {
			when += " " + row.Abbreviation
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			name,
			row.Zone,
			when + ", " + row.Date,
			row.Offset,
			row.Relative,
			strings.Join(row.SecondaryLabels, "; "),
		})
	}
	table.Render()
}
