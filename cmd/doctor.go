package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and storage",
	Long: `Runs a health check on your tzcompare setup:

  - Config file permissions (should not be writable by others)
  - Config values (flush interval, dashboard address)
  - Home time zone and the zone mapping table
  - Database reachability and integrity
  - Stored locations (malformed records, unknown zones, missing home)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfig()
		if err != nil {
			return err
		}
		fails := doctor.Run(os.Stdout, cfg, cfgPath)
		if fails > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
