package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var addCmd = &cobra.Command{
	Use:   "add NAME LABEL",
	Short: "Add a location",
	Long: `Adds a location. LABEL is an IANA zone ("Asia/Tokyo"), a zone name or
abbreviation ("Pacific Standard Time", "JST") or a city ("tokyo").

Examples:
  tzcompare add Tokyo Asia/Tokyo
  tzcompare add "West Coast" PST`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ context.Context, st *locations.Store) error {
			if !st.Resolver().IsValid(args[1]) {
				log.Printf("WARN: %q is not a known time zone, it will show local time", args[1])
			}
			loc, err := st.Add(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added %s (%s)\n", loc.Name, loc.Label)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove REF",
	Aliases: []string{"rm"},
	Short:   "Remove a location",
	Long:    `Removes a location. The home location cannot be removed.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ context.Context, st *locations.Store) error {
			loc, err := st.Lookup(args[0])
			if err != nil {
				return err
			}
			if err := st.Remove(loc.ID); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", loc.Name)
			return nil
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename REF NAME",
	Short: "Change the name of a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateLocation(args[0], locations.Patch{Name: &args[1]})
	},
}

var relabelCmd = &cobra.Command{
	Use:   "relabel REF LABEL",
	Short: "Change the time zone of a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateLocation(args[0], locations.Patch{Label: &args[1]})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every location and start over from the detected zone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ context.Context, st *locations.Store) error {
			home := st.ResetToCurrentTimezone()
			fmt.Printf("Reset to %s (%s)\n", home.Name, home.Label)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(relabelCmd)
	rootCmd.AddCommand(resetCmd)
}

func updateLocation(ref string, p locations.Patch) error {
	return withStore(func(_ context.Context, st *locations.Store) error {
		loc, err := st.Lookup(ref)
		if err != nil {
			return err
		}
		if p.Label != nil && !st.Resolver().IsValid(*p.Label) {
			log.Printf("WARN: %q is not a known time zone, it will show local time", *p.Label)
		}
		loc, err = st.Update(loc.ID, p)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%s)\n", loc.Name, loc.Label)
		return nil
	})
}
