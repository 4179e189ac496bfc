package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/display"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var (
	showOnce bool
	showHour int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Live view of all locations",
	Long: `Shows every location with its local time, ordered by UTC offset and
painted with the color of its hour. The view refreshes every second, or
twice a second when seconds are shown.

Keys:
  up, k, +     move the home hour forward
  down, j, -   move the home hour back
  r            back to live time
  s            toggle seconds
  t            toggle 12/24-hour clock
  q, esc       quit

Examples:
  tzcompare show              # Live view
  tzcompare show --hour 9     # Start at 09:00 home time
  tzcompare show --once       # Print a single frame`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hourSet := cmd.Flags().Changed("hour")
		return withStore(func(ctx context.Context, st *locations.Store) error {
			if showOnce || !term.IsTerminal(int(os.Stdout.Fd())) {
				drv := clock.NewDriver(st.SetCurrentTime)
				if hourSet {
					if err := drv.SetHour(showHour, homeLocation(st)); err != nil {
						return err
					}
				} else {
					drv.Tick()
				}
				display.Render(os.Stdout, display.FrameOf(st, drv.Now(), drv.Manual()))
				return nil
			}

			if !verbose {
				log.SetOutput(io.Discard)
				defer log.SetOutput(os.Stderr)
			}
			view := display.NewView(st, os.Stdout, os.Stdin)
			if hourSet {
				if err := view.Driver().SetHour(showHour, homeLocation(st)); err != nil {
					return err
				}
			}
			return view.Run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showOnce, "once", false, "print one frame and exit")
	showCmd.Flags().IntVar(&showHour, "hour", 0, "start in manual mode at this home hour (0-23)")
}

// homeLocation is the zone of the home entry, or local time without one.
func homeLocation(st *locations.Store) *time.Location {
	home, ok := st.Home()
	if !ok {
		return time.Local
	}
	return st.Resolver().LocationOrLocal(home.Label)
}
