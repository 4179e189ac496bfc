package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage the notes shown under a location",
	Long: `Notes are short annotations shown under a location, such as who works
there or their office hours. N is the 1-based position of a note.

Examples:
  tzcompare note add Tokyo "Design team"
  tzcompare note set Tokyo 1 "Design team, 10:00-19:00"
  tzcompare note rm Tokyo 1`,
}

var noteAddCmd = &cobra.Command{
	Use:   "add REF TEXT...",
	Short: "Append a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		return editNotes(args[0], func(st *locations.Store, loc locations.Location) (locations.Location, error) {
			return st.AddSecondaryLabel(loc.ID, text)
		})
	},
}

var noteSetCmd = &cobra.Command{
	Use:   "set REF N TEXT...",
	Short: "Replace a note",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseNoteIndex(args[1])
		if err != nil {
			return err
		}
		text := strings.Join(args[2:], " ")
		return editNotes(args[0], func(st *locations.Store, loc locations.Location) (locations.Location, error) {
			if err := checkNoteIndex(loc, index); err != nil {
				return locations.Location{}, err
			}
			return st.SetSecondaryLabel(loc.ID, index, text)
		})
	},
}

var noteRemoveCmd = &cobra.Command{
	Use:     "rm REF N",
	Aliases: []string{"remove"},
	Short:   "Remove a note",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseNoteIndex(args[1])
		if err != nil {
			return err
		}
		return editNotes(args[0], func(st *locations.Store, loc locations.Location) (locations.Location, error) {
			if err := checkNoteIndex(loc, index); err != nil {
				return locations.Location{}, err
			}
			return st.RemoveSecondaryLabel(loc.ID, index)
		})
	},
}

func init() {
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteSetCmd)
	noteCmd.AddCommand(noteRemoveCmd)
	rootCmd.AddCommand(noteCmd)
}

func editNotes(ref string, edit func(*locations.Store, locations.Location) (locations.Location, error)) error {
	return withStore(func(_ context.Context, st *locations.Store) error {
		loc, err := st.Lookup(ref)
		if err != nil {
			return err
		}
		loc, err = edit(st, loc)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", loc.Name)
		if len(loc.SecondaryLabels) == 0 {
			fmt.Println("  (no notes)")
		}
		for i, note := range loc.SecondaryLabels {
			fmt.Printf("  %d. %s\n", i+1, note)
		}
		return nil
	})
}

// parseNoteIndex turns a 1-based position into a slice index.
func parseNoteIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("note position must be a number from 1, got %q", s)
	}
	return n - 1, nil
}

// checkNoteIndex reports a missing note by its 1-based position.
func checkNoteIndex(loc locations.Location, index int) error {
	if index >= len(loc.SecondaryLabels) {
		return fmt.Errorf("%w: %s has no note %d", locations.ErrNotFound, loc.Name, index+1)
	}
	return nil
}
