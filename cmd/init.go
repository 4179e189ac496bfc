package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/config"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var initSeed bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tzcompare configuration",
	Long: `Creates the configuration directory and default config file at
~/.tzcompare/config.yaml. With --seed, the cities listed under "seed" are
added to the stored locations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			path, err = config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine config path: %w", err)
			}
		}

		var cfg *config.Config
		if _, err := os.Stat(path); err == nil {
			loaded, loadErr := config.Load(path)
			if loadErr != nil {
				return fmt.Errorf("load existing config: %w", loadErr)
			}
			if err := config.SaveWithComments(path, loaded); err != nil {
				return fmt.Errorf("update config: %w", err)
			}
			cfg = loaded
			fmt.Printf("Configuration updated at %s (merged new defaults)\n", path)
		} else {
			def := config.DefaultConfig()
			if err := config.SaveWithComments(path, &def); err != nil {
				return fmt.Errorf("create config: %w", err)
			}
			cfg = &def
			fmt.Printf("Configuration initialized at %s\n", path)
		}

		if initSeed {
			if err := seedLocations(cmd.Context(), cfg); err != nil {
				return err
			}
		}

		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  1. Add the places you care about:")
		fmt.Println("     tzcompare add Tokyo Asia/Tokyo")
		fmt.Println()
		fmt.Println("  2. Watch them side by side:")
		fmt.Println("     tzcompare show")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initSeed, "seed", false, "add the configured seed cities")
}

func seedLocations(ctx context.Context, cfg *config.Config) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	added := 0
	for _, city := range cfg.Seed {
		_, err := st.Add(city.Name, city.Timezone)
		switch {
		case err == nil:
			added++
		case errors.Is(err, locations.ErrDuplicateLabel):
		default:
			return fmt.Errorf("seed %s: %w", city.Name, err)
		}
	}
	fmt.Printf("Seeded %d location(s)\n", added)
	return nil
}
