package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/dashboard"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Serves the locations as a web page and a JSON API. The server rereads
the saved locations on every clock tick and before every change, so edits
made from the command line show up on the page within a second.

Examples:
  tzcompare serve                     # Uses dashboard.addr from the config
  tzcompare serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		addr := cfg.Dashboard.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signalContext()
		defer stop()

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		return serve(ctx, st, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func serve(ctx context.Context, st *locations.Store, addr string) error {
	drv := clock.NewDriver(st.SetCurrentTime, clock.WithShowSeconds(st.Settings().ShowSeconds))
	go drv.Run(ctx)

	mux := http.NewServeMux()
	dashboard.New(st, drv).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Println()
	fmt.Printf("  %s\n", color.New(color.Bold).Sprint("tzcompare dashboard"))
	fmt.Printf("  %s  %s\n", color.New(color.Faint).Sprint("Listening:"), color.GreenString("http://%s", addr))
	fmt.Println()
	fmt.Println(color.New(color.Faint).Sprint("  Press Ctrl+C to stop"))
	fmt.Println()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
