package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gobeaver/folio"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	folio.Version = version

	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio backend with validated image uploads",
		Long: `Folio serves a portfolio project API and stores the images attached to
projects after checking their declared type and their magic bytes.

Configuration is read from BEAVER_FOLIO_* environment variables.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		seedCmd(),
		sweepCmd(),
		hashPasswordCmd(),
	)
	return cmd
}

// openApp loads configuration from the environment and wires the app.
func openApp(ctx context.Context) (*folio.App, error) {
	cfg, err := folio.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return folio.NewApp(ctx, cfg, folio.NewLogger(cfg))
}
