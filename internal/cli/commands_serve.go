package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relawanhub/relawan/internal/logging"
	"github.com/relawanhub/relawan/internal/server"
	"github.com/relawanhub/relawan/internal/telemetry"
	"github.com/spf13/cobra"
)

func newServeCommand(deps Dependencies) *cobra.Command {
	var port int
	var verbose bool

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the map link, locate, and badge endpoints over HTTP with Prometheus metrics and OpenTelemetry tracing.",
		Example: "RELAWAN_TELEMETRY_ENABLED=true relawan serve --port 8080",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := deps.settings()
			if port > 0 {
				settings.Server.Port = port
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			level := settings.Log.Level
			if verbose {
				level = "debug"
			}
			logger := logging.Setup(level, settings.Log.Format, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Init(ctx, settings.Telemetry, telemetry.Build{
				Version:      resolvedVersion(deps.Version),
				RegionPolicy: settings.Region.Policy,
			}, cmd.ErrOrStderr(), logger)
			if err != nil {
				return err
			}
			defer telemetry.Shutdown(context.Background(), shutdownTracing, logger)

			app := server.New(server.Dependencies{
				Settings: settings,
				Location: deps.Location,
				Cache:    deps.Cache,
				Logger:   logger,
				Version:  resolvedVersion(deps.Version),
			})
			return server.Run(ctx, app, fmt.Sprintf(":%d", settings.Server.Port))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port. Defaults to server.port from settings.")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging.")
	return cmd
}
