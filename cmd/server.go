package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/wikiwalk/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the map server",
	Long:  `Starts the local map server: the map page, the JSON API and the websocket that keeps markers in step with the map.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:          port,
			AllowAll:      cfg.Server.AllowAllOrigins,
			DefaultCenter: cfg.Center(),
			DefaultZoom:   cfg.Map.Zoom,
			DefaultRadius: cfg.Search.Radius,
			Limit:         cfg.Search.Limit,
			AutoSearch:    cfg.Search.AutoSearch,
		}, database, newWikiClient(cfg))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "wikiwalk server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Wiki: %s\n", cfg.Wiki.APIEndpoint())
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Open http://localhost:%d/ in your browser\n", port)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
