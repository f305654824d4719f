package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/config"
	"github.com/bookmapapp/bookmap/internal/db"
	"github.com/bookmapapp/bookmap/internal/geocode"
	"github.com/bookmapapp/bookmap/internal/server"
	"github.com/bookmapapp/bookmap/internal/uploads"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bookmap catalog server",
	Long:  `Starts the catalog server with the book API, document uploads, and the WebSocket map gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		dbPath := filepath.Join(cfg.Server.DataDir, "bookmap.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		uploadStore, err := uploads.NewStore(filepath.Join(cfg.Server.DataDir, cfg.Server.UploadsDir))
		if err != nil {
			return fmt.Errorf("creating upload store: %w", err)
		}

		geocoder := geocode.NewClient(cfg.Geocoder.BaseURL,
			time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second)

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
			PagesDir: filepath.Join(cfg.Server.DataDir, cfg.Server.PagesDir),
			Map:      cfg.Map,
			Reader:   cfg.Reader,
		}, catalog.NewStore(database), uploadStore, geocoder)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "bookmap server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Uploads: %s\n", uploadStore.Dir())

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
