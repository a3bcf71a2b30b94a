// Command meltd runs the log search engine's HTTP server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"melt/internal/catalog"
	"melt/internal/config"
	"melt/internal/httpapi"
	"melt/internal/ingest"
	"melt/internal/search"
	"melt/internal/storage/block"
)

var rootCmd = &cobra.Command{
	Use:   "meltd",
	Short: "meltd is the log search engine's ingest and query server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingest/search server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			log.Fatalf("meltd: %v", err)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the resolved configuration and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println(cfg.String())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	factory := block.NewFactory()
	storage, err := factory.Create(block.Config{
		Type:    cfg.Storage.Backend,
		BaseDir: cfg.Storage.Local.BasePath,
		Options: map[string]string{
			"bucket": cfg.Storage.S3.Bucket,
			"region": cfg.Storage.S3.Region,
			"prefix": cfg.Storage.S3.Prefix,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	cat := catalog.New()
	ingestSvc := ingest.New(storage, cat)
	searchSvc := search.New(storage, cat)

	server := httpapi.New(ingestSvc, searchSvc, cfg.RequestTimeout)
	router := server.Router()

	log.Printf("meltd: listening on %s (storage=%s)", cfg.ListenAddr, cfg.Storage.Backend)
	return router.Run(cfg.ListenAddr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
