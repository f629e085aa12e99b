package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zacpr/api-explorer/internal/api"
	"github.com/zacpr/api-explorer/internal/events"
	"github.com/zacpr/api-explorer/internal/executor"
	"github.com/zacpr/api-explorer/internal/history"
	"github.com/zacpr/api-explorer/internal/schema"
	"github.com/zacpr/api-explorer/internal/state"
	"github.com/zacpr/api-explorer/internal/storage"
	"github.com/zacpr/api-explorer/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API-Explorer server",
	Long: `Starts the local API-Explorer server.

The server will:
  - Expose the explorer API at /_api/
  - Serve the proxy-mode passthrough at /_proxy/
  - Stream live execution events at /_api/executions/stream

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var portFlag int

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	port := viper.GetInt("server.port")
	host := viper.GetString("server.host")
	storageType := viper.GetString("storage.type")
	storagePath := viper.GetString("storage.path")
	maxEvents := viper.GetInt("events.maxEvents")

	if portFlag > 0 {
		port = portFlag
	}

	// Resolve relative storage path to absolute
	if storagePath != "" && !filepath.IsAbs(storagePath) {
		cwd, err := os.Getwd()
		if err == nil {
			storagePath = filepath.Join(cwd, storagePath)
		}
	}

	log.Printf("Using data directory: %s", storagePath)

	// Initialize storage
	var store storage.Storage
	var err error
	if storageType == "file" {
		store, err = storage.NewFileStorage(storagePath)
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
	} else {
		store = storage.NewMemoryStorage()
	}
	defer store.Close()

	// Initialize services
	schemaSvc := schema.NewService()
	engine := executor.NewEngine()
	credVault := vault.New(store)
	historySvc := history.NewService(store)
	eventSvc := events.NewService(maxEvents)
	appState := state.NewStore()

	execDefaults := executor.Options{
		TimeoutMs: viper.GetInt("execution.timeoutMs"),
		UseProxy:  viper.GetBool("execution.useProxy"),
		ProxyBase: viper.GetString("execution.proxyBase"),
	}

	// Setup router
	router := api.NewRouter(store, schemaSvc, engine, credVault, historySvc, eventSvc, appState, execDefaults)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting API-Explorer server on %s", addr)
		log.Printf("Explorer API available at http://%s/_api/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
