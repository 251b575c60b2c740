package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/davitt-io/granary/internal/config"
	"github.com/davitt-io/granary/internal/database"
	"github.com/davitt-io/granary/internal/export"
	granaryHttp "github.com/davitt-io/granary/internal/http"
	exportHandler "github.com/davitt-io/granary/internal/http/export"
	importHandler "github.com/davitt-io/granary/internal/http/importcsv"
	namingHandler "github.com/davitt-io/granary/internal/http/naming"
	recordHandler "github.com/davitt-io/granary/internal/http/record"
	"github.com/davitt-io/granary/internal/importer"
	"github.com/davitt-io/granary/internal/naming"
	namingStore "github.com/davitt-io/granary/internal/naming/store"
	"github.com/davitt-io/granary/internal/record"
	recordStore "github.com/davitt-io/granary/internal/record/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		recordService = record.NewService(recordStore.New(db), record.NewEngine())
		namingService = naming.NewService(namingStore.New(db))
		importService = importer.NewService()
		exportService = export.NewService(recordService)
	)

	var (
		recordH = recordHandler.NewHandler(recordService)
		importH = importHandler.NewHandler(importService, recordService, namingService)
		namingH = namingHandler.NewHandler(namingService)
		exportH = exportHandler.NewHandler(exportService, recordService)
	)

	router := granaryHttp.New(recordH, importH, namingH, exportH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
