package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/backend"
	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/service"
	"github.com/youthmultiply/welcoming-college/pkg/config"
	"github.com/youthmultiply/welcoming-college/pkg/logger"
	"github.com/youthmultiply/welcoming-college/pkg/storage"
)

func main() {
	var (
		format   string
		outDir   string
		token    string
		filename string
	)
	flag.StringVar(&format, "format", string(models.ExportFormatXLSX), "Export format: xlsx, pdf or csv")
	flag.StringVar(&outDir, "out", ".", "Directory the export is written to")
	flag.StringVar(&token, "token", os.Getenv("ADMIN_TOKEN"), "Backend bearer token (defaults to $ADMIN_TOKEN)")
	flag.StringVar(&filename, "filename", "", "Output name without extension")
	flag.Parse()

	exportFormat := models.ExportFormat(format)
	if !exportFormat.Valid() {
		log.Fatalf("unsupported format %q", format)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Backend.BaseURL == "" {
		logr.Fatal("API_BASE_URL is required for command line exports")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.Backend, nil, nil, logr)
	exporter := service.NewExportService(client, nil, logr)

	artifact, err := exporter.Build(ctx, token, exportFormat, filename, service.ExportModeCLI)
	if err != nil {
		logr.Fatal("export failed", zap.Error(err))
	}

	store, err := storage.NewLocalStorage(outDir)
	if err != nil {
		logr.Fatal("prepare output directory", zap.Error(err))
	}
	name, err := store.Save(artifact.Filename, artifact.Data)
	if err != nil {
		logr.Fatal("write export", zap.Error(err))
	}
	logr.Info("export written",
		zap.String("path", filepath.Join(store.Dir(), name)),
		zap.String("format", string(artifact.Format)),
		zap.Int("rows", artifact.Rows),
	)
}
