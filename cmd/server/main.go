package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/csg33k/telekolekting/internal/adapters/memory"
	"github.com/csg33k/telekolekting/internal/adapters/pdf"
	sqliteadapter "github.com/csg33k/telekolekting/internal/adapters/sqlite"
	"github.com/csg33k/telekolekting/internal/adapters/xlsx"
	"github.com/csg33k/telekolekting/internal/config"
	"github.com/csg33k/telekolekting/internal/dashboard"
	"github.com/csg33k/telekolekting/internal/handlers"
	"github.com/csg33k/telekolekting/internal/imaging"
	"github.com/csg33k/telekolekting/internal/ports"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	docs, blobs, closeStores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer closeStores()

	img := imaging.New()
	app := dashboard.New(context.Background(), docs, blobs, img, dashboard.Options{
		MaxPhotoBytes:        cfg.Uploads.MaxPhotoBytes,
		MaxProfilePhotoBytes: cfg.Uploads.MaxProfilePhotoBytes,
		Logger:               logger,
	})
	h := handlers.New(app, logger, xlsx.New(), pdf.New(img))

	log.Printf("Telekolekting KC Tondano running on http://localhost:%s", cfg.Server.Port)
	log.Printf("Config: %s", cfg)
	if err := http.ListenAndServe(cfg.Addr(), h.Routes()); err != nil {
		log.Fatal(err)
	}
}

// openStores opens the metadata and blob stores. With sqlite storage they
// live in two separate database files.
func openStores(cfg *config.Config) (ports.DocumentStore, ports.BlobStore, func(), error) {
	if cfg.Storage.Kind == config.StorageMemory {
		slog.Warn("using in-memory storage; data is lost on restart")
		return memory.NewDocumentStore(), memory.NewBlobStore(), func() {}, nil
	}

	meta, err := sqliteadapter.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var blobDB *sql.DB
	if blobDB, err = sqliteadapter.Open(cfg.Storage.BlobDBPath); err != nil {
		meta.Close()
		return nil, nil, nil, err
	}
	closeAll := func() {
		meta.Close()
		blobDB.Close()
	}
	return sqliteadapter.NewDocumentStore(meta), sqliteadapter.NewBlobStore(blobDB), closeAll, nil
}
