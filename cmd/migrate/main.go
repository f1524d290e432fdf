package main

import (
	"context"
	"log"
	"time"

	"github.com/oggyb/exotel-gateway/internal/config"
	"github.com/oggyb/exotel-gateway/internal/db/gormdb"
	"github.com/oggyb/exotel-gateway/internal/logger"
	mesgRepo "github.com/oggyb/exotel-gateway/internal/repository/gorm/message"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Only the DB section is needed here; Exotel credentials are not checked.
	cfg := config.New()

	zl, err := logger.New(cfg.App.Name+"-migrate", cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := gormdb.New(cfg.PostgresDSN())
	if err != nil {
		zl.Fatal("failed to connect to database", zap.String("db", cfg.DB.Name), zap.Error(err))
	}
	defer db.Close()

	zl.Info("connected to database", zap.String("db", cfg.DB.Name))

	if err := mesgRepo.NewRepository(db).Migrate(ctx); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	zl.Info("outbox table is up to date", zap.String("table", mesgRepo.MessageModel{}.TableName()))
}
