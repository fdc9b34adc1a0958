// Einmaliges Seeding der Demo-Daten. Löscht alle Inhalte und legt den
// Demo-Datensatz neu an; nicht gegen eine produktive Datenbank ausführen.
package main

import (
	"context"
	"log"
	"time"

	"vox-backend/config"
	"vox-backend/models"
	"vox-backend/seed"
	"vox-backend/storage"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Media{},
		&models.User{},
		&models.Lab{},
		&models.Journal{},
		&models.Article{},
		&models.Review{},
		&models.ChangeRequest{},
		&models.SupplementaryMaterial{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	if err := seed.New(db, s3Client, cfg, logging).Run(ctx); err != nil {
		logging.Fatal("Seeding failed", zap.Error(err))
	}
	logging.Info("Seeding finished", zap.Duration("took", time.Since(start)))
}
