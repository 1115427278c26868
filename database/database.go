package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"worklog/auth"
	"worklog/models"
	"worklog/store"
)

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Project{},
		&models.Task{},
		&models.TimeEntry{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SeedDefaultAdmin creates the admin user on first run.
func SeedDefaultAdmin(ctx context.Context, st store.Store, log zerolog.Logger) error {
	if _, err := st.GetUserByName(ctx, "admin"); err == nil {
		return nil
	}

	hash, err := auth.HashPassword("admin", "admin")
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         "admin",
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := st.CreateUser(ctx, admin); err != nil {
		return err
	}

	log.Info().Str("name", "admin").Msg("default admin user created")
	return nil
}
