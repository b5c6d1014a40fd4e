package storage

import (
	"fmt"
	"log/slog"

	"github.com/potluckhq/potluck-manager/pkg/config"
	"github.com/potluckhq/potluck-manager/pkg/model"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDatabase opens the database and runs the migrations. The gorm logger is
// bridged into the application's slog logger.
func NewDatabase(c config.Postgresql, logger *slog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", c.Host, c.Username, c.Password, c.DatabaseName, c.Port)

	databaseConfig := gorm.Config{
		Logger: slogGorm.New(slogGorm.WithHandler(logger.Handler())),
	}

	db, err := gorm.Open(postgres.Open(dsn), &databaseConfig)
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&model.Potluck{},
		&model.PotluckItem{},
		&model.GuildSettings{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
