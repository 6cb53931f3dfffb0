package database

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lingochat/internal/models"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Room{}, &models.Message{}); err != nil {
		return err
	}

	d.db = db

	return nil
}
