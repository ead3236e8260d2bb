package database

import (
	"log"

	"inkpress/models"

	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Category{},
		&models.PostCategory{},
		&models.ContentWidget{},
		&models.WidgetOrder{},
		&models.SearchBarSetting{},
		&models.CategoryDisplaySetting{},
		&models.Social{},
	)

	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}
