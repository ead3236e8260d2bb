package common

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// LoadEnv reads .env into the process environment. Missing file is fine,
// production deployments set real environment variables instead.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using process environment")
	}
}

func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("SQLITE_DB")
	if dbFile == "" {
		dbFile = "blog.db"
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", dbFile)
	return db
}

// ConnectAnalyticsDb opens the separate analytics database, or nil when
// analytics is not configured.
func ConnectAnalyticsDb() *gorm.DB {
	analyticsDbFile := os.Getenv("ANALYTICS_DB")
	if analyticsDbFile == "" {
		log.Println("ANALYTICS_DB not set - analytics will be disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(analyticsDbFile), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Println("Error opening analytics sqlite db: " + err.Error())
		return nil
	}

	log.Println("opened analytics sqlite db at:", analyticsDbFile)
	return db
}
