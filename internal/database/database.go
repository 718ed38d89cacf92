package database

import (
	"log"
	"os"
	"time"

	"livetalk/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) {
	var err error

	// Configure GORM logger
	customLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: customLogger,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established.")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migrated successfully.")
}

// Migrate runs schema migrations and seeds the game settings row.
// It is separated from Connect so tests can run it against their own DB.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Seat{},
		&models.Contributor{},
		&models.ChatMessage{},
		&models.Gift{},
		&models.GiftEvent{},
		&models.GameSettings{},
		&models.LuckyBag{},
		&models.LuckyBagClaim{},
		&models.Banner{},
		&models.VIPPackage{},
		&models.StoreItem{},
		&models.SpecialIDItem{},
		&models.ExternalGame{},
		&models.Emoji{},
		&models.Background{},
	)
	if err != nil {
		return err
	}

	// Seed the singleton settings row on first run.
	var count int64
	if err := db.Model(&models.GameSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		settings := models.DefaultGameSettings()
		if err := db.Create(&settings).Error; err != nil {
			return err
		}
	}
	return nil
}
