// Package main seeds the database with a common user, a merchant and funded
// wallets for local development.
package main

import (
	"log"
	"time"

	"github.com/Joaovitor12j/simplified-platform/internal/config"
	"github.com/Joaovitor12j/simplified-platform/internal/models"
	"github.com/Joaovitor12j/simplified-platform/internal/money"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()

	db, err := storage.Open(storage.Config{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		Port:            config.GetEnv("DB_PORT", "5432"),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Name:            config.GetEnv("DB_NAME", "simplified_platform"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	seedUser(db, "Alice Souza", "12345678901", "alice@example.com", models.UserTypeCommon, "1000.00")
	seedUser(db, "Corner Store", "98765432000199", "store@example.com", models.UserTypeMerchant, "0.00")

	log.Println("seed completed")
}

func seedUser(db *gorm.DB, name, document, email, userType, balance string) {
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("user %s already exists, skipping", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(config.GetEnv("SEED_PASSWORD", "password")), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Name:     name,
		Document: document,
		Email:    email,
		Password: string(hash),
		Type:     userType,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		wallet := models.Wallet{
			UserID:  user.ID,
			Balance: money.MustParse(balance).Decimal(),
		}
		return tx.Create(&wallet).Error
	})
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", email, err)
	}

	log.Printf("seeded %s user %s with balance %s", userType, email, balance)
}
