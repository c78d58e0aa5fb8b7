package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/infrastructure/repositories"
	"defiant.backend/internal/usecases"
)

var openKeyGenDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{PrepareStmt: false, TranslateError: true})
}

// apikey-gen mints an API key for a merchant directly against the database.
// Intended for bootstrapping the first admin key; afterwards keys are managed
// through the dashboard API.
func main() {
	merchantFlag := flag.String("merchant", "", "merchant ID (required)")
	nameFlag := flag.String("name", "bootstrap", "key name")
	permsFlag := flag.String("permissions", "admin", "comma-separated permissions: read,write,admin")
	flag.Parse()

	if err := run(*merchantFlag, *nameFlag, *permsFlag); err != nil {
		log.Fatal(err)
	}
}

func run(merchantStr, name, permsStr string) error {
	merchantID, err := uuid.Parse(merchantStr)
	if err != nil {
		return fmt.Errorf("invalid -merchant: %w", err)
	}

	var permissions []entities.ApiKeyPermission
	for _, p := range strings.Split(permsStr, ",") {
		permissions = append(permissions, entities.ApiKeyPermission(strings.TrimSpace(p)))
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := openKeyGenDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to init sql db: %w", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()

	merchantRepo := repositories.NewMerchantRepository(db)
	if _, err := merchantRepo.GetByID(ctx, merchantID); err != nil {
		return fmt.Errorf("merchant lookup failed: %w", err)
	}

	apiKeyUsecase := usecases.NewApiKeyUsecase(repositories.NewApiKeyRepository(db))
	key, fullKey, err := apiKeyUsecase.CreateApiKey(ctx, merchantID, name, permissions, nil)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	fmt.Println("Generated API key (store it now, it is not shown again)")
	fmt.Printf("KEY_ID=%s\n", key.ID)
	fmt.Printf("API_KEY=%s\n", fullKey)
	return nil
}
