package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All returns every persisted model in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&ArtistProfile{},
		&ServiceType{},
		&Sample{},
		&TermsOfService{},
		&OrderSequence{},
		&Order{},
		&Payment{},
		&OrderProgress{},
		&Message{},
	}
}

// Migrate creates or updates the schema. On dialects with partial indexes it also
// adds a unique index that admits a single active terms-of-service row.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		if err := db.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_terms_single_active ON terms_of_services (is_active) WHERE is_active",
		).Error; err != nil {
			return fmt.Errorf("failed to create single-active index: %w", err)
		}
	}

	return nil
}
