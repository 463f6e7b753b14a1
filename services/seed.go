package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkdesk/commission-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultTermsVersion is the version of the seeded terms of service
const DefaultTermsVersion = "v1.0"

var defaultServices = []models.ServiceType{
	{
		Name:        "Sketch Gacha Scan",
		Slug:        "sketch-gacha-scan",
		Description: "Traditional sketch up to bust-up, scanned in high resolution.",
		Price:       90000,
		IsActive:    true,
	},
	{
		Name:        "Sketch Color Gacha",
		Slug:        "sketch-color-gacha",
		Description: "Colored sketch up to bust-up with richer detail.",
		Price:       280000,
		IsActive:    true,
	},
}

const defaultTerms = `1. Scope: commissions are drawn to order, up to bust-up.
2. Ordering: describe your request; orders are reviewed within 24-48 hours.
3. Payment: pay 100% by bank transfer after approval, quoting the order reference. No refunds once work has started.
4. Delivery: 3-5 working days for sketches, 5-7 for colored pieces.
5. Content: no adult, violent or political content.
6. Rights: the customer owns the finished piece; the artist may show it in a portfolio.
7. Revisions: colored pieces include up to two minor revisions.
8. Contact: use the order messages; replies within 24 hours on working days.`

// Seed creates the artist account with its profile, the default service types
// and the first terms of service. Existing rows are left untouched.
func Seed(ctx context.Context, db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var artist models.User
		err := tx.Where("username = ?", username).First(&artist).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := HashPassword(password)
			if err != nil {
				return err
			}
			artist = models.User{Username: username, PasswordHash: hash, Role: models.RoleArtist}
			if err := tx.Create(&artist).Error; err != nil {
				return fmt.Errorf("failed to seed artist: %w", err)
			}
			log.Info().Str("username", username).Msg("seeded artist account")
		} else if err != nil {
			return err
		}

		profile := models.ArtistProfile{UserID: artist.ID}
		if err := tx.Where(models.ArtistProfile{UserID: artist.ID}).FirstOrCreate(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed artist profile: %w", err)
		}

		for _, service := range defaultServices {
			service := service
			if err := tx.Where(models.ServiceType{Name: service.Name}).FirstOrCreate(&service).Error; err != nil {
				return fmt.Errorf("failed to seed service %q: %w", service.Name, err)
			}
		}

		var terms int64
		if err := tx.Model(&models.TermsOfService{}).Where("version = ?", DefaultTermsVersion).Count(&terms).Error; err != nil {
			return err
		}
		if terms == 0 {
			var active int64
			if err := tx.Model(&models.TermsOfService{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
				return err
			}
			tos := models.TermsOfService{
				Version:     DefaultTermsVersion,
				Content:     defaultTerms,
				IsActive:    active == 0,
				UpdatedByID: &artist.ID,
			}
			if err := tx.Create(&tos).Error; err != nil {
				return fmt.Errorf("failed to seed terms of service: %w", err)
			}
		}

		return nil
	})
}
