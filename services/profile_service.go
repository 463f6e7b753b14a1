package services

import (
	"context"
	"fmt"

	"github.com/inkdesk/commission-api/models"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// ProfileInput is the artist's profile form. New attachment keys replace the
// stored ones only when set.
type ProfileInput struct {
	Bio               string
	BankName          string
	BankAccountNumber string
	BankAccountName   string
	AvatarKey         *string
	BankQRKey         *string
}

// profileText is the part of ProfileInput copied onto the stored profile
type profileText struct {
	Bio               string
	BankName          string
	BankAccountNumber string
	BankAccountName   string
}

// ProfileService manages the artist profile
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetOrCreate returns the profile of userID, creating an empty one on first access
func (s *ProfileService) GetOrCreate(ctx context.Context, userID uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	err := s.db.WithContext(ctx).
		Where(models.ArtistProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load artist profile: %w", err)
	}
	return &profile, nil
}

// ArtistProfile returns the profile of the studio's artist account
func (s *ProfileService) ArtistProfile(ctx context.Context) (*models.ArtistProfile, error) {
	var artist models.User
	err := s.db.WithContext(ctx).Where("role = ?", models.RoleArtist).Order("id ASC").First(&artist).Error
	if err != nil {
		return nil, notFound(err)
	}
	return s.GetOrCreate(ctx, artist.ID)
}

// Update overwrites the text fields of the profile and swaps in new attachments.
// Replaced attachments are deleted after the update commits.
func (s *ProfileService) Update(ctx context.Context, userID uint, input ProfileInput) (*models.ArtistProfile, error) {
	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	text := profileText{
		Bio:               input.Bio,
		BankName:          input.BankName,
		BankAccountNumber: input.BankAccountNumber,
		BankAccountName:   input.BankAccountName,
	}
	if err := copier.Copy(profile, &text); err != nil {
		return nil, fmt.Errorf("failed to map profile input: %w", err)
	}

	var replaced []string
	if input.AvatarKey != nil {
		if profile.AvatarKey != nil && *profile.AvatarKey != *input.AvatarKey {
			replaced = append(replaced, *profile.AvatarKey)
		}
		profile.AvatarKey = input.AvatarKey
	}
	if input.BankQRKey != nil {
		if profile.BankQRKey != nil && *profile.BankQRKey != *input.BankQRKey {
			replaced = append(replaced, *profile.BankQRKey)
		}
		profile.BankQRKey = input.BankQRKey
	}

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to save artist profile: %w", err)
	}

	DeleteAttachments(ctx, replaced...)
	return profile, nil
}
