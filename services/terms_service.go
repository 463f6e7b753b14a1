package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkdesk/commission-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TermsInput is the artist's terms of service form
type TermsInput struct {
	Version  string
	Content  string
	IsActive bool
}

// TermsService manages versioned terms of service with a single active row
type TermsService struct {
	db *gorm.DB
}

// NewTermsService creates a new terms service
func NewTermsService(db *gorm.DB) *TermsService {
	return &TermsService{db: db}
}

// Active returns the active terms, or nil when none is active
func (s *TermsService) Active(ctx context.Context) (*models.TermsOfService, error) {
	var tos models.TermsOfService
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&tos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tos, nil
}

// List returns every version, newest first
func (s *TermsService) List(ctx context.Context) ([]models.TermsOfService, error) {
	var list []models.TermsOfService
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// Create stores a new version. An active version deactivates every other one
// in the same transaction.
func (s *TermsService) Create(ctx context.Context, editorID uint, input TermsInput) (*models.TermsOfService, error) {
	tos := &models.TermsOfService{
		Version:     input.Version,
		Content:     input.Content,
		IsActive:    input.IsActive,
		UpdatedByID: &editorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.IsActive {
			if err := deactivateTerms(tx, 0); err != nil {
				return err
			}
		}
		return tx.Create(tos).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, s.createConflict(ctx, tos.Version)
		}
		return nil, fmt.Errorf("failed to create terms of service: %w", err)
	}

	log.Info().Str("version", tos.Version).Bool("active", tos.IsActive).Msg("terms of service created")
	return tos, nil
}

// Activate makes id the only active version
func (s *TermsService) Activate(ctx context.Context, editorID, id uint) (*models.TermsOfService, error) {
	var tos models.TermsOfService
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tos, id).Error; err != nil {
			return notFound(err)
		}
		if err := deactivateTerms(tx, id); err != nil {
			return err
		}
		return tx.Model(&tos).Updates(map[string]interface{}{
			"is_active":     true,
			"updated_by_id": editorID,
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTermsActivationConflict
		}
		return nil, err
	}

	tos.IsActive = true
	tos.UpdatedByID = &editorID
	return &tos, nil
}

// createConflict tells a duplicate version apart from a concurrent activation,
// both of which surface as unique violations
func (s *TermsService) createConflict(ctx context.Context, version string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TermsOfService{}).Where("version = ?", version).Count(&count).Error
	if err == nil && count == 0 {
		return ErrTermsActivationConflict
	}
	return ErrVersionTaken
}

func deactivateTerms(tx *gorm.DB, keepID uint) error {
	return tx.Model(&models.TermsOfService{}).
		Where("is_active = ? AND id <> ?", true, keepID).
		Update("is_active", false).Error
}
