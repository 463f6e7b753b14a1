package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/utils"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SamplePageSize is the number of samples per catalog page
const SamplePageSize = 12

// ServiceTypeInput is the artist's service form
type ServiceTypeInput struct {
	Name        string
	Description string
	Price       int64
	Active      *bool
}

// SampleInput is the artist's sample form; ImageKey is already stored
type SampleInput struct {
	ServiceTypeID uint
	Title         string
	Description   string
	DisplayOrder  int
	ImageKey      string
}

// SamplePage is one page of the sample listing
type SamplePage struct {
	Samples []models.Sample `json:"samples"`
	utils.Page
}

// Catalog is the public landing data
type Catalog struct {
	Services        []models.ServiceType   `json:"services"`
	Samples         SamplePage             `json:"samples"`
	TermsOfService  *models.TermsOfService `json:"tos"`
	SelectedService *uint                  `json:"selected_service"`
}

// CatalogService manages service types and samples
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ActiveServices lists the service types customers can order, served from the
// cache when one is configured
func (s *CatalogService) ActiveServices(ctx context.Context) ([]models.ServiceType, error) {
	cache := GetCache()
	var services []models.ServiceType

	if cache != nil {
		hit, err := cache.GetJSON(ctx, activeServicesKey, &services)
		if err != nil {
			log.Warn().Err(err).Msg("catalog cache read failed")
		} else if hit {
			return services, nil
		}
	}

	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.SetJSON(ctx, activeServicesKey, services, catalogCacheTTL); err != nil {
			log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return services, nil
}

// ListServices lists every service type for the artist
func (s *CatalogService) ListServices(ctx context.Context) ([]models.ServiceType, error) {
	var services []models.ServiceType
	err := s.db.WithContext(ctx).Order("id ASC").Find(&services).Error
	return services, err
}

// GetService loads one service type
func (s *CatalogService) GetService(ctx context.Context, id uint) (*models.ServiceType, error) {
	var service models.ServiceType
	if err := s.db.WithContext(ctx).First(&service, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

// CreateService adds a service type with a unique slug derived from its name
func (s *CatalogService) CreateService(ctx context.Context, input ServiceTypeInput) (*models.ServiceType, error) {
	var service models.ServiceType
	if err := copier.Copy(&service, &input); err != nil {
		return nil, fmt.Errorf("failed to map service input: %w", err)
	}
	service.IsActive = input.Active == nil || *input.Active

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unique, err := uniqueSlug(tx, service.Name, 0)
		if err != nil {
			return err
		}
		service.Slug = unique
		if err := tx.Create(&service).Error; err != nil {
			return err
		}
		// a false zero value is skipped in favour of the column default
		if input.Active != nil && !*input.Active {
			if err := tx.Model(&service).Update("is_active", false).Error; err != nil {
				return err
			}
			service.IsActive = false
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service type: %w", err)
	}

	s.invalidate(ctx)
	return &service, nil
}

// UpdateService overwrites a service type; renaming regenerates the slug
func (s *CatalogService) UpdateService(ctx context.Context, id uint, input ServiceTypeInput) (*models.ServiceType, error) {
	var service models.ServiceType
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&service, id).Error; err != nil {
			return notFound(err)
		}

		renamed := service.Name != input.Name
		if err := copier.Copy(&service, &input); err != nil {
			return err
		}
		if input.Active != nil {
			service.IsActive = *input.Active
		}
		if renamed {
			unique, err := uniqueSlug(tx, service.Name, service.ID)
			if err != nil {
				return err
			}
			service.Slug = unique
		}
		return tx.Save(&service).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &service, nil
}

// DeleteService removes a service type and its samples. A service type that any
// order refers to cannot be deleted.
func (s *CatalogService) DeleteService(ctx context.Context, id uint) error {
	var sampleKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var service models.ServiceType
		if err := tx.First(&service, id).Error; err != nil {
			return notFound(err)
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("service_type_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return ErrServiceTypeInUse
		}

		if err := tx.Model(&models.Sample{}).Where("service_type_id = ?", id).Pluck("image_key", &sampleKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("service_type_id = ?", id).Delete(&models.Sample{}).Error; err != nil {
			return err
		}
		return tx.Delete(&service).Error
	})
	if err != nil {
		return err
	}

	DeleteAttachments(ctx, sampleKeys...)
	s.invalidate(ctx)
	return nil
}

// CreateSample adds a portfolio sample to an existing service type
func (s *CatalogService) CreateSample(ctx context.Context, input SampleInput) (*models.Sample, error) {
	if _, err := s.GetService(ctx, input.ServiceTypeID); err != nil {
		return nil, err
	}

	var sample models.Sample
	if err := copier.Copy(&sample, &input); err != nil {
		return nil, fmt.Errorf("failed to map sample input: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return nil, fmt.Errorf("failed to create sample: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("ServiceType").First(&sample, sample.ID).Error; err != nil {
		return nil, err
	}
	return &sample, nil
}

// ListSamples returns every sample in listing order
func (s *CatalogService) ListSamples(ctx context.Context) ([]models.Sample, error) {
	var samples []models.Sample
	err := s.db.WithContext(ctx).Preload("ServiceType").Order(models.SampleOrdering).Find(&samples).Error
	return samples, err
}

// SamplePage returns one page of samples, optionally filtered by service type.
// rawService and rawPage are the unparsed query values.
func (s *CatalogService) SamplePage(ctx context.Context, rawService, rawPage string) (SamplePage, *uint, error) {
	var selected *uint
	if id, err := strconv.ParseUint(strings.TrimSpace(rawService), 10, 64); err == nil {
		serviceID := uint(id)
		selected = &serviceID
	}
	byService := func(db *gorm.DB) *gorm.DB {
		if selected == nil {
			return db
		}
		return db.Where("samples.service_type_id = ?", *selected)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Sample{}).Scopes(byService).Count(&total).Error; err != nil {
		return SamplePage{}, nil, err
	}

	page := utils.ResolvePage(rawPage, SamplePageSize, total)
	samples := make([]models.Sample, 0, SamplePageSize)
	err := s.db.WithContext(ctx).Scopes(byService).
		Preload("ServiceType").
		Order(models.SampleOrdering).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&samples).Error
	if err != nil {
		return SamplePage{}, nil, err
	}

	return SamplePage{Samples: samples, Page: page}, selected, nil
}

// Catalog assembles the public landing data
func (s *CatalogService) Catalog(ctx context.Context, terms *TermsService, rawService, rawPage string) (*Catalog, error) {
	services, err := s.ActiveServices(ctx)
	if err != nil {
		return nil, err
	}

	page, selected, err := s.SamplePage(ctx, rawService, rawPage)
	if err != nil {
		return nil, err
	}

	tos, err := terms.Active(ctx)
	if err != nil {
		return nil, err
	}

	return &Catalog{Services: services, Samples: page, TermsOfService: tos, SelectedService: selected}, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if cache := GetCache(); cache != nil {
		if err := cache.Delete(ctx, activeServicesKey); err != nil {
			log.Warn().Err(err).Msg("catalog cache invalidation failed")
		}
	}
}

// uniqueSlug slugifies name and appends -2, -3, ... until no other service type uses it
func uniqueSlug(tx *gorm.DB, name string, selfID uint) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "service"
	}

	candidate := base
	for counter := 2; ; counter++ {
		var count int64
		err := tx.Model(&models.ServiceType{}).
			Where("slug = ? AND id <> ?", candidate, selfID).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
