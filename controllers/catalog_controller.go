package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// ServiceTypeRequest represents the request body for creating or updating a service type
type ServiceTypeRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Price       *int64 `json:"price" binding:"required,gte=0"`
	IsActive    *bool  `json:"is_active"`
}

// SampleRequest represents the multipart form for adding a sample
type SampleRequest struct {
	ServiceTypeID uint   `form:"service_type_id" binding:"required"`
	Title         string `form:"title" binding:"required,max=200"`
	Description   string `form:"description"`
	DisplayOrder  int    `form:"display_order"`
}

// TermsRequest represents the request body for a new terms of service version
type TermsRequest struct {
	Version  string `json:"version" binding:"required,max=20"`
	Content  string `json:"content" binding:"required"`
	IsActive bool   `json:"is_active"`
}

func (r ServiceTypeRequest) input() services.ServiceTypeInput {
	return services.ServiceTypeInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Active:      r.IsActive,
	}
}

// GetCatalog handles GET /api/v1/catalog?service=&page= - the public landing data
func GetCatalog(c *gin.Context) {
	db := config.GetDB()
	catalog, err := services.NewCatalogService(db).Catalog(
		c.Request.Context(),
		services.NewTermsService(db),
		c.Query("service"),
		c.Query("page"),
	)
	if err != nil {
		respondServiceError(c, err, "CATALOG_NOT_FOUND")
		return
	}

	for i := range catalog.Samples.Samples {
		decorateSample(c.Request.Context(), &catalog.Samples.Samples[i])
	}

	utils.RespondSuccess(c, http.StatusOK, catalog)
}

// GetActiveTerms handles GET /api/v1/tos - returns the active terms or null
func GetActiveTerms(c *gin.Context) {
	tos, err := services.NewTermsService(config.GetDB()).Active(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "TOS_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, tos)
}

// ListServiceTypes handles GET /api/v1/artist/services
func ListServiceTypes(c *gin.Context) {
	list, err := services.NewCatalogService(config.GetDB()).ListServices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, list)
}

// CreateServiceType handles POST /api/v1/artist/services
func CreateServiceType(c *gin.Context) {
	var req ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	service, err := services.NewCatalogService(config.GetDB()).CreateService(c.Request.Context(), req.input())
	if err != nil {
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, service)
}

// UpdateServiceType handles PUT /api/v1/artist/services/:id
func UpdateServiceType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	service, err := services.NewCatalogService(config.GetDB()).UpdateService(c.Request.Context(), id, req.input())
	if err != nil {
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, service)
}

// DeleteServiceType handles DELETE /api/v1/artist/services/:id - refused while orders reference it
func DeleteServiceType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := services.NewCatalogService(config.GetDB()).DeleteService(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSamples handles GET /api/v1/artist/samples
func ListSamples(c *gin.Context) {
	samples, err := services.NewCatalogService(config.GetDB()).ListSamples(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SAMPLE_NOT_FOUND")
		return
	}

	for i := range samples {
		decorateSample(c.Request.Context(), &samples[i])
	}
	utils.RespondSuccess(c, http.StatusOK, samples)
}

// CreateSample handles POST /api/v1/artist/samples (multipart with an image file)
func CreateSample(c *gin.Context) {
	var req SampleRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	imageKey, ok := uploadFile(c, "image", utils.CategorySample, true)
	if !ok {
		return
	}

	sample, err := services.NewCatalogService(config.GetDB()).CreateSample(c.Request.Context(), services.SampleInput{
		ServiceTypeID: req.ServiceTypeID,
		Title:         req.Title,
		Description:   req.Description,
		DisplayOrder:  req.DisplayOrder,
		ImageKey:      *imageKey,
	})
	if err != nil {
		discardUpload(c.Request.Context(), imageKey)
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	decorateSample(c.Request.Context(), sample)
	utils.RespondSuccess(c, http.StatusCreated, sample)
}

// ListTerms handles GET /api/v1/artist/tos - every version, newest first
func ListTerms(c *gin.Context) {
	list, err := services.NewTermsService(config.GetDB()).List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "TOS_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, list)
}

// CreateTerms handles POST /api/v1/artist/tos
func CreateTerms(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req TermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	tos, err := services.NewTermsService(config.GetDB()).Create(c.Request.Context(), user.ID, services.TermsInput{
		Version:  req.Version,
		Content:  req.Content,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "TOS_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusCreated, tos)
}

// ActivateTerms handles PUT /api/v1/artist/tos/:id/activate
func ActivateTerms(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tos, err := services.NewTermsService(config.GetDB()).Activate(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err, "TOS_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, tos)
}
