package controllers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/inkdesk/commission-api/models"
)

// RegisterValidators adds the custom binding rules used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("manual_status", validateManualStatus)
}

// validateManualStatus accepts the statuses the artist may set by hand
func validateManualStatus(fl validator.FieldLevel) bool {
	status := models.OrderStatus(fl.Field().String())
	for _, allowed := range models.ManualStatuses {
		if status == allowed {
			return true
		}
	}
	return false
}
