package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/utils"
)

// SettingsController reads and writes the local app settings.
type SettingsController struct {
	local *localstore.Store
}

// NewSettingsController creates a SettingsController.
func NewSettingsController(local *localstore.Store) *SettingsController {
	return &SettingsController{local: local}
}

// Get returns the current settings, defaults included.
func (s *SettingsController) Get(ctx *gin.Context) {
	utils.Success(ctx, s.local.GetSettings())
}

// Update persists a new hours target.
func (s *SettingsController) Update(ctx *gin.Context) {
	var req struct {
		TargetHours float64 `json:"target_hours" binding:"required,gt=0"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "target hours must be a positive number")
		return
	}

	settings := localstore.Settings{TargetHours: req.TargetHours}
	if err := s.local.SaveSettings(settings); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save settings")
		return
	}
	utils.Success(ctx, settings)
}
