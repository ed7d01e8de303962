package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/internal/service"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
	"github.com/noah-isme/nemsu-talks-api/pkg/response"
)

// SettingsHandler wires admin configuration endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Get godoc
// @Summary Get settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateGeneral godoc
// @Summary Update general settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateGeneralSettingsRequest true "General settings"
// @Success 200 {object} response.Envelope
// @Router /settings/general [patch]
func (h *SettingsHandler) UpdateGeneral(c *gin.Context) {
	var req dto.UpdateGeneralSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.UpdateGeneral(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateModeration godoc
// @Summary Update moderation settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateModerationSettingsRequest true "Moderation settings"
// @Success 200 {object} response.Envelope
// @Router /settings/moderation [patch]
func (h *SettingsHandler) UpdateModeration(c *gin.Context) {
	var req dto.UpdateModerationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.UpdateModeration(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateNotification godoc
// @Summary Update notification settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateNotificationSettingsRequest true "Notification settings"
// @Success 200 {object} response.Envelope
// @Router /settings/notifications [patch]
func (h *SettingsHandler) UpdateNotification(c *gin.Context) {
	var req dto.UpdateNotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.UpdateNotification(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateAppearance godoc
// @Summary Update appearance settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAppearanceSettingsRequest true "Appearance settings"
// @Success 200 {object} response.Envelope
// @Router /settings/appearance [patch]
func (h *SettingsHandler) UpdateAppearance(c *gin.Context) {
	var req dto.UpdateAppearanceSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.UpdateAppearance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// SaveAll godoc
// @Summary Acknowledge pending changes
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/save [post]
func (h *SettingsHandler) SaveAll(c *gin.Context) {
	settings, err := h.service.SaveAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Reset godoc
// @Summary Reset settings to defaults
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/reset [post]
func (h *SettingsHandler) Reset(c *gin.Context) {
	settings, err := h.service.ResetToDefaults(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// CreateBackup godoc
// @Summary Create settings backup
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBackupRequest false "Backup name"
// @Success 201 {object} response.Envelope
// @Router /settings/backups [post]
func (h *SettingsHandler) CreateBackup(c *gin.Context) {
	var req dto.CreateBackupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	backup, err := h.service.CreateBackup(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, backup)
}

// ListBackups godoc
// @Summary List settings backups
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/backups [get]
func (h *SettingsHandler) ListBackups(c *gin.Context) {
	backups, err := h.service.ListBackups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, backups, nil)
}

// RestoreBackup godoc
// @Summary Restore settings backup
// @Tags Settings
// @Produce json
// @Param id path string true "Backup ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/backups/{id}/restore [post]
func (h *SettingsHandler) RestoreBackup(c *gin.Context) {
	settings, err := h.service.RestoreBackup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// DeleteBackup godoc
// @Summary Delete settings backup
// @Tags Settings
// @Produce json
// @Param id path string true "Backup ID"
// @Success 204 {object} response.Envelope
// @Router /settings/backups/{id} [delete]
func (h *SettingsHandler) DeleteBackup(c *gin.Context) {
	if err := h.service.DeleteBackup(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export settings
// @Description Download the portable settings document
// @Tags Settings
// @Produce json
// @Success 200 {object} models.SettingsExport
// @Router /settings/export [get]
func (h *SettingsHandler) Export(c *gin.Context) {
	doc, err := h.service.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="nemsu-talks-settings.json"`)
	c.JSON(http.StatusOK, doc)
}

// Import godoc
// @Summary Import settings
// @Description Replace the configuration from an exported document
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.SettingsImport true "Settings document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/import [post]
func (h *SettingsHandler) Import(c *gin.Context) {
	var doc models.SettingsImport
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings file"))
		return
	}
	settings, err := h.service.Import(c.Request.Context(), doc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// ClearData godoc
// @Summary Clear all content data
// @Description Wipe sentiments, posts, announcements and notifications and reset settings
// @Tags Settings
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /settings/clear-data [post]
func (h *SettingsHandler) ClearData(c *gin.Context) {
	if err := h.service.ClearAllData(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
