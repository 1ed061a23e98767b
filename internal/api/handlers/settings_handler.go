package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// SettingsHandler exposes the persisted settings and the e-mail templates.
type SettingsHandler struct {
	settingsService services.ISettingsService
	templateService services.IEmailTemplateService
}

func NewSettingsHandler(settingsService services.ISettingsService, templateService services.IEmailTemplateService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, templateService: templateService}
}

// GetSettings handles GET /v1/settings. It returns the effective randomizer settings,
// defaults included.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, services.LoadRandomizerOptions(h.settingsService).Settings())
}

type setSettingRequest struct {
	Value *string `json:"value"`
}

// SetSetting handles PUT /v1/settings/:key
func (h *SettingsHandler) SetSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be {\"value\": \"...\"}"})
		return
	}

	if err := h.settingsService.Set(c.Request.Context(), c.Param("key"), strings.TrimSpace(*req.Value)); err != nil {
		respondError(c, err, "Failed to update setting")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTemplate handles GET /v1/templates/:templateId?locale=en-US
func (h *SettingsHandler) GetTemplate(c *gin.Context) {
	locale := c.DefaultQuery("locale", services.DefaultTemplateLocale)
	template, err := h.templateService.GetTemplate(c.Request.Context(), c.Param("templateId"), locale)
	if err != nil {
		respondError(c, err, "Failed to retrieve template")
		return
	}
	c.JSON(http.StatusOK, template)
}

// SaveTemplate handles PUT /v1/templates/:templateId
func (h *SettingsHandler) SaveTemplate(c *gin.Context) {
	var template models.EmailTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	template.TemplateID = c.Param("templateId")
	if template.Locale == "" {
		template.Locale = services.DefaultTemplateLocale
	}

	if err := h.templateService.SaveTemplate(c.Request.Context(), &template); err != nil {
		respondError(c, err, "Failed to save template")
		return
	}
	c.Status(http.StatusNoContent)
}
