package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/api/handlers"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
)

func setupSettingsRouter(settings services.ISettingsService, templates services.IEmailTemplateService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewSettingsHandler(settings, templates)
	r := gin.New()
	r.GET("/v1/settings", handler.GetSettings)
	r.PUT("/v1/settings/:key", handler.SetSetting)
	r.GET("/v1/templates/:templateId", handler.GetTemplate)
	r.PUT("/v1/templates/:templateId", handler.SaveTemplate)
	return r
}

func put(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSettingsHandler_GetSettings_ReturnsEffectiveValues(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, store.Seed(ctx, st))
	require.NoError(t, st.PutSetting(ctx, "OfferRandomizer_Delivery_CommonDays", "1"))
	settings := services.NewSettingsService(ctx, st, nil)

	router := setupSettingsRouter(settings, new(MockEmailTemplateService))
	w := get(router, "/v1/settings")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0.4", resp["OfferRandomizer_Pricing_BaseProbability"])
	assert.Equal(t, "30.00", resp["OfferRandomizer_TransportationCost"])
	assert.Equal(t, "1,1", resp["OfferRandomizer_Delivery_CommonDays"])
	assert.Equal(t, "80", resp["OfferRandomizer_Delivery_SameDaySingleDeliveryPercentage"])
}

func TestSettingsHandler_SetSetting(t *testing.T) {
	mockSettingsSvc := new(MockSettingsService)
	router := setupSettingsRouter(mockSettingsSvc, new(MockEmailTemplateService))

	mockSettingsSvc.On("Set", mock.Anything, "OfferRandomizer_Pricing_BaseProbability", "0.6").Return(nil).Once()
	mockSettingsSvc.On("Set", mock.Anything, "SmtpPassword", "x").
		Return(&services.Error{Kind: services.ErrInvalidArgument, Message: "Setting 'SmtpPassword' cannot be changed."}).Once()

	w := put(router, "/v1/settings/OfferRandomizer_Pricing_BaseProbability", `{"value": " 0.6 "}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = put(router, "/v1/settings/SmtpPassword", `{"value": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Setting 'SmtpPassword' cannot be changed."}`, w.Body.String())

	w = put(router, "/v1/settings/OfferRandomizer_Pricing_BaseProbability", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSettingsSvc.AssertExpectations(t)
}

func TestSettingsHandler_Templates(t *testing.T) {
	mockTemplateSvc := new(MockEmailTemplateService)
	router := setupSettingsRouter(new(MockSettingsService), mockTemplateSvc)

	tmpl := &models.EmailTemplate{TemplateID: services.OfferNotificationTemplate, Locale: "de-AT", Subject: "Angebot", Body: "{{details}}"}
	mockTemplateSvc.On("GetTemplate", mock.Anything, services.OfferNotificationTemplate, "de-AT").Return(tmpl, nil).Once()
	mockTemplateSvc.On("GetTemplate", mock.Anything, "unknown", services.DefaultTemplateLocale).
		Return(nil, &services.Error{Kind: services.ErrNotFound, Message: "Template 'unknown' (locale en-US) was not found."}).Once()
	mockTemplateSvc.On("SaveTemplate", mock.Anything, mock.MatchedBy(func(t *models.EmailTemplate) bool {
		return t.TemplateID == services.OfferNotificationTemplate && t.Locale == services.DefaultTemplateLocale && t.Body == "Hi {{details}}"
	})).Return(nil).Once()

	w := get(router, "/v1/templates/offer_notification?locale=de-AT")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Angebot")

	w = get(router, "/v1/templates/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = put(router, "/v1/templates/offer_notification", `{"subject": "Offer", "body": "Hi {{details}}"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockTemplateSvc.AssertExpectations(t)
}
