package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/api"
	"github.com/alexander-kastil/talk-low-code-process/internal/config"
	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/random"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := memstore.New()
	require.NoError(t, store.Seed(ctx, st))
	settings := services.NewSettingsService(ctx, st, nil)

	cfg := &config.Config{
		RateLimitSoftBucketSize: 100,
		RateLimitSoftRefillRate: 100,
		RateLimitHardBucketSize: 100,
		RateLimitHardRefillRate: 100,
	}
	return api.SetupRouter(ctx, cfg, api.Services{
		Inquiry:   services.NewInquiryService(random.NewSeeded(7), st, settings, nil),
		Order:     services.NewOrderService(st),
		Supplier:  services.NewSupplierService(st),
		Settings:  settings,
		Templates: services.NewEmailTemplateService(st),
	})
}

func send(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// requestAvailableOffer asks for offers until one carries at least one deliverable line.
func requestAvailableOffer(t *testing.T, router *gin.Engine) (models.Offer, []models.OrderDetail) {
	t.Helper()
	request := models.OfferRequest{
		SupplierID: 1,
		RequestDetails: []models.OfferRequestDetail{
			{Product: "Wiener Schnitzel", RequestedQuantity: 10},
			{Product: "Germknoedel", RequestedQuantity: 5},
			{Product: "Kaiserschmarrn", RequestedQuantity: 4},
		},
	}
	for attempt := 0; attempt < 10; attempt++ {
		w := send(router, http.MethodPost, "/v1/inquiry/requestOffer", request)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var offer models.Offer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offer))
		var lines []models.OrderDetail
		for _, d := range offer.Details {
			if d.Quantity > 0 {
				lines = append(lines, models.OrderDetail{ProductName: d.ProductName, Price: d.Price, Quantity: d.Quantity})
			}
		}
		if len(lines) > 0 {
			return offer, lines
		}
	}
	t.Fatal("no offer with an available line")
	return models.Offer{}, nil
}

func TestRouter_InquiryToOrder(t *testing.T) {
	router := setupRouter(t)

	offer, lines := requestAvailableOffer(t, router)
	assert.Equal(t, models.OfferStatusPending, offer.Status)

	w := send(router, http.MethodGet, "/v1/inquiry/getOfferById/"+offer.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	order := models.Order{RequestID: "req-42", SupplierID: 1, OfferID: offer.ID.String(), Details: lines}
	w = send(router, http.MethodPost, "/v1/order/placeOrder", order)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var confirmation models.OrderConfirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmation))
	assert.Equal(t, "Order placed successfully.", confirmation.Message)
	assert.NotEmpty(t, confirmation.OrderNumber)
	want := order.Subtotal().Add(offer.TransportationCost)
	assert.True(t, want.Equal(confirmation.Total), "total %s, want %s", confirmation.Total, want)

	w = send(router, http.MethodPost, "/v1/order/placeOrder", order)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Offer with id `+offer.ID.String()+` has already been accepted."}`, w.Body.String())
}

func TestRouter_SuppliersAndSettings(t *testing.T) {
	router := setupRouter(t)

	w := send(router, http.MethodGet, "/v1/suppliers/getSuppliers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var suppliers []models.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suppliers))
	assert.Len(t, suppliers, 4)

	w = send(router, http.MethodGet, "/v1/suppliers/getSupplierFor/pizza%20napoli", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Partenope Gastronomia S.r.l.")

	w = send(router, http.MethodPut, "/v1/settings/OfferRandomizer_TransportationCost", map[string]string{"value": "45.50"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(router, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, "45.50", settings["OfferRandomizer_TransportationCost"])

	w = send(router, http.MethodGet, "/v1/ping", nil)
	assert.Equal(t, "pong", w.Body.String())
}

func TestServiceRouter_Shutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shutdownChan := make(chan struct{}, 1)
	router := api.SetupServiceRouter(&config.Config{}, nil, shutdownChan)

	w := send(router, http.MethodPost, "/api", map[string]interface{}{"method": "shutdown"})
	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-shutdownChan:
	default:
		t.Fatal("shutdown was not signalled")
	}

	w = send(router, http.MethodPost, "/api", map[string]interface{}{"method": "getTestEmail", "arguments": []string{"offer"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(router, http.MethodPost, "/api", map[string]interface{}{"method": "getTestEmail", "arguments": []string{"offer", "a@example.com"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = send(router, http.MethodPost, "/api", map[string]interface{}{"method": "reboot"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
