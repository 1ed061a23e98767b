package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/alexander-kastil/talk-low-code-process/internal/api/handlers"
	"github.com/alexander-kastil/talk-low-code-process/internal/api/middleware"
	"github.com/alexander-kastil/talk-low-code-process/internal/config"
	"github.com/alexander-kastil/talk-low-code-process/internal/email"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// Services bundles what the REST API serves.
type Services struct {
	Inquiry   services.IInquiryService
	Order     services.IOrderService
	Supplier  services.ISupplierService
	Settings  services.ISettingsService
	Templates services.IEmailTemplateService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(ctx context.Context, cfg *config.Config, svc Services) *gin.Engine {
	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg, svc.Settings)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	jsonApiHandler := handlers.NewJsonApiHandler(svc.Inquiry, svc.Order, svc.Supplier)
	inquiryHandler := handlers.NewInquiryHandler(svc.Inquiry)
	orderHandler := handlers.NewOrderHandler(svc.Order)
	supplierHandler := handlers.NewSupplierHandler(svc.Supplier)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Templates)

	v1 := r.Group("/v1")
	{
		v1.POST("/api", jsonApiHandler.HandleRequest)

		v1.POST("/inquiry/requestOffer", inquiryHandler.RequestOffer)
		v1.GET("/inquiry/getOfferById/:offerId", inquiryHandler.GetOfferByID)

		v1.POST("/order/placeOrder", orderHandler.PlaceOrder)

		v1.GET("/suppliers/getSuppliers", supplierHandler.GetSuppliers)
		v1.GET("/suppliers/getSupplierByID/:id", supplierHandler.GetSupplierByID)
		v1.GET("/suppliers/getSupplierByName/:name", supplierHandler.GetSuppliersByName)
		v1.GET("/suppliers/getSupplierFor/:product", supplierHandler.GetSuppliersForProduct)

		v1.GET("/settings", settingsHandler.GetSettings)
		v1.PUT("/settings/:key", settingsHandler.SetSetting)
		v1.GET("/templates/:templateId", settingsHandler.GetTemplate)
		v1.PUT("/templates/:templateId", settingsHandler.SaveTemplate)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine used by tests and operators.
// rdb may be nil, in which case getTestEmail reports that no mock mailbox is available.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			getTestEmail(c, cfg, rdb, req.Arguments)
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail returns (and removes) the last mail the RedisSender stored for [actionType, email].
func getTestEmail(c *gin.Context, cfg *config.Config, rdb *redis.Client, rawArgs json.RawMessage) {
	var args []string
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [actionType, email]"})
		return
	}
	if rdb == nil || !cfg.MockServices {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Mock mailbox is not enabled (MOCK_SERVICES=false)"})
		return
	}
	redisKey := email.MockEmailKey(args[1], args[0])

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var emailJsonData string
	found := false
	for i := 0; i < 10; i++ { // Poll up to ~2 seconds
		data, err := rdb.Get(ctx, redisKey).Result()
		if err == nil {
			emailJsonData = data
			found = true
			rdb.Del(ctx, redisKey)
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
		return
	}

	var emailData map[string]interface{}
	if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
		log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})
}
