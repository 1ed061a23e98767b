package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
)

const (
	testAppBinary      = "./purchasing_test_app" // Name for the test binary
	testAppPort        = "8089"                  // Port for the test server
	testServiceApiPort = "8091"                  // Port for the Service API
	testAppURL         = "http://localhost:" + testAppPort
	testServiceApiURL  = "http://localhost:" + testServiceApiPort
	startupTimeout     = 15 * time.Second
	pingEndpoint       = testAppURL + "/v1/ping"
	testRecipient      = "purchasing@integration.example.com"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// redisReachable reports whether the mock mailbox and the task queue can be used.
func redisReachable(addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// TestMain builds the application, runs it in 'all' mode and tears it down after the tests.
func TestMain(m *testing.M) {
	godotenv.Load()

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	if !redisReachable(redisAddr) {
		log.Printf("Integration Test Setup: Redis not reachable at %s, skipping integration tests.", redisAddr)
		return
	}

	defer func() {
		log.Println("Integration Test Teardown: Cleaning up test binary...")
		_ = os.Remove(testAppBinary)
	}()

	log.Println("Integration Test Setup: Building application...")
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Build successful: %s", testAppBinary)

	// API and worker share one process so the in-memory store is visible to both.
	appCmd := exec.Command(testAppBinary, "-m", "all")
	appCmd.Env = append(os.Environ(),
		"API_PORT="+testAppPort,
		"SERVICE_API_PORT="+testServiceApiPort,
		"STORE_DRIVER="+getEnv("INTEGRATION_STORE_DRIVER", "memory"),
		"SEED_DATA=true",
		"GIN_MODE=release",
		"MOCK_SERVICES=true",
		"NOTIFY_MODE=queue",
		"OPENAI_API_KEY=",
		"OFFER_ARCHIVE_BUCKET=",
		"RATE_LIMIT_SOFT_BUCKET_SIZE=50",
		"RATE_LIMIT_SOFT_REFILL_RATE=50",
		"RATE_LIMIT_HARD_BUCKET_SIZE=100",
		"RATE_LIMIT_HARD_REFILL_RATE=100",
		"REDIS_ADDR="+redisAddr,
		"SMTP_FROM_ADDRESS=test@example.com", // Needed by mock sender
	)
	appCmd.Stderr = os.Stderr
	appCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting application process...")
	if err := appCmd.Start(); err != nil {
		log.Printf("Failed to start application process: %v", err)
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Application process started (PID: %d)...", appCmd.Process.Pid)

	defer func() {
		log.Println("Integration Test Teardown: Sending SIGTERM to application...")
		if processErr := appCmd.Process.Signal(syscall.SIGTERM); processErr != nil {
			log.Printf("Integration Test Teardown: Failed to send SIGTERM: %v. Killing.", processErr)
			_ = appCmd.Process.Kill()
			return
		}
		if _, waitErr := appCmd.Process.Wait(); waitErr != nil {
			log.Printf("Integration Test Teardown: Error waiting for application exit: %v", waitErr)
		}
		log.Println("Integration Test Teardown: Application process stopped.")
	}()

	log.Printf("Integration Test Setup: Waiting for application to become ready at %s...", pingEndpoint)
	startTime := time.Now()
	ready := false
	for time.Since(startTime) < startupTimeout {
		resp, err := http.Get(pingEndpoint)
		if err == nil {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK && string(bodyBytes) == "pong" {
				ready = true
				break
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	if !ready {
		log.Printf("Application failed to start within %v", startupTimeout)
		_ = appCmd.Process.Kill()
		os.Exit(1)
	}

	log.Println("Integration Test Setup: Running tests...")
	exitCode := m.Run()
	log.Printf("Integration Test Teardown: Tests finished with exit code %d.", exitCode)
	// No os.Exit here; deferred teardown must run.
}

func postJSON(t *testing.T, endpoint string, body interface{}) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(payload))
	require.NoError(t, err, "Request to %s should not fail", endpoint)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func getJSON(t *testing.T, endpoint string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(endpoint)
	require.NoError(t, err, "Request to %s should not fail", endpoint)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

// fetchTestEmail reads the mock mail for recipient from the Service API.
func fetchTestEmail(t *testing.T, actionType, recipient string) map[string]interface{} {
	t.Helper()
	var result struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   string                 `json:"error"`
	}
	// The worker may still be processing the task; the service API polls too.
	for attempt := 0; attempt < 5; attempt++ {
		status, body := postJSON(t, testServiceApiURL+"/api", map[string]interface{}{
			"method":    "getTestEmail",
			"arguments": []string{actionType, recipient},
		})
		if status == http.StatusOK {
			require.NoError(t, json.Unmarshal(body, &result))
			require.True(t, result.Success)
			return result.Data
		}
		require.Equal(t, http.StatusNotFound, status, string(body))
	}
	t.Fatalf("no %s mail arrived for %s", actionType, recipient)
	return nil
}

// TestIntegration_Ping tests the /v1/ping endpoint of the running application.
func TestIntegration_Ping(t *testing.T) {
	status, body := getJSON(t, pingEndpoint)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", string(body))
}

// TestIntegration_JsonApiPing tests the `ping` method of the JSON API.
func TestIntegration_JsonApiPing(t *testing.T) {
	status, body := postJSON(t, testAppURL+"/v1/api", map[string]string{"method": "ping"})

	assert.Equal(t, http.StatusOK, status)
	var respBody map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &respBody))
	assert.Equal(t, map[string]interface{}{"success": true, "data": "pong"}, respBody)
}

func TestIntegration_Suppliers(t *testing.T) {
	status, body := getJSON(t, testAppURL+"/v1/suppliers/getSuppliers")
	require.Equal(t, http.StatusOK, status)
	var suppliers []models.Supplier
	require.NoError(t, json.Unmarshal(body, &suppliers))
	assert.NotEmpty(t, suppliers)

	status, body = getJSON(t, fmt.Sprintf("%s/v1/suppliers/getSupplierFor/%s", testAppURL, url.PathEscape("Wiener Schnitzel")))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Wiener Feinkost GmbH")

	status, body = getJSON(t, testAppURL+"/v1/suppliers/getSupplierByID/9999")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "was not found")
}

// TestIntegration_InquiryMailAndOrder requests an offer with a mail address, reads the
// queued offer mail back from the mock mailbox and places an order for it twice.
func TestIntegration_InquiryMailAndOrder(t *testing.T) {
	recipient := testRecipient
	request := models.OfferRequest{
		SupplierID: 1,
		Email:      &recipient,
		RequestDetails: []models.OfferRequestDetail{
			{Product: "Wiener Schnitzel", RequestedQuantity: 10},
			{Product: "Germknoedel", RequestedQuantity: 5},
			{Product: "Kaiserschmarrn", RequestedQuantity: 4},
		},
	}

	var offer models.Offer
	var lines []models.OrderDetail
	for attempt := 0; attempt < 10 && len(lines) == 0; attempt++ {
		status, body := postJSON(t, testAppURL+"/v1/inquiry/requestOffer", request)
		require.Equal(t, http.StatusOK, status, string(body))
		require.NoError(t, json.Unmarshal(body, &offer))
		for _, d := range offer.Details {
			if d.Quantity > 0 {
				lines = append(lines, models.OrderDetail{ProductName: d.ProductName, Price: d.Price, Quantity: d.Quantity})
			}
		}
	}
	require.NotEmpty(t, lines, "no offer with an available line")
	assert.Equal(t, models.OfferStatusPending, offer.Status)

	mail := fetchTestEmail(t, "offer", recipient)
	assert.Equal(t, recipient, mail["to"])
	assert.Equal(t, "Offer", mail["subject"])
	assert.Equal(t, "offer", mail["actionType"])
	mailBody, _ := mail["body"].(string)
	assert.True(t, strings.Contains(mailBody, "Wiener Feinkost GmbH"), "mail body should name the supplier")

	order := models.Order{RequestID: "integration-1", SupplierID: 1, OfferID: offer.ID.String(), Details: lines}
	status, body := postJSON(t, testAppURL+"/v1/order/placeOrder", order)
	require.Equal(t, http.StatusOK, status, string(body))
	var confirmation models.OrderConfirmation
	require.NoError(t, json.Unmarshal(body, &confirmation))
	assert.Equal(t, "Order placed successfully.", confirmation.Message)
	assert.Len(t, confirmation.OrderNumber, 10)
	assert.True(t, order.Subtotal().Add(offer.TransportationCost).Equal(confirmation.Total))

	status, body = postJSON(t, testAppURL+"/v1/order/placeOrder", order)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "has already been accepted")

	status, body = getJSON(t, testAppURL+"/v1/inquiry/getOfferById/"+offer.ID.String())
	require.Equal(t, http.StatusOK, status)
	var stored models.Offer
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, models.OfferStatusAccepted, stored.Status)
}

func TestIntegration_UnknownServiceMethod(t *testing.T) {
	status, _ := postJSON(t, testServiceApiURL+"/api", map[string]string{"method": "reboot"})
	assert.Equal(t, http.StatusNotFound, status)
}
