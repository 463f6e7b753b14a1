package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHealthCheck is a unit test for the healthCheck handler function
func TestHealthCheck(t *testing.T) {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Create a test context and response recorder
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	// Call the handler
	healthCheck(c)

	// Assert the status code
	assert.Equal(t, http.StatusOK, w.Code, "Expected status code 200")

	// Parse the response body
	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")

	// Assert the response structure
	assert.Equal(t, true, response["success"], "Expected success to be true")
	assert.Equal(t, "Commission Desk API is running", response["message"], "Expected correct message")
}

// TestHealthCheckResponseFormat tests the exact JSON format
func TestHealthCheckResponseFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	healthCheck(c)

	// Verify JSON content type
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	// Verify response has exactly 2 fields
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response, 2, "Response should have exactly 2 fields")
	assert.Contains(t, response, "success")
	assert.Contains(t, response, "message")
}

func TestDatabaseStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("not initialized", func(t *testing.T) {
		previous := config.GetDB()
		config.SetDB(nil)
		defer config.SetDB(previous)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil)

		databaseStatus(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "DATABASE_ERROR")
	})

	t.Run("connected", func(t *testing.T) {
		testutil.NewTestDB(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil)

		databaseStatus(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Success bool     `json:"success"`
			Tables  []string `json:"tables"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Contains(t, response.Tables, "orders")
		assert.Contains(t, response.Tables, "order_sequences")
		assert.Contains(t, response.Tables, "payments")
	})
}

func TestInitServices(t *testing.T) {
	defer services.SetAttachmentService(nil)
	defer services.SetNotifier(nil)

	cfg := testutil.Config()
	cfg.StorageBackend = "local"
	cfg.UploadDir = t.TempDir()
	cfg.RedisAddr = ""
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPFrom = "studio@example.com"

	client, err := initServices(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client)

	attachments, ok := services.GetAttachmentService().(*services.StoreAttachmentService)
	require.True(t, ok)
	store, ok := attachments.Store().(*services.LocalStore)
	require.True(t, ok)
	assert.Equal(t, cfg.UploadDir, store.Root)

	_, isMail := services.GetNotifier().(*services.MailNotifier)
	assert.True(t, isMail)
}
