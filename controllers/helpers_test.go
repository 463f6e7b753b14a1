package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pngBytes is enough of a PNG for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testEnv struct {
	db    *gorm.DB
	store *services.MockFileStore
}

// newTestEnv installs a fresh database, the test configuration and a mock file store
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)

	previous := config.GetConfig()
	config.SetConfig(testutil.Config())

	store := services.NewMockFileStore()
	store.SetAsMockForTesting()

	t.Cleanup(func() {
		config.SetConfig(previous)
		services.SetAttachmentService(nil)
	})

	return &testEnv{db: db, store: store}
}

// newRouter serves a single handler, acting as user the way RequireUser would
func newRouter(user *models.User, method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if user != nil {
			c.Set("current_user", user)
		}
		c.Next()
	}, handler)
	return router
}

func doJSON(router http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type upload struct {
	field    string
	filename string
	content  []byte
}

func doMultipart(t *testing.T, router http.Handler, method, url string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

// dataOf returns the data object of a success envelope
func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := decodeBody(t, w)
	require.Equal(t, true, response["success"], "body: %s", w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object: %s", w.Body.String())
	return data
}

// errorOf returns the error object of a failure envelope
func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := decodeBody(t, w)
	require.Equal(t, false, response["success"], "body: %s", w.Body.String())
	errorData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "error should be an object: %s", w.Body.String())
	return errorData
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return errorOf(t, w)["code"].(string)
}
