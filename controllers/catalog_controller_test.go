package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTypeCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(newRouter(nil, http.MethodPost, "/services", CreateServiceType), http.MethodPost, "/services", gin.H{
		"name":        "Gel Extensions",
		"description": "Builder gel on tips",
		"price":       300000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf(t, w)
	assert.Equal(t, "gel-extensions", created["slug"])
	assert.Equal(t, true, created["is_active"])
	id := uint(created["id"].(float64))

	t.Run("price is required", func(t *testing.T) {
		w := doJSON(newRouter(nil, http.MethodPost, "/services", CreateServiceType), http.MethodPost, "/services", gin.H{
			"name": "Free",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("update deactivates", func(t *testing.T) {
		router := newRouter(nil, http.MethodPut, "/services/:id", UpdateServiceType)
		w := doJSON(router, http.MethodPut, fmt.Sprintf("/services/%d", id), gin.H{
			"name":      "Gel Extensions XL",
			"price":     350000,
			"is_active": false,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := dataOf(t, w)
		assert.Equal(t, "gel-extensions-xl", data["slug"])
		assert.Equal(t, false, data["is_active"])
		assert.EqualValues(t, 350000, data["price"])
	})

	t.Run("list includes inactive services", func(t *testing.T) {
		w := doJSON(newRouter(nil, http.MethodGet, "/services", ListServiceTypes), http.MethodGet, "/services", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["data"], 1)
	})

	t.Run("delete refused while orders use it", func(t *testing.T) {
		customer := testutil.CreateUser(t, env.db, "mai", models.RoleCustomer)
		service := testutil.CreateServiceType(t, env.db, "Busy", 100000)
		testutil.CreateOrder(t, env.db, customer, service, models.OrderPending)

		router := newRouter(nil, http.MethodDelete, "/services/:id", DeleteServiceType)
		w := doJSON(router, http.MethodDelete, fmt.Sprintf("/services/%d", service.ID), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SERVICE_TYPE_IN_USE", errorCode(t, w))
	})

	t.Run("delete unused service", func(t *testing.T) {
		router := newRouter(nil, http.MethodDelete, "/services/:id", DeleteServiceType)
		w := doJSON(router, http.MethodDelete, fmt.Sprintf("/services/%d", id), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(router, http.MethodDelete, fmt.Sprintf("/services/%d", id), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "SERVICE_TYPE_NOT_FOUND", errorCode(t, w))
	})
}

func TestCreateSample(t *testing.T) {
	env := newTestEnv(t)
	service := testutil.CreateServiceType(t, env.db, "Gel", 150000)
	router := newRouter(nil, http.MethodPost, "/samples", CreateSample)

	t.Run("stores the image", func(t *testing.T) {
		w := doMultipart(t, router, http.MethodPost, "/samples",
			map[string]string{
				"service_type_id": fmt.Sprint(service.ID),
				"title":           "Cherry blossom",
				"display_order":   "2",
			},
			upload{field: "image", filename: "cherry.webp", content: pngBytes},
		)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := dataOf(t, w)
		assert.Equal(t, "Cherry blossom", data["title"])
		assert.EqualValues(t, 2, data["display_order"])
		assert.NotEmpty(t, data["image_url"])
	})

	t.Run("unknown service discards the image", func(t *testing.T) {
		before := len(env.store.Files())
		w := doMultipart(t, router, http.MethodPost, "/samples",
			map[string]string{"service_type_id": "9999", "title": "Orphan"},
			upload{field: "image", filename: "orphan.png", content: pngBytes},
		)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Len(t, env.store.Files(), before)
	})

	t.Run("title is required", func(t *testing.T) {
		w := doMultipart(t, router, http.MethodPost, "/samples",
			map[string]string{"service_type_id": fmt.Sprint(service.ID)},
			upload{field: "image", filename: "x.png", content: pngBytes},
		)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	w := doJSON(newRouter(nil, http.MethodGet, "/samples", ListSamples), http.MethodGet, "/samples", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)
}

func TestGetCatalog(t *testing.T) {
	env := newTestEnv(t)
	gel := testutil.CreateServiceType(t, env.db, "Gel", 150000)
	acrylic := testutil.CreateServiceType(t, env.db, "Acrylic", 200000)
	retired := testutil.CreateServiceType(t, env.db, "Retired", 90000)
	require.NoError(t, env.db.Model(retired).Update("is_active", false).Error)

	for i := 0; i < 14; i++ {
		service := gel
		if i%2 == 1 {
			service = acrylic
		}
		key := fmt.Sprintf("samples/%d.png", i)
		env.store.Seed(key, pngBytes)
		require.NoError(t, env.db.Create(&models.Sample{
			ServiceTypeID: service.ID,
			Title:         fmt.Sprintf("Sample %d", i),
			ImageKey:      key,
		}).Error)
	}
	require.NoError(t, env.db.Create(&models.TermsOfService{Version: "1.0", Content: "Be kind", IsActive: true}).Error)

	router := newRouter(nil, http.MethodGet, "/catalog", GetCatalog)

	t.Run("first page of everything", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/catalog", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := dataOf(t, w)
		assert.Len(t, data["services"], 2)
		assert.Nil(t, data["selected_service"])
		assert.Equal(t, "1.0", data["tos"].(map[string]interface{})["version"])

		samples := data["samples"].(map[string]interface{})
		assert.Len(t, samples["samples"], 12)
		assert.EqualValues(t, 1, samples["page"])
		assert.EqualValues(t, 14, samples["total_items"])
		assert.EqualValues(t, 2, samples["total_pages"])

		first := samples["samples"].([]interface{})[0].(map[string]interface{})
		assert.NotEmpty(t, first["image_url"])
	})

	t.Run("filtered by service", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, fmt.Sprintf("/catalog?service=%d", acrylic.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := dataOf(t, w)
		assert.EqualValues(t, acrylic.ID, data["selected_service"])
		samples := data["samples"].(map[string]interface{})
		assert.EqualValues(t, 7, samples["total_items"])
	})

	t.Run("page past the end shows the last page", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/catalog?page=99", nil)
		require.Equal(t, http.StatusOK, w.Code)

		samples := dataOf(t, w)["samples"].(map[string]interface{})
		assert.EqualValues(t, 2, samples["page"])
		assert.Len(t, samples["samples"], 2)
	})
}

func TestTermsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	artist := testutil.CreateUser(t, env.db, "artist", models.RoleArtist)

	w := doJSON(newRouter(nil, http.MethodGet, "/tos", GetActiveTerms), http.MethodGet, "/tos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody(t, w)["data"])

	create := newRouter(artist, http.MethodPost, "/tos", CreateTerms)
	w = doJSON(create, http.MethodPost, "/tos", gin.H{"version": "1.0", "content": "First", "is_active": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(create, http.MethodPost, "/tos", gin.H{"version": "2.0", "content": "Second"})
	require.Equal(t, http.StatusCreated, w.Code)
	second := dataOf(t, w)
	assert.Equal(t, false, second["is_active"])

	w = doJSON(create, http.MethodPost, "/tos", gin.H{"version": "2.0", "content": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VERSION_EXISTS", errorCode(t, w))

	activate := newRouter(artist, http.MethodPut, "/tos/:id/activate", ActivateTerms)
	w = doJSON(activate, http.MethodPut, fmt.Sprintf("/tos/%d/activate", uint(second["id"].(float64))), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(newRouter(nil, http.MethodGet, "/tos", GetActiveTerms), http.MethodGet, "/tos", nil)
	assert.Equal(t, "2.0", dataOf(t, w)["version"])

	w = doJSON(newRouter(nil, http.MethodGet, "/tos/all", ListTerms), http.MethodGet, "/tos/all", nil)
	list := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, list, 2)
	active := 0
	for _, item := range list {
		if item.(map[string]interface{})["is_active"] == true {
			active++
		}
	}
	assert.Equal(t, 1, active)
}
