package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/uniguide-api/services"
)

type stubHealth struct{ report *services.HealthReport }

func (s stubHealth) Check(context.Context) *services.HealthReport { return s.report }

func TestHandleCheckHealth(t *testing.T) {
	done := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	app := fiber.New()
	app.Get("/health", HandleCheckHealth(stubHealth{&services.HealthReport{
		Status:      services.StatusUnhealthy,
		Timestamp:   done,
		Database:    services.DependencyDisconnected,
		Cache:       services.DependencyDisabled,
		LastRefresh: &done,
	}}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "disconnected", body["database"])
	assert.Equal(t, "disabled", body["cache"])
	assert.Equal(t, "2024-06-01T02:00:00Z", body["last_refresh"])
}

func TestHandleRoot(t *testing.T) {
	app := fiber.New()
	app.Get("/", HandleRoot)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/health", body["health"])
	assert.Equal(t, Version, body["version"])
}
