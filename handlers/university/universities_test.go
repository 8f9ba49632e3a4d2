package university

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/model"
	"github.com/sahilchouksey/uniguide-api/services"
)

type fakeLister struct {
	result *services.UniversityListResult
	err    error
}

func (f fakeLister) ListUniversities(context.Context) (*services.UniversityListResult, error) {
	return f.result, f.err
}

func TestListUniversities(t *testing.T) {
	h := NewUniversityHandler(fakeLister{result: &services.UniversityListResult{
		Total:   2,
		Results: []model.University{{Name: "Imperial College London"}, {Name: "University of Oxford"}},
	}}, zap.NewNop())
	app := fiber.New()
	app.Get("/universities", h.ListUniversities)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/universities", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body services.UniversityListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "Imperial College London", body.Results[0].Name)
}

func TestListUniversities_Error(t *testing.T) {
	h := NewUniversityHandler(fakeLister{err: errors.New("db down")}, zap.NewNop())
	app := fiber.New()
	app.Get("/universities", h.ListUniversities)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/universities", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
