package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCreateEndpoint(t *testing.T) {
	app := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, c.Path()) }
	createEndpoint(app, &endpoint{
		apiVersion: "/api/v2",
		groups: []*apiGroup{
			{prefix: "/items", routes: []*route{
				{"GET", "", ok, nil},
				{"PATCH", "/:id", ok, nil},
			}},
		},
	})

	for _, tt := range []struct{ method, target, want string }{
		{http.MethodGet, "/api/v2/items", "/api/v2/items"},
		{http.MethodPatch, "/api/v2/items/1", "/api/v2/items/:id"},
	} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, rec.Body.String())
	}
}

func TestCreateEndpoint_UnknownMethod(t *testing.T) {
	assert.Panics(t, func() {
		createEndpoint(echo.New(), &endpoint{
			apiVersion: "api",
			groups:     []*apiGroup{{prefix: "/x", routes: []*route{{"BREW", "", nil, nil}}}},
		})
	})
}
