package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// endpoint a versioned route table
type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// createEndpoint register every route of def under /<apiVersion>/<group prefix>
func createEndpoint(app *echo.Echo, def *endpoint) {
	root := app.Group("/"+strings.TrimPrefix(def.apiVersion, "/"), def.middlewares...)

	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			if !allowedMethods[api.method] {
				panic(fmt.Errorf("createEndpoint: unknown method %s on %s%s", api.method, group.prefix, api.path))
			}
			echoGroup.Add(api.method, api.path, api.handler, api.middlewares...)
		}
	}
}
