package http

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed and validated API description.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			swaggerErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			swaggerErr = err
			return
		}
		swagger = doc
	})
	return swagger, swaggerErr
}

// validateRequests rejects JSON bodies that do not match the API description.
// Requests for paths outside the description pass through.
func validateRequests(logger *slog.Logger) func(http.Handler) http.Handler {
	doc, err := GetSwagger()
	var router routers.Router
	if err == nil {
		router, err = legacy.NewRouter(doc)
	}
	if err != nil {
		logger.Error("Request validation disabled", "err", err)
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}
			route, params, err := router.FindRoute(r)
			if err != nil {
				// unknown routes are chi's to answer
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Debug("Request rejected by schema", "path", r.URL.Path, "err", err)
				writeProblem(w, http.StatusBadRequest, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
