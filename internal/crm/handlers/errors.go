package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Allowed   string              `json:"allowed_methods,omitempty"`
	Status    int                 `json:"status"`
	Timestamp string              `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

func newErrorResponse(status int, message string) ErrorResponse {
	return ErrorResponse{Message: message, Status: status, Timestamp: now()}
}

// mapError classifies err into a status code and a client-safe body.
func mapError(err error) ErrorResponse {
	var (
		fieldErrs validation.Errors
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fieldErrs):
		resp := newErrorResponse(http.StatusUnprocessableEntity, "The given data was invalid.")
		resp.Errors = fieldErrs
		return resp
	case errors.As(err, &tooLarge):
		return newErrorResponse(http.StatusRequestEntityTooLarge, "File upload too large.")
	case errors.Is(err, e.ErrUnauthenticated):
		return newErrorResponse(http.StatusUnauthorized, "Unauthenticated.")
	case errors.Is(err, e.ErrForbidden):
		return newErrorResponse(http.StatusForbidden, "This action is unauthorized.")
	case errors.Is(err, e.ErrNotFound):
		resource := e.ResourceName(err)
		if resource == "" {
			resource = "Resource"
		}
		return newErrorResponse(http.StatusNotFound, fmt.Sprintf("%s not found.", resource))
	case errors.Is(err, e.ErrInvalidInput):
		return newErrorResponse(http.StatusBadRequest, "Malformed request body.")
	default:
		return newErrorResponse(http.StatusInternalServerError, "Server Error")
	}
}

// abortWithError writes the error envelope for err and stops the chain.
// Unclassified errors are logged; their detail never reaches the client.
func abortWithError(logger *zap.Logger) func(c *gin.Context, err error) {
	return func(c *gin.Context, err error) {
		resp := mapError(err)
		if resp.Status >= http.StatusInternalServerError {
			logger.Error("Internal server error",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(requestIDKey)),
			)
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(resp.Status, resp)
	}
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, newErrorResponse(http.StatusNotFound, "Not Found"))
}

func methodNotAllowedHandler(engine *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := newErrorResponse(http.StatusMethodNotAllowed, "Method not allowed.")
		resp.Allowed = allowedMethods(engine.Routes(), c.Request.URL.Path)
		if resp.Allowed != "" {
			c.Header("Allow", resp.Allowed)
		}
		c.JSON(http.StatusMethodNotAllowed, resp)
	}
}

// allowedMethods returns the methods registered for path, for the Allow header.
func allowedMethods(routes gin.RoutesInfo, path string) string {
	var methods []string
	for _, r := range routes {
		if matchRoute(r.Path, path) {
			methods = append(methods, r.Method)
		}
	}
	return strings.Join(methods, ", ")
}

func matchRoute(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
