// Package response writes the JSON error envelope shared by every non-2xx
// answer of the API.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Error labels
const (
	LabelValidation        = "Validation Error"
	LabelMalformedJSON     = "Malformed JSON"
	LabelInvalidParameter  = "Invalid Parameter Type"
	LabelUnauthorized      = "Unauthorized"
	LabelForbidden         = "Forbidden"
	LabelNotFound          = "Not Found"
	LabelEndpointNotFound  = "Endpoint Not Found"
	LabelMethodNotAllowed  = "Method Not Allowed"
	LabelInternalServerErr = "Internal Server Error"
)

// Messages
const (
	MsgValidation       = "Input data validation failed"
	MsgMalformedJSON    = "The request body is unreadable or contains invalid data types."
	MsgAccessDenied     = "Access Denied: You must provide a valid JWT Token."
	MsgLoginFailed      = "Login failed: Invalid username or password"
	MsgForbidden        = "Access Denied: You do not have permission to access this resource."
	MsgEndpointNotFound = "The requested URL does not exist. Please check for trailing slashes or typos."
	MsgMethodNotAllowed = "The requested HTTP method is not supported for this URL."
	MsgInternal         = "An unexpected error occurred. Please contact support."
)

// ErrorBody is the envelope of every error response. Details is only set for
// validation failures.
type ErrorBody struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error aborts the request with the envelope
func Error(c *gin.Context, status int, label, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     label,
		Message:   message,
	})
}

// ValidationError aborts with 400 and the per-field messages
func ValidationError(c *gin.Context, details map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusBadRequest,
		Error:     LabelValidation,
		Message:   MsgValidation,
		Details:   details,
	})
}

func MalformedJSON(c *gin.Context) {
	Error(c, http.StatusBadRequest, LabelMalformedJSON, MsgMalformedJSON)
}

// InvalidParameter reports a path or query parameter that does not parse as
// the expected type
func InvalidParameter(c *gin.Context, name, typeName string) {
	Error(c, http.StatusBadRequest, LabelInvalidParameter,
		"The parameter '"+name+"' expects a value of type '"+typeName+"'.")
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = MsgAccessDenied
	}
	Error(c, http.StatusUnauthorized, LabelUnauthorized, message)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, LabelForbidden, MsgForbidden)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, LabelNotFound, message)
}

func EndpointNotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, LabelEndpointNotFound, MsgEndpointNotFound)
}

func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, LabelMethodNotAllowed, MsgMethodNotAllowed)
}

// InternalError never carries internal detail; callers log it themselves
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, LabelInternalServerErr, MsgInternal)
}
