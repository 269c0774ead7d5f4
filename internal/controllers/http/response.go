package http

import (
	"errors"
	"net/http"

	"storefront-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
	Code    string `json:"Code,omitempty"`
	Data    any    `json:"Data,omitempty"`
}

const (
	CodeInvalidRequest    = "invalid_request"
	CodeProductNotFound   = "product_not_found"
	CodeNotFound          = "not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeIllegalTransition = "illegal_transition"
	CodeDuplicateReview   = "duplicate_review"
	CodeForbidden         = "forbidden"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal"
)

func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
		Code:    code,
	})
}

// errorKinds is checked in order; the first sentinel err matches decides
// the response.
var errorKinds = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrProductNotFound, http.StatusNotFound, CodeProductNotFound},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrInsufficientStock, http.StatusConflict, CodeInsufficientStock},
	{domain.ErrIllegalTransition, http.StatusConflict, CodeIllegalTransition},
	{domain.ErrDuplicateReview, http.StatusConflict, CodeDuplicateReview},
	{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
}

func mapError(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// writeError renders a service error. Internal errors are logged and their
// text is not sent to the client.
func writeError(c *gin.Context, log *logrus.Logger, err error) {
	status, code := mapError(err)
	entry := log.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.FullPath(),
		"code":       code,
	})
	if status == http.StatusInternalServerError {
		entry.Errorf("Request failed: %v", err)
		ErrorResponse(c, status, code, "internal server error")
		return
	}
	entry.Infof("Request rejected: %v", err)
	ErrorResponse(c, status, code, err.Error())
}
