package util

import (
	"net/http"

	"pollboard/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful reply.
type Response map[string]interface{}

// business codes carried alongside the HTTP status
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeRateLimited  = 42901
	CodeServerErr    = 50001
)

// Success writes the standard success envelope.
func Success(c *gin.Context, status int, data Response) {
	c.JSON(status, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the standard error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// Fail maps a service error to the HTTP status and business code for its
// kind. Upstream errors are reported generically; in debug mode the
// underlying message is included for local troubleshooting.
func Fail(c *gin.Context, err error) {
	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.Validation:
		Error(c, http.StatusBadRequest, CodeInvalidParam, msg)
	case apperr.AuthRequired:
		Error(c, http.StatusUnauthorized, CodeAuth, msg)
	case apperr.AccessDenied:
		Error(c, http.StatusForbidden, CodeForbidden, msg)
	case apperr.NotFound:
		Error(c, http.StatusNotFound, CodeNotFound, msg)
	case apperr.Conflict:
		Error(c, http.StatusConflict, CodeConflict, msg)
	case apperr.RateLimited:
		Error(c, http.StatusTooManyRequests, CodeRateLimited, msg)
	default:
		if gin.Mode() != gin.ReleaseMode {
			Error(c, http.StatusInternalServerError, CodeServerErr, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, CodeServerErr, "internal error")
	}
}
