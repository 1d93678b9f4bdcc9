package handler

import (
	"pollboard/internal/authz"
	"pollboard/internal/middleware"
	"pollboard/internal/models"

	"github.com/gin-gonic/gin"
)

// callerFrom builds the request's Caller from whatever auth middleware
// stored in the context.
func callerFrom(c *gin.Context) authz.Caller {
	if v, ok := c.Get(middleware.CurrentUserKey); ok {
		if user, ok := v.(*models.User); ok && user != nil {
			return authz.Authenticated(user)
		}
	}
	return authz.Anonymous()
}
