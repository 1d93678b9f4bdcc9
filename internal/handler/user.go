package handler

import (
	"net/http"

	"pollboard/internal/authz"
	"pollboard/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe returns the current user's profile, including whether the
// configured allow-list grants them admin.
func GetMe(gate *authz.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.RequireAuth(callerFrom(c))
		if err != nil {
			util.Fail(c, err)
			return
		}

		util.Success(c, http.StatusOK, util.Response{
			"user": gin.H{
				"id":         user.ID,
				"email":      user.Email,
				"name":       user.Name,
				"admin":      gate.IsAdmin(user.Email),
				"created_at": user.CreatedAt,
			},
		})
	}
}
