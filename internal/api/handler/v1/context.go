package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/middleware"
	"github.com/trailpost/tours-api/internal/domain"
)

// currentUser returns the user the authentication middleware resolved for
// this request.
func currentUser(ctx *gin.Context) (domain.User, bool) {
	value, ok := ctx.Get(middleware.CurrentUserKey)
	if !ok {
		return domain.User{}, false
	}

	user, ok := value.(domain.User)

	return user, ok
}
