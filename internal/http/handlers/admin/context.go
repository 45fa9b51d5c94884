package admin

import (
	"github.com/schoolsuite/resultpin/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "admin_id")
}

func getSchoolID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "school_id")
}
