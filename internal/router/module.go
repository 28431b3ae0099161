package router

import "github.com/gin-gonic/gin"

// Module is one feature surface (auth, user, alerts, debug) that knows
// how to mount its own routes and guards on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
