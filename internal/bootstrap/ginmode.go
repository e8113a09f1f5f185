package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps the APP_ENV value onto gin's run mode. Anything
// unrecognized keeps the debug default.
func SetGinMode(env string) {
	switch env {
	case "production", "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
