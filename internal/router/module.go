package router

import "github.com/gin-gonic/gin"

// Module is one trainboard feature (auth, train, debug) that mounts its
// routes on the registry's root group. Names must be unique per registry.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
