// Package v1 is the HTTP API of the savings engine.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/savings"
)

// Controller serves the API for one savings engine.
type Controller struct {
	Engine *savings.Engine
}

// RegisterRoutes registers all routes of the v1 API.
func (co Controller) RegisterRoutes(r *gin.RouterGroup) {
	co.RegisterPlanRoutes(r.Group("/plans"))
	co.RegisterAllocationRoutes(r.Group("/allocations"))
	co.RegisterTransactionRoutes(r.Group("/transactions"))
}
