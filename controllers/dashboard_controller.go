package controllers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed dashboard.html
var dashboardHTML []byte

// DashboardController serves the single-page screener dashboard. The page is
// thin glue: it posts to the JSON API and renders the table and charts in the
// browser.
type DashboardController struct{}

// NewDashboardController creates a new dashboard controller.
func NewDashboardController() *DashboardController {
	return &DashboardController{}
}

// RegisterRoutes attaches the dashboard route to the engine.
func (dc *DashboardController) RegisterRoutes(r *gin.Engine) {
	r.GET("/", dc.HandleDashboard)
}

// HandleDashboard serves the embedded dashboard page.
// GET /
func (dc *DashboardController) HandleDashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", dashboardHTML)
}
