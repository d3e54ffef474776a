package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"option-screener/interfaces"
	"option-screener/models"
	"option-screener/services"
)

// ScreenerController handles the screening API.
type ScreenerController struct {
	screener *services.Screener
	quotes   *services.QuoteCache
	data     interfaces.MarketDataService
	runLog   *services.RunLog
}

// NewScreenerController creates a new screener controller.
func NewScreenerController(screener *services.Screener, quotes *services.QuoteCache, data interfaces.MarketDataService, runLog *services.RunLog) *ScreenerController {
	return &ScreenerController{
		screener: screener,
		quotes:   quotes,
		data:     data,
		runLog:   runLog,
	}
}

// RegisterRoutes attaches the API routes to the engine.
func (sc *ScreenerController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.POST("/screen", sc.HandleScreen)
	api.GET("/quote/:symbol", sc.HandleGetQuote)
	api.POST("/quote/:symbol/refresh", sc.HandleRefreshQuote)
	api.GET("/expirations/:symbol", sc.HandleListExpirations)
	api.GET("/runs", sc.HandleRecentRuns)
}

// HandleScreen runs one screening request.
// POST /api/v1/screen
func (sc *ScreenerController) HandleScreen(c *gin.Context) {
	var req models.ScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	req.Normalize()
	start := time.Now()
	result, err := sc.screener.Run(c.Request.Context(), req)
	if err != nil {
		sc.runLog.Record(services.RunRecord{
			Timestamp: start,
			Request:   req,
			Duration:  time.Since(start),
			Err:       err.Error(),
		})

		switch {
		case models.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"details": err.Error(),
			})
		case errors.Is(err, models.ErrNoPriceAvailable):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "No price available",
				"details": err.Error(),
			})
		case errors.Is(err, models.ErrExpirationRetrieval):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Failed to retrieve expirations",
				"details": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Screening failed",
				"details": err.Error(),
			})
		}
		return
	}

	sc.runLog.Record(services.RunRecord{
		Timestamp:          start,
		Request:            req,
		Spot:               result.Spot,
		Opportunities:      len(result.Opportunities),
		ExpirationsSkipped: result.ExpirationsSkipped,
		Duration:           time.Since(start),
	})

	payload := gin.H{
		"result":  result,
		"summary": services.Summarize(result),
		"charts":  services.BuildChartData(result),
	}
	if len(result.Opportunities) == 0 {
		// Distinguishes the valid empty state from a fetch failure.
		payload["message"] = "no opportunities found"
	}
	c.JSON(http.StatusOK, payload)
}

// HandleGetQuote returns the cached (or freshly fetched) spot quote.
// GET /api/v1/quote/:symbol
func (sc *ScreenerController) HandleGetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	quote, err := sc.quotes.GetOrFetch(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "No price available",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// HandleRefreshQuote invalidates the cache entry and fetches a fresh quote.
// POST /api/v1/quote/:symbol/refresh
func (sc *ScreenerController) HandleRefreshQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	quote, err := sc.quotes.Refresh(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "No price available",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// HandleListExpirations returns the expirations inside an optional DTE band.
// GET /api/v1/expirations/:symbol?min_dte=1&max_dte=90
func (sc *ScreenerController) HandleListExpirations(c *gin.Context) {
	symbol := c.Param("symbol")

	minDTE, err := strconv.Atoi(c.DefaultQuery("min_dte", strconv.Itoa(models.MinDTEBound)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_dte must be an integer"})
		return
	}
	maxDTE, err := strconv.Atoi(c.DefaultQuery("max_dte", strconv.Itoa(models.MaxDTEBound)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_dte must be an integer"})
		return
	}

	dates, err := sc.data.ListExpirations(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to retrieve expirations",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":      symbol,
		"expirations": services.FilterExpirations(dates, minDTE, maxDTE, time.Now()),
	})
}

// HandleRecentRuns returns the recent screening runs, newest first.
// GET /api/v1/runs
func (sc *ScreenerController) HandleRecentRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": sc.runLog.Recent()})
}
