package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"option-screener/controllers"
	"option-screener/models"
	"option-screener/services"
)

var rootCmd = &cobra.Command{
	Use:   "option-screener",
	Short: "Screens cash-secured puts and covered calls by DTE and OTM bands",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screener dashboard and JSON API",
	Run: func(cmd *cobra.Command, args []string) {
		initEnvironment()

		screener, quotes, data := buildServices()
		runLog := services.NewRunLog(50)

		r := gin.Default()
		controllers.NewScreenerController(screener, quotes, data, runLog).RegisterRoutes(r)
		controllers.NewDashboardController().RegisterRoutes(r)
		r.GET("/healthz", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}

		log.Infof("Listening on :%s", port)
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run a one-off screen for both strategies and print the results",
	Run: func(cmd *cobra.Command, args []string) {
		initEnvironment()

		ticker, _ := cmd.Flags().GetString("ticker")
		minDTE, _ := cmd.Flags().GetInt("min-dte")
		maxDTE, _ := cmd.Flags().GetInt("max-dte")
		minOTM, _ := cmd.Flags().GetFloat64("min-otm")
		maxOTM, _ := cmd.Flags().GetFloat64("max-otm")

		screener, _, _ := buildServices()

		for _, strategy := range []models.Strategy{models.StrategyCashSecuredPut, models.StrategyCoveredCall} {
			req := models.ScreenRequest{
				Ticker:   ticker,
				MinDTE:   minDTE,
				MaxDTE:   maxDTE,
				MinOTM:   minOTM,
				MaxOTM:   maxOTM,
				Strategy: strategy,
			}

			result, err := screener.Run(context.Background(), req)
			if err != nil {
				log.Errorf("%s screen failed: %v", strategy, err)
				continue
			}

			fmt.Printf("\n%s on %s (spot $%.2f): %d opportunities\n",
				strategy, result.Ticker, result.Spot, len(result.Opportunities))
			if len(result.Opportunities) == 0 {
				fmt.Println("no opportunities found")
				continue
			}
			printOpportunities(result.Opportunities)
		}
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check local environment and deployment readiness",
	Run: func(cmd *cobra.Command, args []string) {
		initEnvironment()

		doctor := services.NewDoctor(os.Getenv("ALPACA_DATA_URL"))
		checks := doctor.RunChecks(context.Background())

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Check", "Status", "Detail"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		failed := 0
		for _, check := range checks {
			status := "OK"
			if !check.OK {
				status = "FAIL"
				failed++
			}
			table.Append([]string{check.Name, status, check.Detail})
		}
		table.Render()

		if failed > 0 {
			os.Exit(1)
		}
	},
}

func initEnvironment() {
	if err := godotenv.Load(); err != nil {
		// A .env file is optional when variables come from the environment.
		log.Debugf("no .env file loaded: %v", err)
	}
}

func buildServices() (*services.Screener, *services.QuoteCache, *services.AlpacaMarketDataService) {
	data := services.NewAlpacaMarketDataService(
		os.Getenv("ALPACA_API_KEY"),
		os.Getenv("ALPACA_SECRET_KEY"),
		os.Getenv("ALPACA_DATA_URL"),
	)

	ttl := services.DefaultQuoteTTL
	if raw := os.Getenv("QUOTE_CACHE_TTL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		} else {
			log.Warnf("ignoring invalid QUOTE_CACHE_TTL %q", raw)
		}
	}

	quotes := services.NewQuoteCache(data, ttl)
	return services.NewScreener(data, quotes), quotes, data
}

func printOpportunities(opportunities []models.Opportunity) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Contract", "DTE", "Strike", "Premium", "Risk", "Volume", "Open Int", "Annualized"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, opp := range opportunities {
		table.Append([]string{
			opp.ContractSymbol,
			strconv.Itoa(opp.DTE),
			fmt.Sprintf("$%.2f", opp.Strike),
			fmt.Sprintf("$%.2f", opp.Premium),
			fmt.Sprintf("%.3f", opp.RiskProxy),
			strconv.FormatInt(opp.Volume, 10),
			strconv.FormatInt(opp.OpenInterest, 10),
			fmt.Sprintf("%.2f%%", opp.AnnualizedReturn*100),
		})
	}
	table.Render()
}

func main() {
	rootCmd.AddCommand(serveCmd, screenCmd, doctorCmd)

	screenCmd.Flags().String("ticker", "AAPL", "underlying ticker symbol")
	screenCmd.Flags().Int("min-dte", 30, "minimum days to expiration")
	screenCmd.Flags().Int("max-dte", 45, "maximum days to expiration")
	screenCmd.Flags().Float64("min-otm", 0.05, "minimum out-of-the-money percentage")
	screenCmd.Flags().Float64("max-otm", 0.15, "maximum out-of-the-money percentage")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
