package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/rs/cors"

	"github.com/choiwjun/chamgab-sub000/config"
	"github.com/choiwjun/chamgab-sub000/handlers"
	"github.com/choiwjun/chamgab-sub000/middleware"
)

type HealthResponse struct {
	Status    string `json:"status"`
	DBStatus  string `json:"db_status"`
	DBDetails struct {
		Host     string   `json:"host"`
		Port     string   `json:"port"`
		Database string   `json:"database"`
		Tables   []string `json:"tables,omitempty"`
	} `json:"db_details"`
	MLConfigured bool   `json:"ml_configured"`
	Error        string `json:"error,omitempty"`
}

func healthCheck(mlConfigured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:       "ok",
			MLConfigured: mlConfigured,
		}

		if config.DB == nil {
			response.Status = "error"
			response.DBStatus = "not_initialized"
			response.Error = "Database connection not initialized"
		} else if err := config.CheckPostgresHealth(); err != nil {
			response.Status = "error"
			response.DBStatus = "connection_error"
			response.Error = fmt.Sprintf("Database ping failed: %v", err)
		} else {
			response.DBStatus = "connected"
			response.DBDetails.Host = os.Getenv("DB_HOST")
			response.DBDetails.Port = os.Getenv("DB_PORT")
			response.DBDetails.Database = os.Getenv("DB_NAME")

			tables := []string{"business_stats", "sales_stats", "store_stats", "foot_traffic", "districts", "industries"}
			var existingTables []string
			for _, table := range tables {
				var exists bool
				err := config.DB.QueryRow(`
					SELECT EXISTS (
						SELECT FROM information_schema.tables
						WHERE table_name = $1
					)`, table).Scan(&exists)
				if err == nil && exists {
					existingTables = append(existingTables, table)
				}
			}
			response.DBDetails.Tables = existingTables
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func main() {
	startTime := time.Now()
	log.Printf("Starting server initialization at %s", startTime.Format(time.RFC3339))

	// Load environment variables first
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("No PORT environment variable found, using default: %s", port)
	}

	// Initialize PostgreSQL database with retries
	log.Println("Initializing PostgreSQL database...")
	if err := config.InitDBWithRetry(5); err != nil {
		log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	log.Println("PostgreSQL database initialized successfully")
	defer config.CloseDB()

	config.InitCache()

	// Commercial analysis configuration is resolved here once; handlers
	// never read the environment themselves.
	commercialCfg := handlers.DefaultCommercialConfig()
	commercialCfg.MLAPIURL = config.GetEnv("ML_API_URL", "")
	commercialCfg.MLTimeout = config.GetEnvAsDuration("ML_API_TIMEOUT", 3*time.Second)
	commercialCfg.CompareFanOut = config.GetEnvAsInt("COMPARE_FANOUT", 8)
	if commercialCfg.MLAPIURL == "" {
		log.Println("ML_API_URL not set, predictions will use the rule-based engine only")
	}

	stats := handlers.NewSQLStatsStore(config.DB, config.StatsCache, config.CatalogCache)
	commercial := handlers.NewCommercial(stats, commercialCfg)

	r := mux.NewRouter()

	// CORS configuration
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://127.0.0.1:3000",
			"https://chamgab.com",
			"https://www.chamgab.com",
		},
		AllowedMethods: []string{
			"GET", "POST", "OPTIONS",
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
			"Origin",
		},
		ExposedHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	// Apply middlewares in correct order
	r.Use(middleware.RequestIDMiddleware)
	r.Use(corsHandler.Handler)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	registerRoutes(api, commercial)
	log.Println("Routes registered successfully")

	// Health check endpoint
	api.HandleFunc("/health/detailed", healthCheck(commercialCfg.MLAPIURL != "")).Methods("GET")

	srv := &http.Server{
		Handler:           r,
		Addr:              ":" + port,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Printf("Starting server on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			serverErrors <- err
		}
	}()

	log.Printf("Server is running at http://localhost:%s", port)
	log.Printf("Health check endpoint: http://localhost:%s/api/v1/health", port)

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutdown signal received")
	case err := <-serverErrors:
		log.Printf("Server error received: %v", err)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	} else {
		log.Println("Server shutdown completed successfully")
	}
}

func registerRoutes(api *mux.Router, commercial *handlers.Commercial) {
	c := api.PathPrefix("/commercial").Subrouter()

	// Prediction and comparison
	c.HandleFunc("/predict", commercial.Predict).Methods("POST", "OPTIONS")
	c.HandleFunc("/business/compare", commercial.CompareBusiness).Methods("POST", "OPTIONS")

	// District analysis
	c.HandleFunc("/districts", commercial.ListDistricts).Methods("GET")
	c.HandleFunc("/districts/{code}/characteristics", commercial.GetDistrictCharacteristics).Methods("GET")
	c.HandleFunc("/districts/{code}/peak-hours", commercial.GetDistrictPeakHours).Methods("GET")
	c.HandleFunc("/districts/{code}/demographics", commercial.GetDistrictDemographics).Methods("GET")
	c.HandleFunc("/districts/{code}/growth-potential", commercial.GetDistrictGrowthPotential).Methods("GET")
	c.HandleFunc("/districts/{code}/competition", commercial.GetDistrictCompetition).Methods("GET")
	c.HandleFunc("/districts/{code}/profile", commercial.GetDistrictProfile).Methods("GET")
	c.HandleFunc("/districts/{code}/recommend-industry", commercial.GetDistrictRecommendIndustry).Methods("GET")
	c.HandleFunc("/districts/{code}/weekend-analysis", commercial.GetDistrictWeekendAnalysis).Methods("GET")

	// Industry catalog and rollups
	c.HandleFunc("/industries", commercial.ListIndustries).Methods("GET")
	c.HandleFunc("/industries/{code}/statistics", commercial.GetIndustryStatistics).Methods("GET")

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}
