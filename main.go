package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/alfalang/alfapay/backend/src/config"
	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/handlers"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{}
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// seedDefaultClients creates the three standard billing clients on first run.
func seedDefaultClients() {
	var count int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM clients").Scan(&count); err != nil {
		logger.L.Error("Failed to count clients for seeding", "error", err)
		return
	}
	if count > 0 {
		return
	}

	defaults := []struct {
		id, name, idField string
	}{
		{"cloudbreak", "Cloudbreak", "cloudbreak_id"},
		{"languagelink", "Languagelink", "languagelink_id"},
		{"propio", "Propio", "propio_id"},
	}
	now := time.Now().UTC()
	for _, c := range defaults {
		_, err := database.DB.Exec(
			"INSERT INTO clients (id, name, id_field, column_template, created_at, updated_at) VALUES (?, ?, ?, '', ?, ?)",
			c.id, c.name, c.idField, now, now)
		if err != nil {
			logger.L.Error("Failed to seed default client", "name", c.name, "error", err)
			return
		}
	}
	logger.L.Info("Default clients initialized", "count", len(defaults))
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("AlfaPay backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	if config.Cfg.SeedDefaultClients {
		seedDefaultClients()
	}

	statsCache := cache.New(config.Cfg.StatsCacheExpiry, services.CacheCleanupInterval)

	importService := services.NewImportService(statsCache)

	interpreterHandler := handlers.NewInterpreterHandler()
	clientHandler := handlers.NewClientHandler()
	clientRateHandler := handlers.NewClientRateHandler()
	paymentHandler := handlers.NewPaymentHandler(importService)
	importHandler := handlers.NewImportHandler(importService)
	exportHandler := handlers.NewExportHandler(importService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "AlfaPay Backend is running"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/interpreters", interpreterHandler.ListInterpreters)
		r.Post("/interpreters", interpreterHandler.CreateInterpreter)
		r.Post("/interpreters/bulk", interpreterHandler.BulkUpsertInterpreters)
		r.Get("/interpreters/{id}", interpreterHandler.GetInterpreter)
		r.Put("/interpreters/{id}", interpreterHandler.UpdateInterpreter)
		r.Delete("/interpreters/{id}", interpreterHandler.DeleteInterpreter)

		r.Get("/clients", clientHandler.ListClients)
		r.Post("/clients", clientHandler.CreateClient)
		r.Get("/clients/{id}", clientHandler.GetClient)
		r.Put("/clients/{id}", clientHandler.UpdateClient)
		r.Delete("/clients/{id}", clientHandler.DeleteClient)

		r.Get("/client-rates", clientRateHandler.ListClientRates)
		r.Post("/client-rates", clientRateHandler.CreateClientRate)
		r.Get("/client-rates/{id}", clientRateHandler.GetClientRate)
		r.Put("/client-rates/{id}", clientRateHandler.UpdateClientRate)
		r.Delete("/client-rates/{id}", clientRateHandler.DeleteClientRate)

		r.Get("/payments", paymentHandler.ListPayments)
		r.Post("/payments", paymentHandler.CreatePayment)
		r.Post("/payments/bulk", paymentHandler.BulkCreatePayments)
		r.Get("/payments/stats/summary", paymentHandler.GetPaymentStats)
		r.Post("/payments/approve-all-matched", paymentHandler.ApproveAllMatched)
		r.Get("/payments/{id}", paymentHandler.GetPayment)
		r.Put("/payments/{id}", paymentHandler.UpdatePayment)
		r.Delete("/payments/{id}", paymentHandler.DeletePayment)

		r.Post("/imports/parse", importHandler.HandleParse)
		r.Post("/imports/reconcile", importHandler.HandleReconcile)

		r.Post("/export/payments-csv", exportHandler.HandleExportPaymentsCSV)
		r.Get("/export/zoho-books", exportHandler.HandleExportZohoBooks)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
