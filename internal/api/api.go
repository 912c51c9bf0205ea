package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tkzw41/showcase/internal/demo"
	"github.com/tkzw41/showcase/internal/middleware"
)

// Server is the HTTP surface for the demo sandboxes. All state lives in the
// injected services; the server itself only routes and translates errors
// into response envelopes.
type Server struct {
	router *mux.Router
	logger *zap.Logger

	payments    *demo.PaymentService
	pipeline    *demo.PipelineService
	dashboard   *demo.DashboardService
	collections *demo.CollectionsService

	started time.Time
}

func New(
	logger *zap.Logger,
	payments *demo.PaymentService,
	pipeline *demo.PipelineService,
	dashboard *demo.DashboardService,
	collections *demo.CollectionsService,
	wsHandler http.Handler,
) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		logger:      logger,
		payments:    payments,
		pipeline:    pipeline,
		dashboard:   dashboard,
		collections: collections,
		started:     time.Now(),
	}

	s.setupRoutes(wsHandler)
	return s
}

func (s *Server) setupRoutes(wsHandler http.Handler) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/ws/{demo_type}/{session_id}", wsHandler).Methods("GET")

	api := s.router.PathPrefix("/api/demos").Subrouter()
	api.Use(middleware.RequestID, middleware.RequestLogger(s.logger))

	api.HandleFunc("/payment-processing/session", s.handleCreatePaymentSession).Methods("POST")
	api.HandleFunc("/payment-processing/process", s.handleProcessPayment).Methods("POST")
	api.HandleFunc("/payment-processing/invoices/{customer_id}", s.handleCustomerInvoices).Methods("GET")

	api.HandleFunc("/data-pipeline/session", s.handleCreatePipelineSession).Methods("POST")
	api.HandleFunc("/data-pipeline/extract", s.handleExtractData).Methods("POST")

	api.HandleFunc("/dashboard/session", s.handleCreateDashboardSession).Methods("POST")
	api.HandleFunc("/dashboard/data", s.handleDashboardData).Methods("POST")

	api.HandleFunc("/collections/session", s.handleCreateCollectionsSession).Methods("POST")
	api.HandleFunc("/collections/data", s.handleCollectionsData).Methods("POST")
}

// Handler wraps the router with CORS for the standalone demo frontends.
func (s *Server) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(s.router)
}
