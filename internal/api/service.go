package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/interfaces"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
)

// Service exposes the access manager over HTTP
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	access    interfaces.AccessService
	store     interfaces.RecordStore
	ledger    interfaces.LedgerClient
	validator *TokenValidator
	health    *monitoring.HealthManager
	server    *http.Server
}

// NewService creates the HTTP API service
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	access interfaces.AccessService,
	store interfaces.RecordStore,
	ledger interfaces.LedgerClient,
	health *monitoring.HealthManager,
) *Service {
	return &Service{
		config:    cfg,
		logger:    log,
		access:    access,
		store:     store,
		ledger:    ledger,
		validator: NewTokenValidator(cfg.JWT.SecretKey, cfg.JWT.Issuer),
		health:    health,
	}
}

// Router builds the HTTP router with all routes and middleware
func (s *Service) Router() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.corsMiddleware)
	router.Use(s.securityHeadersMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.authMiddleware)

	s.setupRoutes(router)
	return router
}

// setupRoutes configures HTTP routes
func (s *Service) setupRoutes(router *mux.Router) {
	if s.health != nil {
		router.HandleFunc(s.config.Monitoring.HealthPath, s.health.Handler()).Methods("GET")
	}
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Access token routes
	api.HandleFunc("/tokens/mint", s.mintTokenHandler).Methods("POST")
	api.HandleFunc("/tokens/status", s.tokenStatusHandler).Methods("GET")

	// Authorization grant routes
	api.HandleFunc("/grants", s.grantAccessHandler).Methods("POST")
	api.HandleFunc("/grants/{doctorAddress}", s.revokeAccessHandler).Methods("DELETE")
	api.HandleFunc("/access/{patientAddress}", s.checkAccessHandler).Methods("GET")

	// Role assignment
	api.HandleFunc("/roles", s.assignRoleHandler).Methods("POST")

	// Profile routes
	api.HandleFunc("/patients/profile", s.putPatientProfileHandler).Methods("PUT")
	api.HandleFunc("/patients/{patientAddress}/profile", s.getPatientProfileHandler).Methods("GET")
	api.HandleFunc("/doctors/profile", s.putDoctorProfileHandler).Methods("PUT")
	api.HandleFunc("/doctors/{doctorAddress}/profile", s.getDoctorProfileHandler).Methods("GET")

	// Health record routes
	api.HandleFunc("/patients/{patientAddress}/records", s.uploadRecordHandler).Methods("POST")
	api.HandleFunc("/patients/{patientAddress}/records", s.listRecordsHandler).Methods("GET")

	s.logger.Info("Access manager routes configured")
}

// Start starts the HTTP server and blocks until it stops
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithField("address", s.server.Addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *Service) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
