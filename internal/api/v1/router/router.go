package router

import (
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New builds the HTTP handler tree. The store manager is returned so main
// can close the pool on shutdown; no connection is opened here, the first
// request that needs the store triggers the one shared connect attempt.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *store.Manager, error) {
	st := store.NewManager(cfg.DBConnectionString, cfg.StoreTimeout())

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepo(st)
	ledgerRepo := repository.NewLedgerRepo(st)
	transactionRepo := repository.NewTransactionRepo(st)

	identitySvc := service.NewIdentityService(userRepo, logger)
	settlementSvc := service.NewSettlementService(transactionRepo, ledgerRepo, logger)
	userSvc := service.NewUserService(userRepo, ledgerRepo, transactionRepo, logger)

	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	webhookHandler, err := handler.NewWebhookHandler(identitySvc, settlementSvc, cfg.ClerkWebhookSecret, cfg.StripeWebhookSecret, validate, logger)
	if err != nil {
		return nil, nil, err
	}

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)

	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	webhookHandler.RegisterRoutes(apiV1Mux)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	h := middleware.TimeoutMiddleware(cfg.StoreTimeout(), c.Handler(mux))
	return middleware.LoggerMiddleware(logger, h), st, nil
}
