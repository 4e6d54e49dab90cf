package api

import (
	"net/http"
	"ward-pickup-service/internal/api/auth"
	"ward-pickup-service/internal/api/handlers"
	"ward-pickup-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Deps struct {
	Lifecycle   *services.PickupLifecycle
	Engine      *services.RouteEngine
	Ledger      *services.IncentiveLedger
	JWTSecret   []byte
	CORSOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	router := mux.NewRouter()

	pickups := &handlers.PickupHandler{Lifecycle: deps.Lifecycle}
	route := &handlers.RouteHandler{Engine: deps.Engine}
	incentives := &handlers.IncentiveHandler{Ledger: deps.Ledger}

	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	secured := router.PathPrefix("/api").Subrouter()
	secured.Use(auth.Middleware(deps.JWTSecret))

	secured.HandleFunc("/pickups", pickups.Create).Methods(http.MethodPost)
	secured.HandleFunc("/pickups", pickups.List).Methods(http.MethodGet)
	secured.HandleFunc("/pickups/{id}/verify", pickups.Verify).Methods(http.MethodPatch)
	secured.HandleFunc("/pickups/{id}/complete", pickups.Complete).Methods(http.MethodPatch)
	secured.HandleFunc("/pickups/{id}/cancel", pickups.Cancel).Methods(http.MethodPatch)
	secured.HandleFunc("/route", route.Generate).Methods(http.MethodGet)
	secured.HandleFunc("/incentives/me", incentives.Me).Methods(http.MethodGet)
	secured.HandleFunc("/incentives/{citizenId}", incentives.ByCitizen).Methods(http.MethodGet)

	co := cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})

	return requestIDMiddleware(loggingMiddleware(co.Handler(router)))
}
