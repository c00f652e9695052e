package api

import (
	"github.com/gorilla/mux"

	"github.com/arborhq/arbor/internal/api/recovery"
	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/events"
	"github.com/arborhq/arbor/internal/health"
	"github.com/arborhq/arbor/internal/search"
	"github.com/arborhq/arbor/internal/services"
	"github.com/arborhq/arbor/internal/store"
)

// RouterDeps carries the collaborators the router wires together.
type RouterDeps struct {
	Store   store.Store
	Issuer  *auth.TokenIssuer
	Bus     *events.Bus
	Service *health.ServiceHealthChecker
	StoreHC health.HealthChecker
}

// NewRouter creates the HTTP router with all API routes. Auth routes
// and health are public; everything else requires a bearer token.
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	// Domain services
	userService := services.NewUserService(deps.Store)
	containerService := services.NewContainerService(deps.Store)
	linkService := services.NewLinkService(deps.Store, deps.Bus)
	topicService := services.NewTopicService(deps.Store)
	searcher := search.NewAncestrySearcher(deps.Store)

	// Handlers
	authHandler := NewAuthHandler(userService, deps.Issuer)
	containerHandler := NewContainerHandler(containerService)
	linkHandler := NewLinkHandler(linkService)
	topicHandler := NewTopicHandler(topicService, searcher)
	healthHandler := NewHealthHandler(deps.Service, deps.StoreHC)

	// Public endpoints
	router.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStoreHealth).Methods("GET")

	// Everything below requires authentication.
	protected := router.NewRoute().Subrouter()
	protected.Use(deps.Issuer.Middleware)

	// Container endpoints
	protected.HandleFunc("/containers", containerHandler.CreateContainer).Methods("POST")
	protected.HandleFunc("/containers/delete", containerHandler.DeleteContainer).Methods("POST")
	protected.HandleFunc("/containers/{containerId}", containerHandler.GetContainer).Methods("GET")

	// Topic endpoints
	protected.HandleFunc("/topics", topicHandler.CreateTopic).Methods("POST")
	protected.HandleFunc("/topics/{topicId}", topicHandler.DeleteTopic).Methods("DELETE")

	// Link workflow endpoints
	protected.HandleFunc("/link/getlink", linkHandler.GetLink).Methods("POST")
	protected.HandleFunc("/link/putlink", linkHandler.PutLink).Methods("POST")
	protected.HandleFunc("/link/unlinkget", linkHandler.UnlinkGet).Methods("POST")
	protected.HandleFunc("/link/unlinkput", linkHandler.UnlinkPut).Methods("POST")
	protected.HandleFunc("/link/madebyme", linkHandler.RequestsMadeByMe).Methods("POST")
	protected.HandleFunc("/link/madetome", linkHandler.RequestsMadeToMe).Methods("POST")
	protected.HandleFunc("/link/accept", linkHandler.AcceptLinkRequest).Methods("POST")
	protected.HandleFunc("/link/cancel", linkHandler.CancelLinkRequest).Methods("POST")

	// Search endpoints
	protected.HandleFunc("/topicsearch", topicHandler.SearchTopics).Methods("POST")
	protected.HandleFunc("/containersearch/private", containerHandler.SearchPrivate).Methods("POST")
	protected.HandleFunc("/containersearch/public", containerHandler.SearchPublic).Methods("POST")

	return router
}
