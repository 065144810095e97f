package routes

import (
	"fitmatch_server/controllers"
	"fitmatch_server/services"
	"fitmatch_server/store"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/match
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, profiles store.ProfileStore) {
	controller := controllers.NewMatchController(matchService, profiles)

	matchRouter := r.PathPrefix("/api/match").Subrouter()
	matchRouter.HandleFunc("/like", controller.Like).Methods("POST")
	matchRouter.HandleFunc("/connections", controller.GetConnections).Methods("GET")
}
