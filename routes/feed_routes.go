package routes

import (
	"fitmatch_server/controllers"
	"fitmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterFeedRoutes sets up the candidate feed route under /api/feed
func RegisterFeedRoutes(r *mux.Router, feedService *services.FeedService) {
	controller := controllers.NewFeedController(feedService)

	r.HandleFunc("/api/feed", controller.GetFeed).Methods("GET")
}
