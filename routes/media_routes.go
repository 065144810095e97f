package routes

import (
	"fitmatch_server/controllers"
	"fitmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMediaRoutes sets up routes for presigned photo URLs under /api/media
func RegisterMediaRoutes(r *mux.Router, mediaService *services.MediaService) {
	controller := controllers.NewMediaController(mediaService)

	mediaRouter := r.PathPrefix("/api/media").Subrouter()
	mediaRouter.HandleFunc("/upload-url", controller.GetUploadURL).Methods("POST")
	mediaRouter.HandleFunc("/read-url", controller.GetReadURL).Methods("GET")
}
