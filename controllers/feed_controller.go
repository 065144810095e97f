package controllers

import (
	"net/http"

	"fitmatch_server/models"
	"fitmatch_server/services"
)

// FeedController handles HTTP requests for the candidate feed
type FeedController struct {
	FeedService *services.FeedService
}

// NewFeedController creates a new FeedController instance
func NewFeedController(feedService *services.FeedService) *FeedController {
	return &FeedController{FeedService: feedService}
}

// GetFeed builds and returns the ordered candidate queue for a user
func (fc *FeedController) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	mode := services.FeedMode(r.URL.Query().Get("mode"))
	if userID == "" {
		writeError(w, models.NewValidationError("userId is required"))
		return
	}

	queue, err := fc.FeedService.LoadFeed(r.Context(), userID, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": queue.Candidates(),
	})
}
