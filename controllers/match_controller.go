package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"fitmatch_server/models"
	"fitmatch_server/services"
	"fitmatch_server/store"
)

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	MatchService *services.MatchService
	Profiles     store.ProfileStore
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService, profiles store.ProfileStore) *MatchController {
	return &MatchController{MatchService: matchService, Profiles: profiles}
}

// Like applies a like from actor to target and reports the outcome
func (mc *MatchController) Like(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ActorID  string `json:"actorId"`
		TargetID string `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, models.NewValidationError("invalid request body"))
		return
	}

	outcome, record, err := mc.MatchService.Like(r.Context(), request.ActorID, request.TargetID)
	if err != nil {
		log.Printf("❌ Like failed: %s -> %s: %v", request.ActorID, request.TargetID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"record":  record,
	})
}

// GetConnections fetches the user's confirmed matches with partner profiles
func (mc *MatchController) GetConnections(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, models.NewValidationError("userId is required"))
		return
	}

	connections, err := mc.MatchService.ConnectionsFor(r.Context(), userID, mc.Profiles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"connections": connections})
}
