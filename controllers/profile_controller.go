package controllers

import (
	"encoding/json"
	"net/http"

	"fitmatch_server/models"
	"fitmatch_server/services"

	"github.com/gorilla/mux"
)

// ProfileController handles HTTP requests for profile operations
type ProfileController struct {
	ProfileService *services.ProfileService
}

// NewProfileController creates a new ProfileController instance
func NewProfileController(profileService *services.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

// GetProfile fetches one profile by user id
func (pc *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	profile, err := pc.ProfileService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// ListProfiles fetches a snapshot of all profiles
func (pc *ProfileController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := pc.ProfileService.ListProfiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

// PutProfile upserts the caller's own profile
func (pc *ProfileController) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, models.NewValidationError("invalid request body"))
		return
	}

	stored, err := pc.ProfileService.PutProfile(r.Context(), userID, profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
