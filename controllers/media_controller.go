package controllers

import (
	"encoding/json"
	"net/http"

	"fitmatch_server/models"
	"fitmatch_server/services"
)

// MediaController hands out presigned photo URLs
type MediaController struct {
	MediaService *services.MediaService
}

// NewMediaController creates a new MediaController instance
func NewMediaController(mediaService *services.MediaService) *MediaController {
	return &MediaController{MediaService: mediaService}
}

// GetUploadURL returns a presigned PUT URL for a new profile photo
func (mc *MediaController) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	var request struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.FileName == "" {
		writeError(w, models.NewValidationError("fileName and fileType are required"))
		return
	}

	url, key, err := mc.MediaService.GenerateUploadURL(r.Context(), request.FileName, request.FileType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uploadUrl": url, "key": key})
}

// GetReadURL returns a presigned GET URL for a stored photo
func (mc *MediaController) GetReadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, models.NewValidationError("key is required"))
		return
	}

	url, err := mc.MediaService.GenerateReadURL(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"readUrl": url})
}
