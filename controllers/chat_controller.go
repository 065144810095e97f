package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"fitmatch_server/models"
	"fitmatch_server/services"
)

// ChatController handles HTTP requests for chat operations
type ChatController struct {
	ChatService *services.ChatService
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{ChatService: service}
}

// SendMessage stores a new message and pushes it to the conversation room
func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, models.NewValidationError("invalid request body"))
		return
	}

	message, err := c.ChatService.SendMessage(r.Context(), request.SenderID, request.ReceiverID, request.Content)
	if err != nil {
		log.Printf("❌ Failed to send message: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// GetMessages fetches the reconciled history between two users
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	selfID := r.URL.Query().Get("selfId")
	otherID := r.URL.Query().Get("otherId")
	limitStr := r.URL.Query().Get("limit")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := c.ChatService.ConversationHistory(r.Context(), selfID, otherID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
