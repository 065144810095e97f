package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"fitmatch_server/controllers"
	"fitmatch_server/metrics"
	"fitmatch_server/middleware"
	"fitmatch_server/routes"
	"fitmatch_server/services"
	"fitmatch_server/socket"
	"fitmatch_server/store"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Pick the storage backend. DynamoDB in production, memory for local
	// runs and demos.
	var profiles store.ProfileStore
	var matches store.MatchStore
	var messages store.MessageStore

	switch os.Getenv("STORAGE_BACKEND") {
	case "memory":
		log.Println("Using in-memory storage backend")
		mem := store.NewMemoryStore()
		profiles, matches, messages = mem, mem, mem
	default:
		log.Println("Initializing DynamoDB client...")
		client := store.InitializeDynamoDBClient()
		dyn := store.NewDynamoStore(client, pollIntervalFromEnv())
		profiles, matches, messages = dyn, dyn, dyn
		log.Println("DynamoDB client initialized.")
	}

	// Real-time push for chat rooms.
	socketServer := socket.NewServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize Services
	profileService := services.NewProfileService(profiles)
	matchService := services.NewMatchService(matches)
	chatService := services.NewChatService(messages, socketServer)
	socketServer.SetOpener(chatService)
	feedService := services.NewFeedService(profiles, services.NewSimilarityService())

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.Handle("/socket.io/", socketServer.IO())

	// Register routes
	routes.RegisterProfileRoutes(r, profileService)
	routes.RegisterFeedRoutes(r, feedService)
	routes.RegisterMatchRoutes(r, matchService, profiles)
	routes.RegisterChatRoutes(r, chatService)

	// Presigned photo URLs need AWS config; skip the routes when it is
	// unavailable (memory-backend local runs).
	if mediaService, err := services.NewMediaService(); err == nil {
		routes.RegisterMediaRoutes(r, mediaService)
	} else {
		log.Printf("⚠️ Media routes disabled: %v", err)
	}

	// Rate limit the API per client.
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer limiter.Stop()

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
	}).Handler(limiter.Middleware(r))

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func pollIntervalFromEnv() time.Duration {
	ms, err := strconv.Atoi(os.Getenv("MESSAGE_POLL_INTERVAL_MS"))
	if err != nil || ms <= 0 {
		return store.DefaultPollInterval
	}
	return time.Duration(ms) * time.Millisecond
}
