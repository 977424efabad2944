package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "leetmate/agent/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"leetmate/agent/internal/relay"
)

// NewRouter creates and configures a chi router with all the agent's routes.
func NewRouter(chatHandler *ChatHandler, hub *relay.Hub) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The page script's relay channel. Must stay outside any timeout group:
	// the socket lives as long as the page does.
	r.Get("/ws", hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/problems/{slug}/chats", chatHandler.GetChats)
			r.Get("/problems/{slug}/chats/{chatID}", chatHandler.GetChat)
			r.Delete("/problems/{slug}/chats/{chatID}", chatHandler.DeleteChat)
			r.Get("/problems/{slug}/title", chatHandler.GetProblemTitle)

			r.Get("/problems/{slug}/saved", chatHandler.GetSavedResponses)
			r.Post("/problems/{slug}/saved", chatHandler.SaveResponse)
			r.Delete("/problems/{slug}/saved", chatHandler.UnsaveResponse)

			r.Post("/widget/toggle", chatHandler.ToggleChat)
		})

		// Streaming endpoints hold the connection open; no timeout here.
		r.Group(func(r chi.Router) {
			r.Post("/chats/messages", chatHandler.HandleStreamMessage)
			r.Post("/chats/messages/{messageID}/retry", chatHandler.HandleRetryMessage)
		})
	})

	return r
}
