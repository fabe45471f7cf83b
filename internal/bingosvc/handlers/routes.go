package handlers

import (
	"errors"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Get("/state", h.StateHandler)
		r.Get("/cards", h.CardsHandler)
		r.Get("/cards/{code}", h.CardHandler)
		r.Get("/cards/{code}/check", h.CheckHandler)
		r.Get("/ws", h.ws.HandleWebSocket)

		// caller controls, secured when a jwt secret is configured
		r.Group(func(r chi.Router) {
			if h.tokenAuth != nil {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)
			}

			r.Post("/game/start", h.StartHandler)
			r.Post("/game/draw", h.DrawHandler)
			r.Post("/game/undo", h.UndoHandler)
			r.Post("/game/end", h.EndHandler)
			r.Post("/selection", h.SelectionHandler)
			r.Put("/settings", h.SettingsHandler)
		})
	})
}

// InitAuth enables jwt on the caller routes. An empty secret leaves them open.
func (h *Handler) InitAuth(secret string) {
	if secret == "" {
		log.Warn("JWT_SECRET_KEY not set, caller routes are unauthenticated")
		return
	}
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
}

// Token issues a caller token signed with the configured secret. It is never
// logged; cmd/bingosvc prints one to stdout only when JWT_PRINT_TOKEN is set.
func (h *Handler) Token(ttl time.Duration) (string, error) {
	if h.tokenAuth == nil {
		return "", errors.New("jwt auth not configured")
	}
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"role": "caller",
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return tokenString, err
}
