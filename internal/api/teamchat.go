package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/teamchat/internal/chat"
	"github.com/npezzotti/teamchat/internal/config"
	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/server"
)

var validate = validator.New()

type TeamChatApp struct {
	log            *log.Logger
	db             database.TeamChatRepository
	chat           *chat.Service
	hub            *server.Hub
	mux            *http.Server
	signingKey     []byte
	allowedOrigins []string
}

func NewTeamChatApp(mux *http.ServeMux, logger *log.Logger, hub *server.Hub, chatSvc *chat.Service, db database.TeamChatRepository, cfg *config.Config) *TeamChatApp {
	s := &TeamChatApp{
		log:            logger,
		db:             db,
		chat:           chatSvc,
		hub:            hub,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("GET /api/rooms", s.authMiddleware(s.listRooms))
	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("GET /api/rooms/joinable", s.authMiddleware(s.listJoinableRooms))
	mux.Handle("GET /api/rooms/{id}", s.authMiddleware(s.getRoom))
	mux.Handle("DELETE /api/rooms/{id}", s.authMiddleware(s.deleteRoom))
	mux.Handle("POST /api/rooms/{id}/join", s.authMiddleware(s.joinRoom))
	mux.Handle("POST /api/rooms/{id}/members", s.authMiddleware(s.addMember))
	mux.Handle("DELETE /api/rooms/{id}/members/me", s.authMiddleware(s.leaveRoom))
	mux.Handle("DELETE /api/rooms/{id}/members/{membershipId}", s.authMiddleware(s.removeMember))
	mux.Handle("GET /api/rooms/{id}/messages", s.authMiddleware(s.listMessages))
	mux.Handle("POST /api/rooms/{id}/messages", s.authMiddleware(s.postMessage))
	mux.Handle("POST /api/rooms/{id}/read", s.authMiddleware(s.markRead))
	mux.Handle("PATCH /api/messages/{id}", s.authMiddleware(s.updateMessage))
	mux.Handle("DELETE /api/messages/{id}", s.authMiddleware(s.deleteMessage))
	mux.Handle("POST /api/dms", s.authMiddleware(s.findOrCreateDM))
	mux.Handle("GET /api/users", s.authMiddleware(s.searchUsers))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))
	mux.HandleFunc("GET /healthz", s.healthz)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *TeamChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *TeamChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *TeamChatApp) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("healthz:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}
