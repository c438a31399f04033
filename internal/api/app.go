package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"

	"roomcast/internal/config"
	"roomcast/internal/database"
	"roomcast/internal/server"
)

type ChatApp struct {
	log                 *log.Logger
	db                  database.Repository
	mux                 *http.Server
	cs                  *server.ChatServer
	allowedOrigins      []string
	defaultHistoryLimit int
	maxHistoryLimit     int
	generateShortId     func() (string, error)
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.Repository, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:                 logger,
		db:                  db,
		cs:                  cs,
		allowedOrigins:      cfg.AllowedOrigins,
		defaultHistoryLimit: cfg.DefaultHistoryLimit,
		maxHistoryLimit:     cfg.MaxHistoryLimit,
		generateShortId:     shortid.Generate,
	}

	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("GET /users/{username}", s.getUser)
	mux.HandleFunc("POST /rooms", s.createRoom)
	mux.HandleFunc("GET /rooms", s.listRooms)
	mux.HandleFunc("GET /messages/{room}", s.getMessages)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
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

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
