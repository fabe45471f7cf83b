package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	natsgo "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/bingobongo/configs"
	"github.com/avvvet/bingobongo/internal/bingo"
	"github.com/avvvet/bingobongo/internal/bingosvc/broker"
	"github.com/avvvet/bingobongo/internal/bingosvc/handlers"
	"github.com/avvvet/bingobongo/internal/bingosvc/service"
	"github.com/avvvet/bingobongo/internal/bingosvc/ws"
	"github.com/avvvet/bingobongo/internal/nats"
	"github.com/avvvet/bingobongo/internal/store"
)

const SERVICE_NAME = "bingobongo"

var cfg config.Config

func init() {
	config.LoadEnv(SERVICE_NAME)

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Error: invalid configuration %v", err)
	}
	config.Logging(SERVICE_NAME+"_service", cfg.LogLevel, cfg.LogToFile)
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	catalog, err := bingo.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load card catalog: %v", err)
	}
	log.Infof("card catalog loaded: %d cards from %s", catalog.Len(), cfg.CatalogPath)

	storePath := cfg.StorePath
	if cfg.StoreDriver == store.DriverSQLite {
		storePath = filepath.Join(storePath, SERVICE_NAME+".db")
	}
	st, err := store.Open(cfg.StoreDriver, storePath)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	svc, err := service.NewSessionService(ctx, bingo.NewSession(catalog), st, cfg.StateKey)
	cancel()
	if err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}
	svc.SetInstance(instanceId)

	socket := ws.NewWs(svc, cfg.CorsOrigins)
	svc.AddPublisher(socket)

	// NATS is optional, the caller runs standalone without it
	var sub *natsgo.Subscription
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken)
	switch {
	case errors.Is(err, nats.ErrNoURL):
		log.Info("NATS_URL not set, running without broker")
	case err != nil:
		log.Errorf("Error: unable to connect to NATS server %v", err)
	default:
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn, svc, cfg.EventsSubject, cfg.RepliesSubject)
		svc.AddPublisher(b)
		sub, err = b.Subscribe(cfg.CommandsSubject)
		if err != nil {
			log.Errorf("Error: unable to subscribe to %s %v", cfg.CommandsSubject, err)
		}
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CorsOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(svc, socket, cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	if cfg.PrintToken {
		printCallerToken(h)
	}
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if sub != nil {
		sub.Unsubscribe()
	}

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// printCallerToken writes a 7-day caller token to stdout, never to the log file.
func printCallerToken(h *handlers.Handler) {
	token, err := h.Token(7 * 24 * time.Hour)
	if err != nil {
		log.Errorf("Error issuing caller token: %v", err)
		return
	}
	fmt.Fprintf(os.Stdout, "caller token (7 days): %s\n", token)
}
