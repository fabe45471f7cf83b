package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

// Config is read from the environment after the optional .env file.
type Config struct {
	Port        string   `env:"SERVICE_PORT"  envDefault:"8080"`
	RateLimit   int      `env:"RATE_LIMIT"    envDefault:"120"`
	JWTSecret   string   `env:"JWT_SECRET_KEY"`
	PrintToken  bool     `env:"JWT_PRINT_TOKEN" envDefault:"false"`
	CorsOrigins []string `env:"CORS_ORIGINS"  envSeparator:"," envDefault:"http://localhost:5173"`
	LogLevel    string   `env:"LOG_LEVEL"     envDefault:"info"`
	LogToFile   bool     `env:"LOG_TO_FILE"   envDefault:"true"`

	NatsURL         string `env:"NATS_URL"`
	NatsToken       string `env:"NATS_TOKEN"`
	EventsSubject   string `env:"NATS_EVENTS_SUBJECT"   envDefault:"bingobongo.events"`
	CommandsSubject string `env:"NATS_COMMANDS_SUBJECT" envDefault:"bingobongo.commands"`
	RepliesSubject  string `env:"NATS_REPLIES_SUBJECT"  envDefault:"bingobongo.replies"`

	CatalogPath string `env:"CATALOG_PATH" envDefault:"cards.json"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	StorePath   string `env:"STORE_PATH"   envDefault:".state"`
	StateKey    string `env:"STATE_KEY"    envDefault:"bingobongo_state"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT value: %d", cfg.RateLimit)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	return cfg, nil
}

// LoadEnv reads ./.env when present. Variables already set win.
func LoadEnv(service string) {
	log.Infof("%s service configuration and env variables loading started ...", service)
	err := godotenv.Load("./.env")
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no .env file, using process environment")
		return
	}
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	log.Info(".env file loaded.")
}

func CreateUniqueInstance(service string) string {
	id, err := uuid.NewV4() // instance identifier
	if err != nil {
		log.Errorf("error generating instanceId: %s", err)
		os.Exit(0)
	}
	log.Infof(service+" service with Instance ID: %s is ready", id)
	return id.String()
}

func CORS(origins []string) *cors.Cors {
	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return corsOptions
}

// Logging sends the log to .l_g/<service>.log when toFile is set, stderr otherwise.
func Logging(service, level string, toFile bool) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetFormatter(&log.TextFormatter{})
	log.SetLevel(lvl)
	if !toFile {
		return
	}

	logFolder := ".l_g"

	_, err = os.Stat(logFolder)
	if os.IsNotExist(err) {
		err = os.Mkdir(logFolder, 0755)
		if err != nil {
			log.Warnf("unable to create folder for log %s", err)
			return
		}
	}

	logFilePath := filepath.Join(logFolder, service+".log")

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}

	log.SetOutput(file)

	log.Infof("log to file started for service: %s", service)
}

func CustomLoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Printf("%s %s %s %d %s %s",
					r.Method,
					r.RequestURI,
					r.RemoteAddr,
					ww.Status(),
					http.StatusText(ww.Status()),
					time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
