package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkguid"
)

// DefaultConfigPath is where the config file lives in the container image,
// or under the working directory when LOCAL=true.
func DefaultConfigPath() string {
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

// LoadConfig reads the YAML config at path with .env and environment
// overrides applied.
func LoadConfig(path string) (pkgconfig.Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	return pkgconfig.NewViper(path,
		pkgconfig.WithDotEnv(".env"),
		pkgconfig.WithEnv("llm.api_key", "GROQ_API_KEY"),
		pkgconfig.WithEnv("search.tavily.api_key", "TAVILY_API_KEY"),
		pkgconfig.WithEnv("server.frontend_url", "FRONTEND_URL"),
		pkgconfig.WithEnv("storage.sqlite.path", "DATABASE_PATH"),
		pkgconfig.WithEnv("log.level", "LOG_LEVEL"),
		pkgconfig.WithDefault("server.address.http", ":8000"),
		pkgconfig.WithDefault("modules.research.enabled", true),
		pkgconfig.WithDefault("storage.driver", "memory"),
		pkgconfig.WithDefault("queue.buffer", 128),
		pkgconfig.WithDefault("queue.workers", 4),
		pkgconfig.WithDefault("queue.max_retries", 3),
		pkgconfig.WithDefault("queue.base_backoff", "200ms"),
		pkgconfig.WithDefault("queue.dedupe_window", "1h"),
	)
}

func (a *App) initConfig() {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initLibraries() {
	a.uuid = pkguid.NewUUID()

	sf, err := pkguid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.eventID = pkguid.NewSnowflakeString(sf)
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           withCORS(a.router, a.config.GetString("server.frontend_url")),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// withCORS allows cross-origin calls from the configured frontend only.
// Without a frontend URL no CORS headers are sent.
func withCORS(h http.Handler, frontendURL string) http.Handler {
	origin := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if origin == "" {
		return h
	}

	return cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(h)
}

func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}
