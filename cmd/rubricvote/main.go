package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gitlab.com/ranfdev/rubricvote/internal/db"
	"gitlab.com/ranfdev/rubricvote/internal/metrics"
	"gitlab.com/ranfdev/rubricvote/internal/models"
	"gitlab.com/ranfdev/rubricvote/internal/render"
	"gitlab.com/ranfdev/rubricvote/internal/routes"
	"gitlab.com/ranfdev/rubricvote/internal/store"
	"gitlab.com/ranfdev/rubricvote/internal/utils"
	"gitlab.com/ranfdev/rubricvote/web"
)

const usage = `Usage:
	- start [--memory]
	- migrate [up/down/drop]
`

func main() {
	if len(os.Args) == 1 {
		fmt.Println(usage)
		return
	}
	envConfig := models.ReadEnvConfig()
	switch os.Args[1] {
	case "start":
		server := RubricvoteServer{EnvConfig: envConfig}
		server.memory = len(os.Args) > 2 && os.Args[2] == "--memory"
		server.Setup()
		server.Run()
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			return
		}
		var err error
		switch os.Args[2] {
		case "up":
			err = db.MigrateUp(&envConfig)
		case "down":
			err = db.MigrateDown(&envConfig)
		case "drop":
			err = db.Drop(&envConfig)
		default:
			fmt.Println(usage)
			return
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Done")
	default:
		fmt.Println(usage)
	}
}

type RubricvoteServer struct {
	models.EnvConfig
	memory     bool
	addr       string
	logger     zerolog.Logger
	registry   *prometheus.Registry
	router     chi.Router
	httpServer *http.Server
	database   *db.SharedDB
	store      routes.Store
	templates  *render.Templates
}

func (server *RubricvoteServer) setupLogger() {
	var writer io.Writer
	if server.Debug {
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		writer = os.Stdout
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	server.logger = zerolog.New(writer).With().Timestamp().Logger()
}
func (server *RubricvoteServer) setupNonceKey() {
	if len(server.NonceKey) > 0 {
		return
	}
	// Nonces handed out before a restart stop verifying.
	server.logger.Warn().Msg("RUBRICVOTE_NONCE_KEY is not set, using a random key")
	server.NonceKey = []byte(utils.GenToken(32))
}
func (server *RubricvoteServer) setupTemplates() {
	var fsys fs.FS = web.FS
	if server.Debug {
		fsys = os.DirFS("web")
	}
	server.templates = render.GetTemplates(&server.EnvConfig, fsys, server.logger)
}
func (server *RubricvoteServer) setupDB() {
	if server.memory {
		mem := store.Open()
		if err := seedDemo(context.Background(), mem); err != nil {
			server.logger.Fatal().Err(err).Msg("Seeding demo data")
		}
		server.logger.Info().Msg("Using the in-memory store")
		server.store = mem
		return
	}
	err := db.MigrateUp(&server.EnvConfig)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	database, err := db.Connect(&server.EnvConfig)
	if err != nil {
		server.logger.Fatal().AnErr("Connecting to db", err).Send()
	}
	server.database = &database
	server.store = server.database
}
func (server *RubricvoteServer) setupRouter() {
	server.registry = prometheus.NewRegistry()
	server.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(server.registry)

	r := routes.NewRouter(&server.EnvConfig, server.store, server.logger, server.templates, m)
	r.Handle("/metrics", promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{}))
	server.router = r
}
func (server *RubricvoteServer) setupHttpServer() {
	server.addr = ":" + server.EnvConfig.Port
	server.httpServer = &http.Server{
		Addr:         server.addr,
		Handler:      server.router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
}
func (server *RubricvoteServer) Setup() {
	server.setupLogger()
	server.setupNonceKey()
	server.setupTemplates()
	server.setupDB()
	server.setupRouter()
	server.setupHttpServer()
}
func (server *RubricvoteServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.httpServer.Shutdown(ctx); err != nil {
		server.logger.Error().
			Err(err).
			Msg("Error shutting down")
	}
	if server.database != nil {
		server.database.Close()
	}
}
func (server *RubricvoteServer) Run() {
	server.logger.Info().Str("server_address", server.addr).Msg("Server is starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		if err := server.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.logger.Fatal().Err(err).Msg("Listening")
		}
	}()
	server.logger.Info().Msg("Ready")

	<-ctx.Done()
	stop() // Stop listening for signals
	server.logger.Info().Msg("Shutting down gracefully")
	server.Shutdown()
}
